package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moderatehq/turnstile/internal/models"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage per-chat-block persona attributes",
	Long: `Manage the persona attributes that shape replies for a chat block.
Each attribute has a level: 0 (off), 1 (moderate), 2 (strong).

Subcommands:
  set   Set one attribute level
  show  Show a chat block's attributes

Examples:
  turnstile persona set cb-7 humor 2
  turnstile persona show cb-7`,
}

var personaSetCmd = &cobra.Command{
	Use:   "set <chat-block> <name> <level>",
	Short: "Set one persona attribute level",
	Args:  cobra.ExactArgs(3),
	RunE:  runPersonaSet,
}

var personaShowCmd = &cobra.Command{
	Use:   "show <chat-block>",
	Short: "Show a chat block's persona attributes",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaShow,
}

func init() {
	personaCmd.AddCommand(personaSetCmd)
	personaCmd.AddCommand(personaShowCmd)
}

func runPersonaSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	chatBlockID, name := args[0], args[1]

	level, err := strconv.Atoi(args[2])
	if err != nil || level < models.LevelOff || level > models.LevelStrong {
		return fmt.Errorf("level must be %d, %d or %d", models.LevelOff, models.LevelModerate, models.LevelStrong)
	}

	attr := models.PersonaAttribute{Name: name, Level: level}
	if err := dbClient.SavePersonaAttribute(ctx, chatBlockID, attr); err != nil {
		return fmt.Errorf("save persona attribute: %w", err)
	}

	fmt.Println(defaultTheme.successStyle().Render(fmt.Sprintf("✓ %s = %d on %s", name, level, chatBlockID)))
	return nil
}

func runPersonaShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	attrs, err := dbClient.FetchPersona(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetch persona: %w", err)
	}

	if len(attrs) == 0 {
		fmt.Printf("No persona attributes for chat block %s.\n", args[0])
		return nil
	}

	for _, attr := range attrs {
		fmt.Printf("%-20s %d\n", attr.Name, attr.Level)
	}
	return nil
}
