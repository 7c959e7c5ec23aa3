package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moderatehq/turnstile/internal/client"
)

var (
	turnCompany   string
	turnUser      string
	turnChatBlock string
	turnServerURL string
)

var turnCmd = &cobra.Command{
	Use:   "turn <message>",
	Short: "Submit a chat turn and print the reply",
	Long: `Submit one user message to a running turnstile-server and print the
generated reply. Earlier turns in the chat block are loaded server-side.

Examples:
  turnstile turn "How do I reset my password?" --company acme --user u-42 --chat-block cb-7
  turnstile turn "hello" -c acme -u u-1 -b cb-1 --server http://turnstile.internal:8486`,
	Args: cobra.ExactArgs(1),
	RunE: runTurn,
}

func init() {
	turnCmd.Flags().StringVarP(&turnCompany, "company", "c", "", "company id (required)")
	turnCmd.Flags().StringVarP(&turnUser, "user", "u", "", "user id (required)")
	turnCmd.Flags().StringVarP(&turnChatBlock, "chat-block", "b", "", "chat block id (required)")
	turnCmd.Flags().StringVar(&turnServerURL, "server", "", "server URL (default from TURNSTILE_SERVER_URL)")
	_ = turnCmd.MarkFlagRequired("company")
	_ = turnCmd.MarkFlagRequired("user")
	_ = turnCmd.MarkFlagRequired("chat-block")
}

func runTurn(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c := client.New(turnServerURL)

	result, err := c.SendMessage(ctx, turnCompany, turnUser, turnChatBlock, args[0])
	if err != nil {
		return fmt.Errorf("process turn: %w", err)
	}

	theme := defaultTheme
	fmt.Println(theme.replyStyle().Render(result.Reply))

	if verbose {
		fmt.Println()
		fmt.Println(theme.hintStyle().Render(fmt.Sprintf("message: %s  category: %s  complexity: %s",
			result.MessageID, result.Category.Category, result.Category.Complexity)))
		for _, tr := range result.TriggeredRules {
			fmt.Println(theme.hintStyle().Render(fmt.Sprintf("rule %s: %q -> %q", tr.RuleID, tr.Original, tr.Substitution)))
		}
	}

	if result.PersistenceWarning != "" {
		fmt.Println(theme.warnStyle().Render("warning: reply was not persisted: " + result.PersistenceWarning))
	}

	return nil
}
