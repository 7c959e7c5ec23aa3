package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moderatehq/turnstile/internal/rules"
)

var rulesCompany string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage per-company block rules",
	Long: `Manage the block rules evaluated against every inbound message.

Subcommands:
  import  Import a YAML rule pack
  list    List a company's rules in evaluation order

Examples:
  turnstile rules import acme-rules.yaml
  turnstile rules list --company acme`,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <pack.yaml>",
	Short: "Import a YAML rule pack",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesImport,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a company's rules in evaluation order",
	RunE:  runRulesList,
}

func init() {
	rulesListCmd.Flags().StringVarP(&rulesCompany, "company", "c", "", "company id (required)")
	_ = rulesListCmd.MarkFlagRequired("company")

	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesListCmd)
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pack, err := rules.LoadPack(args[0])
	if err != nil {
		return fmt.Errorf("load rule pack: %w", err)
	}

	imported := 0
	for _, rule := range pack.BlockRules() {
		if _, err := dbClient.SaveRule(ctx, rule); err != nil {
			return fmt.Errorf("save rule %q: %w", rule.Matcher, err)
		}
		imported++
	}

	theme := defaultTheme
	fmt.Println(theme.successStyle().Render(fmt.Sprintf("✓ Imported %d rules for company %s", imported, pack.CompanyID)))
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	blockRules, err := dbClient.FetchRules(ctx, rulesCompany)
	if err != nil {
		return fmt.Errorf("fetch rules: %w", err)
	}

	if len(blockRules) == 0 {
		fmt.Printf("No rules for company %s.\n", rulesCompany)
		return nil
	}

	for i, rule := range blockRules {
		fmt.Printf("%3d. [%s] %q -> %q\n", i+1, rule.ID, rule.Matcher, rule.Substitution)
	}
	return nil
}
