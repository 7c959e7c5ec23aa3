package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/moderatehq/turnstile/internal/client"
)

var statsServerURL string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	Long:  `Show the in-memory runtime statistics of a running turnstile-server (resets on restart).`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServerURL, "server", "", "server URL (default from TURNSTILE_SERVER_URL)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c := client.New(statsServerURL)

	snap, err := c.Stats(ctx)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	fmt.Printf("Uptime: %.0fs\n\n", snap.UptimeSeconds)

	if len(snap.Operations) == 0 {
		fmt.Println("No operations recorded yet.")
		return nil
	}

	ops := make([]string, 0, len(snap.Operations))
	for op := range snap.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	fmt.Printf("%-18s %8s %10s %10s %10s\n", "operation", "count", "avg ms", "min ms", "max ms")
	for _, op := range ops {
		s := snap.Operations[op]
		fmt.Printf("%-18s %8d %10.1f %10d %10d\n", op, s.Count, s.AvgTimeMs, s.MinTimeMs, s.MaxTimeMs)
	}
	return nil
}
