package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List active markets",
	Long:  `Fetches and displays the venue's active markets.`,
	Args:  cobra.NoArgs,
	RunE:  runListMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)
	listMarketsCmd.Flags().IntP("limit", "l", 20, "Maximum number of markets to display")
	listMarketsCmd.Flags().BoolP("verbose", "v", false, "Show token ids per market")
}

func runListMarkets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	limit, _ := cmd.Flags().GetInt("limit")
	verbose, _ := cmd.Flags().GetBool("verbose")

	venue, err := newVenueClient(cfg, logger, false)
	if err != nil {
		return err
	}

	markets, err := venue.FetchMarkets(ctx)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}
	if len(markets) == 0 {
		fmt.Println("No active markets found.")
		return nil
	}

	shown := markets
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tQUESTION\tTICK\tMIN\tNEG-RISK\n")
	fmt.Fprintf(w, "--\t--------\t----\t---\t--------\n")
	for i := range shown {
		m := &shown[i]
		question := m.Question
		if len(question) > 60 {
			question = question[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%.4g\t%.4g\t%v\n",
			m.ID, question, m.TickSize, m.MinOrderSize, m.NegRisk)
		if verbose {
			for _, token := range m.Tokens {
				fmt.Fprintf(w, "\t  %-4s %s\n", token.Outcome, token.TokenID)
			}
		}
	}
	w.Flush()

	fmt.Printf("\nTotal: %d markets (showing %d)\n", len(markets), len(shown))
	return nil
}
