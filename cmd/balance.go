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
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show collateral balance and open positions",
	Long: `Shows the account's available collateral, the amount approved for
trading, and optionally its open positions.`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().BoolP("positions", "p", true, "Show open positions")
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	showPositions, _ := cmd.Flags().GetBool("positions")

	venue, err := newVenueClient(cfg, logger, true)
	if err != nil {
		return err
	}

	balance, err := venue.FetchBalance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	fmt.Printf("Available: $%.2f\n", balance.Available)
	fmt.Printf("Allowance: $%.2f\n", balance.Allowance)

	if !showPositions {
		return nil
	}

	positions, err := venue.FetchPositions(ctx)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}
	if len(positions) == 0 {
		fmt.Println("\nNo open positions.")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MARKET\tOUTCOME\tSIZE\tAVG\tVALUE\tPNL\n")
	for i := range positions {
		p := &positions[i]
		fmt.Fprintf(w, "%s\t%s\t%g\t%.4f\t$%.2f\t$%.2f\n",
			shortID(p.MarketID), p.Outcome, p.Size, p.AvgPrice, p.CurrentValue, p.CashPnL)
	}
	w.Flush()
	return nil
}
