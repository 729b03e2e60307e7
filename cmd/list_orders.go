package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/predictkit/predictkit/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listOrdersCmd = &cobra.Command{
	Use:   "list-orders",
	Short: "List open orders for the authenticated account",
	Long: `Lists the account's open orders with market, side, price, size and
fill progress.

Requires API credentials; run derive-api-creds first if you only have a
signing key.`,
	Args: cobra.NoArgs,
	RunE: runListOrders,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listOrdersCmd)
}

func runListOrders(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	venue, err := newVenueClient(cfg, logger, true)
	if err != nil {
		return err
	}

	orders, err := venue.OpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch open orders: %w", err)
	}
	if len(orders) == 0 {
		fmt.Println("No open orders.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ORDER ID\tMARKET\tOUTCOME\tSIDE\tPRICE\tSIZE\tFILLED\tSTATUS\n")
	buys, sells := 0, 0
	var locked float64
	for i := range orders {
		o := &orders[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%g\t%g\t%s\n",
			shortID(o.ID), shortID(o.MarketID), o.Outcome, o.Side, o.Price, o.Size, o.Filled, o.Status)
		if o.Side == types.Buy {
			buys++
		} else {
			sells++
		}
		locked += o.Price * o.Remaining()
	}
	w.Flush()

	fmt.Printf("\nTotal: %d orders (%d buy, %d sell), $%.2f locked\n", len(orders), buys, sells, locked)
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}
