package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cancelOrderCmd = &cobra.Command{
	Use:   "cancel-order <order-id>",
	Short: "Cancel an open order",
	Long: `Cancels an open order by id.

Example:
  predictkit cancel-order 0xabc123...`,
	Args: cobra.ExactArgs(1),
	RunE: runCancelOrder,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cancelOrderCmd)
}

func runCancelOrder(cmd *cobra.Command, args []string) error {
	orderID := args[0]

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

	if err := venue.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	fmt.Printf("Order %s cancelled.\n", orderID)
	return nil
}
