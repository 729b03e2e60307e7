package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var placeOrderCmd = &cobra.Command{
	Use:   "place-order",
	Short: "Sign and submit a limit order",
	Long: `Builds, signs and submits a limit order.

The outcome token is resolved from --market and --outcome, or passed
directly with --token.

Examples:
  predictkit place-order --market 512345 --outcome YES --side buy --price 0.65 --size 10
  predictkit place-order --token 713210...2563 --market 512345 --side sell --price 0.40 --size 25`,
	Args: cobra.NoArgs,
	RunE: runPlaceOrder,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(placeOrderCmd)
	placeOrderCmd.Flags().String("market", "", "Market id")
	placeOrderCmd.Flags().String("outcome", "", "Outcome label, e.g. YES or NO")
	placeOrderCmd.Flags().String("token", "", "Outcome token id (overrides --outcome)")
	placeOrderCmd.Flags().String("side", "", "Order side: buy or sell")
	placeOrderCmd.Flags().String("price", "", "Limit price in [tick, 1-tick]")
	placeOrderCmd.Flags().String("size", "", "Order size in outcome tokens")
	_ = placeOrderCmd.MarkFlagRequired("market")
	_ = placeOrderCmd.MarkFlagRequired("side")
	_ = placeOrderCmd.MarkFlagRequired("price")
	_ = placeOrderCmd.MarkFlagRequired("size")
}

func runPlaceOrder(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	marketID, _ := cmd.Flags().GetString("market")
	outcome, _ := cmd.Flags().GetString("outcome")
	tokenID, _ := cmd.Flags().GetString("token")
	sideStr, _ := cmd.Flags().GetString("side")
	priceStr, _ := cmd.Flags().GetString("price")
	sizeStr, _ := cmd.Flags().GetString("size")

	var side types.Side
	switch strings.ToLower(sideStr) {
	case "buy":
		side = types.Buy
	case "sell":
		side = types.Sell
	default:
		return fmt.Errorf("invalid side %q: must be buy or sell", sideStr)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", priceStr, err)
	}
	size, err := decimal.NewFromString(sizeStr)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", sizeStr, err)
	}

	venue, err := newVenueClient(cfg, logger, true)
	if err != nil {
		return err
	}

	if tokenID == "" {
		if outcome == "" {
			return fmt.Errorf("either --token or --outcome is required")
		}
		market, err := venue.FetchMarket(ctx, marketID)
		if err != nil {
			return fmt.Errorf("fetch market: %w", err)
		}
		token := market.TokenByOutcome(strings.ToUpper(outcome))
		if token == nil {
			return fmt.Errorf("market %s has no outcome %q", marketID, outcome)
		}
		tokenID = token.TokenID
	}

	order, err := venue.CreateOrder(ctx, exchange.OrderIntent{
		MarketID: marketID,
		TokenID:  tokenID,
		Side:     side,
		Price:    price,
		Size:     size,
	})
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}

	fmt.Println("Order submitted.")
	fmt.Printf("  ID:      %s\n", order.ID)
	fmt.Printf("  Market:  %s\n", order.MarketID)
	fmt.Printf("  Outcome: %s\n", order.Outcome)
	fmt.Printf("  Side:    %s\n", order.Side)
	fmt.Printf("  Price:   %.4f\n", order.Price)
	fmt.Printf("  Size:    %g\n", order.Size)
	fmt.Printf("  Status:  %s\n", order.Status)
	return nil
}
