package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/predictkit/predictkit/internal/orderbook"
	"github.com/predictkit/predictkit/pkg/types"
	"github.com/predictkit/predictkit/pkg/websocket"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchOrderbookCmd = &cobra.Command{
	Use:   "watch-orderbook <market-id>",
	Short: "Watch live order book updates for a market",
	Long: `Connects to the market data stream, subscribes to every outcome token
of the given market, and prints top-of-book updates as they arrive.

Example:
  predictkit watch-orderbook 512345`,
	Args: cobra.ExactArgs(1),
	RunE: runWatchOrderbook,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchOrderbookCmd)
}

func runWatchOrderbook(cmd *cobra.Command, args []string) error {
	marketID := args[0]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	venue, err := newVenueClient(cfg, logger, false)
	if err != nil {
		return err
	}

	market, err := venue.FetchMarket(ctx, marketID)
	if err != nil {
		return fmt.Errorf("fetch market: %w", err)
	}

	fmt.Printf("Market: %s\n", market.Question)
	assetIDs := make([]string, 0, len(market.Tokens))
	outcomes := make(map[string]string, len(market.Tokens))
	for _, token := range market.Tokens {
		fmt.Printf("  %-4s %s\n", token.Outcome, token.TokenID)
		assetIDs = append(assetIDs, token.TokenID)
		outcomes[token.TokenID] = token.Outcome
	}
	fmt.Println()

	manager := websocket.New(websocket.Config{
		URL:                   cfg.WSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		ReconnectMaxAttempts:  cfg.WSReconnectMaxAttempts,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})
	if err := manager.Connect(ctx); err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer manager.Close()

	if err := manager.Subscribe(ctx, assetIDs); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	books := orderbook.New(logger)
	go books.Run(ctx, manager.Messages())

	updates := make(chan types.OrderBook, 64)
	for _, assetID := range assetIDs {
		ch, cancelSub := books.Subscribe(assetID, 16)
		defer cancelSub()
		go func(ch <-chan types.OrderBook) {
			for book := range ch {
				select {
				case updates <- book:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}

	fmt.Println("Watching top of book (Ctrl+C to stop)...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for {
		select {
		case <-sigChan:
			fmt.Println("\nStopping...")
			return nil
		case book := <-updates:
			printTopOfBook(w, outcomes[book.AssetID], &book)
		}
	}
}

func printTopOfBook(w *tabwriter.Writer, outcome string, book *types.OrderBook) {
	bid := "-"
	if v, ok := book.BestBid(); ok {
		bid = fmt.Sprintf("%.4f", v)
	}
	ask := "-"
	if v, ok := book.BestAsk(); ok {
		ask = fmt.Sprintf("%.4f", v)
	}
	mid := "-"
	if v, ok := book.MidPrice(); ok {
		mid = fmt.Sprintf("%.4f", v)
	}
	fmt.Fprintf(w, "%s\t%s\tbid %s\task %s\tmid %s\n",
		book.Timestamp.Format("15:04:05"), outcome, bid, ask, mid)
	w.Flush()
}
