package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/predictkit/predictkit/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream order books and track orders",
	Long: `Starts the client: connects the WebSocket pool, subscribes to the
requested markets or token ids, synchronizes their order books, records
order fills, and serves metrics and debug endpoints over HTTP.`,
	RunE: runApp,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceP("market", "m", nil, "Market id to stream (repeatable)")
	runCmd.Flags().StringSliceP("asset", "a", nil, "Token id to stream directly (repeatable)")
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	marketIDs, _ := cmd.Flags().GetStringSlice("market")
	assetIDs, _ := cmd.Flags().GetStringSlice("asset")

	application, err := app.New(cfg, logger, &app.Options{
		MarketIDs: marketIDs,
		AssetIDs:  assetIDs,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}
