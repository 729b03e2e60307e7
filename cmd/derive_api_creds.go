package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var deriveAPICredsCmd = &cobra.Command{
	Use:   "derive-api-creds",
	Short: "Derive API credentials from the signing key",
	Long: `Derives the API key, secret and passphrase bound to the configured
signing key, via an EIP-712 signed attestation. The derivation is
deterministic: running it again returns the same credentials.

Export the printed values so authenticated commands can use them.`,
	Args: cobra.NoArgs,
	RunE: runDeriveAPICreds,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(deriveAPICredsCmd)
}

func runDeriveAPICreds(cmd *cobra.Command, args []string) error {
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

	creds, err := venue.DeriveAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("derive api credentials: %w", err)
	}

	fmt.Println("# Add these to your environment or .env file:")
	fmt.Printf("API_KEY=%s\n", creds.APIKey)
	fmt.Printf("API_SECRET=%s\n", creds.Secret)
	fmt.Printf("API_PASSPHRASE=%s\n", creds.Passphrase)
	return nil
}
