package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/config"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/infra/postgres"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/logger"
)

var version = "1.0.0"

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fullbay-ingest",
	Short: "Fullbay invoice ingestion - pull shop invoices into Postgres",
	Long: `fullbay-ingest pulls detailed repair invoices from the Fullbay API,
stores the raw JSON for auditability, flattens every invoice into wide
per-line-item rows, and writes both to Postgres.

Each line item row carries its full ancestry (invoice, customer, service
order, unit, complaint, correction) so reporting queries never need joins.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		log, err = logger.NewFromConfig(cfg.GetLoggerConfig())
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore connects to Postgres using the configured DSN.
func openStore() (*postgres.Store, error) {
	store, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return store, nil
}

// newClient builds a Fullbay API client for one configured shop.
func newClient(shop *config.Shop) (*fullbay.Client, error) {
	var opts []fullbay.Option
	if cfg.FullbayBaseURL != "" {
		opts = append(opts, fullbay.WithBaseURL(cfg.FullbayBaseURL))
	}
	client, err := fullbay.NewClient(shop.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("building client for shop %s: %w", shop.ID, err)
	}
	return client, nil
}

// selectShops resolves the --shop flag: a specific shop id, or every
// configured shop when the flag is empty.
func selectShops(shopID string) ([]config.Shop, error) {
	if shopID == "" {
		return cfg.Shops, nil
	}
	shop, err := cfg.Shop(shopID)
	if err != nil {
		return nil, err
	}
	return []config.Shop{*shop}, nil
}
