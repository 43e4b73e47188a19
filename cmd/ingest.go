package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/config"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/logger"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/pipeline"
)

var (
	ingestShopID string
	ingestDate   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest invoices for one date",
	Long: `Fetches all invoices for the target date (default: yesterday, UTC),
stores the raw payloads, flattens them into line items and inserts the
rows. Without --shop, every configured shop is ingested in turn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDate := ingestDate
		if targetDate == "" {
			targetDate = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
		}
		if _, err := time.Parse("2006-01-02", targetDate); err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", targetDate)
		}

		shops, err := selectShops(ingestShopID)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := logger.WithContext(cmd.Context(), logger.WithComponent(log, "ingest"))

		var failed int
		for i := range shops {
			if err := ingestShopDate(ctx, store, &shops[i], targetDate); err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d shops failed", failed, len(shops))
		}
		return nil
	},
}

func ingestShopDate(ctx context.Context, repo pipeline.Repository, shop *config.Shop, targetDate string) error {
	client, err := newClient(shop)
	if err != nil {
		return err
	}

	state, err := pipeline.Run(ctx, client, repo, shop.ID, shop.Name, targetDate)
	if err != nil {
		log.Error().Err(err).
			Str("shop_id", shop.ID).
			Str("target_date", targetDate).
			Msg("ingestion failed")
		return err
	}

	fmt.Printf("shop %s %s: %d invoices, %d line items, %d failed\n",
		shop.ID, targetDate, state.InvoicesProcessed, state.LineItemsCreated, state.InvoicesFailed)
	return nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestShopID, "shop", "", "Shop ID to ingest (default: all configured shops)")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "Target date YYYY-MM-DD (default: yesterday UTC)")
	rootCmd.AddCommand(ingestCmd)
}
