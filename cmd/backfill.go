package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/logger"
)

var (
	backfillShopID string
	backfillStart  string
	backfillEnd    string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Ingest invoices over a date range",
	Long: `Runs one ingestion per day from --start to --end inclusive. Days that
fail are reported and skipped; the backfill continues with the next day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse("2006-01-02", backfillStart)
		if err != nil {
			return fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", backfillStart)
		}
		end, err := time.Parse("2006-01-02", backfillEnd)
		if err != nil {
			return fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", backfillEnd)
		}
		if end.Before(start) {
			return fmt.Errorf("--end %s is before --start %s", backfillEnd, backfillStart)
		}

		shops, err := selectShops(backfillShopID)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := logger.WithContext(cmd.Context(), logger.WithComponent(log, "backfill"))

		var failedDays int
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			targetDate := day.Format("2006-01-02")
			for i := range shops {
				if err := ingestShopDate(ctx, store, &shops[i], targetDate); err != nil {
					failedDays++
				}
			}
		}
		if failedDays > 0 {
			return fmt.Errorf("backfill finished with %d failed shop-days", failedDays)
		}
		return nil
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillShopID, "shop", "", "Shop ID to backfill (default: all configured shops)")
	backfillCmd.Flags().StringVar(&backfillStart, "start", "", "First date YYYY-MM-DD (required)")
	backfillCmd.Flags().StringVar(&backfillEnd, "end", "", "Last date YYYY-MM-DD (required)")
	backfillCmd.MarkFlagRequired("start")
	backfillCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(backfillCmd)
}
