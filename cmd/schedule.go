package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/logger"
)

var scheduleSpec string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily ingestion on a cron schedule",
	Long: `Stays resident and ingests yesterday's invoices for every configured
shop on the given cron schedule. The default fires at 02:00 UTC daily.
Stop with SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		schedLog := logger.WithComponent(log, "schedule")
		ctx := logger.WithContext(cmd.Context(), schedLog)

		scheduler := cron.New(cron.WithLocation(time.UTC))
		_, err = scheduler.AddFunc(scheduleSpec, func() {
			targetDate := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
			schedLog.Info().Str("target_date", targetDate).Msg("scheduled ingestion firing")

			for i := range cfg.Shops {
				if err := ingestShopDate(ctx, store, &cfg.Shops[i], targetDate); err != nil {
					schedLog.Error().Err(err).
						Str("shop_id", cfg.Shops[i].ID).
						Msg("scheduled ingestion failed for shop")
				}
			}
		})
		if err != nil {
			return err
		}

		scheduler.Start()
		schedLog.Info().Str("cron", scheduleSpec).Msg("scheduler started")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		schedLog.Info().Msg("shutting down scheduler")
		<-scheduler.Stop().Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "0 2 * * *", "Cron schedule (UTC)")
	rootCmd.AddCommand(scheduleCmd)
}
