package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	statusRuns    int
	statusQuality string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingestion statistics and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()

		stats, err := store.Statistics(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Raw invoices:    %d (%d unprocessed)\n", stats.RawInvoices, stats.UnprocessedRaw)
		fmt.Printf("Line items:      %d\n", stats.LineItems)
		for _, tc := range stats.ItemsByType {
			fmt.Printf("  %-20s %d\n", tc.LineItemType, tc.Count)
		}
		fmt.Printf("Ingestion runs:  %d\n", stats.IngestionRuns)
		if stats.LastRunExecution != "" {
			fmt.Printf("Last run:        %s (%s)\n", stats.LastRunExecution, stats.LastRunStatus)
		}

		if statusQuality != "" {
			if statusQuality != "all" {
				if _, err := time.Parse("2006-01-02", statusQuality); err != nil {
					return fmt.Errorf("invalid --quality %q: expected YYYY-MM-DD or 'all'", statusQuality)
				}
			}
			date := statusQuality
			if date == "all" {
				date = ""
			}
			report, err := store.DataQuality(ctx, date)
			if err != nil {
				return err
			}
			fmt.Printf("\nData quality (score %.1f%%):\n", report.QualityScore)
			fmt.Printf("  missing invoice numbers: %d\n", report.MissingInvoiceNumbers)
			fmt.Printf("  missing customer info:   %d\n", report.MissingCustomerInfo)
			fmt.Printf("  missing unit info:       %d\n", report.MissingUnitInfo)
			fmt.Printf("  zero-price parts:        %d\n", report.ZeroPrices)
			fmt.Printf("  null labor hours:        %d\n", report.NullLaborHours)
			fmt.Printf("  missing part numbers:    %d\n", report.MissingPartNumbers)
		}

		if statusRuns > 0 {
			runs, err := store.RecentRuns(ctx, statusRuns)
			if err != nil {
				return err
			}
			fmt.Println("\nRecent runs:")
			for _, run := range runs {
				duration := "-"
				if run.EndTime != nil {
					duration = run.EndTime.Sub(run.StartTime).Round(time.Second).String()
				}
				fmt.Printf("  %s  shop=%s date=%s status=%s processed=%d items=%d errors=%d duration=%s\n",
					run.StartTime.Format(time.RFC3339), run.ShopID, run.TargetDate,
					run.Status, run.RecordsProcessed, run.LineItemsCreated, run.ErrorsCount, duration)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 5, "Number of recent runs to show (0 to hide)")
	statusCmd.Flags().StringVar(&statusQuality, "quality", "", "Show data quality for a date (YYYY-MM-DD) or 'all'")
	rootCmd.AddCommand(statusCmd)
}
