package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/export"
)

var (
	exportDate   string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export line items as CSV",
	Long: `Writes the flattened line-item rows for one invoice date as CSV.
Without --date, every stored row is exported. Without --output, the CSV
goes to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportDate != "" {
			if _, err := time.Parse("2006-01-02", exportDate); err != nil {
				return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", exportDate)
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rows, err := store.LineItemsForDate(cmd.Context(), exportDate)
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if err := export.WriteCSV(out, rows); err != nil {
			return err
		}

		if exportOutput != "" {
			fmt.Printf("exported %d rows to %s\n", len(rows), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Invoice date YYYY-MM-DD (default: all rows)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
