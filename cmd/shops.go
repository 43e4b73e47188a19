package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/config"
)

var shopsVerify bool

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "List configured shops",
	Long: `Lists every configured shop with its API key masked. With --verify,
each shop's credentials are checked against the Fullbay API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		for i := range cfg.Shops {
			shop := &cfg.Shops[i]
			name := shop.Name
			if name == "" {
				name = "-"
			}
			fmt.Printf("%-12s %-30s %s\n", shop.ID, name, config.MaskAPIKey(shop.APIKey))

			if shopsVerify {
				client, err := newClient(shop)
				if err != nil {
					return err
				}
				if err := client.TestConnection(cmd.Context()); err != nil {
					fmt.Printf("             connection check FAILED: %v\n", err)
				} else {
					fmt.Println("             connection check OK")
				}
			}
		}
		return nil
	},
}

func init() {
	shopsCmd.Flags().BoolVar(&shopsVerify, "verify", false, "Check each shop's API credentials")
	rootCmd.AddCommand(shopsCmd)
}
