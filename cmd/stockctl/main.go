package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/harborline/stockgate/internal/auth"
	"github.com/harborline/stockgate/internal/client"
)

var (
	gatewayURL string
	shop       string
	apiKey     string
	apiSecret  string

	toastStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

var rootCmd = &cobra.Command{
	Use:   "stockctl",
	Short: "Merchant-side client for the stockgate inventory gateway",
	Long: `stockctl drives the stockgate gateway the way the embedded admin
surface does: it signs a session token for a shop, triggers the inventory
action, and renders the returned items.

Quick Start:
  stockctl inventory --shop dev-shop.myshopify.com`,
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Trigger an inventory fetch and render the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !auth.ValidShop(shop) {
			return fmt.Errorf("invalid --shop %q", shop)
		}
		if apiKey == "" || apiSecret == "" {
			return fmt.Errorf("--api-key and --api-secret (or STOCKGATE_APP_API_KEY / STOCKGATE_APP_API_SECRET) are required")
		}

		token, err := auth.IssueSessionToken(apiSecret, apiKey, shop, time.Minute)
		if err != nil {
			return err
		}

		fetcher := client.NewFetcher(client.NewHTTPSubmitter(nil, gatewayURL, token))
		toast := client.NewToast(func(msg string) {
			fmt.Fprintln(cmd.OutOrStdout(), toastStyle.Render(msg))
		})

		fetcher.Trigger(cmd.Context())

		// Render loop: observe state transitions until the result arrives.
		for fetcher.State() != client.StateLoaded {
			select {
			case <-fetcher.Updates():
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		}

		res := fetcher.Result()
		toast.Observe(res)

		if res.OK() {
			fmt.Fprint(cmd.OutOrStdout(), client.RenderInventory(res))
			return nil
		}

		// Failed result: no inventory section, just a note.
		fmt.Fprintln(cmd.OutOrStdout(), errStyle.Render(res.Error))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "http://localhost:8080", "Base URL of the stockgate server")
	rootCmd.PersistentFlags().StringVar(&shop, "shop", "", "Shop domain to act on behalf of")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("STOCKGATE_APP_API_KEY"), "App API key")
	rootCmd.PersistentFlags().StringVar(&apiSecret, "api-secret", os.Getenv("STOCKGATE_APP_API_SECRET"), "App API secret used to sign the session token")

	rootCmd.AddCommand(inventoryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
