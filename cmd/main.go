package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "ringside/docs"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ringside",
	Short: "Ringside boxing-equipment storefront service",
	Long: `Ringside hosts the storefront state: per-user carts, checkout,
order history and the admin panel, backed by a pluggable key-value store.

Run "ringside serve" to start the HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, deliveryCodeCmd, tokenCmd)
}

// @title           Ringside API
// @version         1.0
// @description     Boxing-equipment storefront: catalog, cart, checkout and admin panel.
// @host            localhost:9091
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
