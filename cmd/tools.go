package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ringside/internal/auth"
	"ringside/internal/config"
	"ringside/internal/delivery"
)

var codeCount int

var deliveryCodeCmd = &cobra.Command{
	Use:   "delivery-code",
	Short: "Print random pickup delivery codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if codeCount < 1 {
			return fmt.Errorf("-n must be at least 1")
		}
		g := delivery.NewCodeGenerator()
		for i := 0; i < codeCount; i++ {
			fmt.Fprintln(cmd.OutOrStdout(), g.Generate())
		}
		return nil
	},
}

var (
	tokenUser     string
	tokenEmail    string
	tokenUsername string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long: `Signs a token with auth.jwt_secret the way the hosted auth platform does.

Example:
  ringside token --user u-1 --email admin@ringside.pl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		tok, err := auth.NewVerifier(cfg.Auth).Mint(tokenUser, tokenEmail, tokenUsername, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	deliveryCodeCmd.Flags().IntVarP(&codeCount, "count", "n", 1, "number of codes")

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (sub claim)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "username claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
