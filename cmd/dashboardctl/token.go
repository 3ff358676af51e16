package main

import (
	"encoding/json"

	"github.com/paaavkata/stock-dashboard/internal/app"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and manage the quote access token",
	}
	cmd.AddCommand(newTokenInfoCmd(), newTokenIssueCmd(), newTokenClearCmd())
	return cmd
}

func newTokenInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the cached token state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				// Loads a stored token into memory without issuing one.
				if a.Config.HasQuoteCredentials() {
					if _, err := a.Tokens.GetToken(cmd.Context(), kis.Provider); err != nil {
						return err
					}
				}
				return printJSON(cmd, map[string]interface{}{
					kis.Provider: a.Tokens.TokenInfo(kis.Provider),
					"durability": a.Tokens.DurabilityStatus(),
				})
			})
		},
	}
}

func newTokenIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue",
		Short: "Obtain a token for the current refresh window, issuing one if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				if _, err := a.Tokens.GetToken(cmd.Context(), kis.Provider); err != nil {
					return err
				}
				return printJSON(cmd, a.Tokens.TokenInfo(kis.Provider))
			})
		},
	}
}

func newTokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the cached and stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				a.Tokens.ClearToken(cmd.Context(), kis.Provider)
				cmd.Println("Token cleared")
				return nil
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
