package main

import (
	"github.com/paaavkata/stock-dashboard/internal/app"
	"github.com/spf13/cobra"
)

func newTickersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickers",
		Short: "Inspect the stored ticker catalog",
	}
	cmd.AddCommand(newTickersListCmd(), newTickersDeactivateCmd())
	return cmd
}

func newTickersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active tickers in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				tickers, err := a.Tickers.FindAll(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, tickers)
			})
		},
	}
}

// Deactivated tickers come back on the next migrate if they are still in
// the catalog file.
func newTickersDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <code>",
		Short: "Hide a ticker from the stored catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				if err := a.Tickers.Deactivate(cmd.Context(), args[0]); err != nil {
					return err
				}
				cmd.Printf("Deactivated %s\n", args[0])
				return nil
			})
		},
	}
}
