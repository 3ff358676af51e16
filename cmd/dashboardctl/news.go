package main

import (
	"github.com/paaavkata/stock-dashboard/internal/app"
	"github.com/spf13/cobra"
)

func newNewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Manage stored news articles",
	}
	cmd.AddCommand(newNewsPurgeCmd())
	return cmd
}

func newNewsPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete articles older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				if days == 0 {
					days = a.Config.NewsRetentionDays
				}
				deleted, err := a.News.PurgeOlderThan(cmd.Context(), days)
				if err != nil {
					return err
				}
				cmd.Printf("Deleted %d articles\n", deleted)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default from config)")
	return cmd
}
