package main

import (
	"errors"
	"fmt"

	"github.com/paaavkata/stock-dashboard/internal/app"
	"github.com/paaavkata/stock-dashboard/internal/marketdata"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the market data cache",
	}
	cmd.AddCommand(newCacheRefreshCmd(), newCachePurgeCmd(), newCacheHistoryCmd())
	return cmd
}

func newCacheRefreshCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "refresh [codes...]",
		Short: "Re-fetch the last 30 days for the given tickers",
		Example: `  dashboardctl cache refresh 192820 161890
  dashboardctl cache refresh --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass ticker codes or --all")
			}
			return withApp(cmd, func(a *app.App) error {
				codes := args
				if all {
					codes = make([]string, 0, len(a.Catalog.Tickers))
					for _, t := range a.Catalog.Tickers {
						codes = append(codes, t.Code)
					}
				}

				var failed int
				for _, code := range codes {
					isIndex := false
					if t, ok := a.Catalog.Ticker(code); ok {
						isIndex = t.UsesIndexEndpoint()
					}
					n, err := a.MarketData.Refresh(cmd.Context(), code, isIndex)
					if err != nil {
						failed++
						cmd.PrintErrf("%s: %v\n", code, err)
						continue
					}
					cmd.Printf("%s: %d rows\n", code, n)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d tickers failed", failed, len(codes))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "refresh every catalog ticker")
	return cmd
}

func newCachePurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete cached bars older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				if days == 0 {
					days = a.Config.MarketDataRetentionDays
				}
				deleted, err := a.MarketData.PurgeOlderThan(cmd.Context(), days)
				if err != nil {
					return err
				}
				cmd.Printf("Deleted %d rows\n", deleted)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, fmt.Sprintf("retention in days (default from config, %d)", marketdata.DefaultRetentionDays))
	return cmd
}

func newCacheHistoryCmd() *cobra.Command {
	var (
		start, end string
		isIndex    bool
	)
	cmd := &cobra.Command{
		Use:   "history <code>",
		Short: "Read daily bars through the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				bars, err := a.MarketData.GetHistory(cmd.Context(), args[0], start, end, isIndex)
				if err != nil {
					return err
				}
				return printJSON(cmd, bars)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&isIndex, "index", false, "use the index endpoints")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
