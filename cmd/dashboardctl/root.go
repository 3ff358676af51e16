package main

import (
	"github.com/paaavkata/stock-dashboard/internal/app"
	"github.com/paaavkata/stock-dashboard/internal/config"
	"github.com/paaavkata/stock-dashboard/pkg/utils"
	"github.com/spf13/cobra"
)

// bootstrap builds the service graph for a command. Tests replace it.
var bootstrap = func(cmd *cobra.Command) (*app.App, error) {
	logger := utils.NewLogger("dashboardctl")
	logger.SetOutput(cmd.ErrOrStderr())
	return app.New(cmd.Context(), config.Load(), logger)
}

// NewRootCmd creates the operator command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dashboardctl",
		Short:        "Operate the stock dashboard backend",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newMigrateCmd(),
		newTokenCmd(),
		newCacheCmd(),
		newNewsCmd(),
		newTickersCmd(),
	)
	return cmd
}

// withApp runs fn against a freshly built service graph and closes it after.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and seed the ticker catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				if err := a.SeedCatalog(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("Schema applied and catalog seeded")
				return nil
			})
		},
	}
}
