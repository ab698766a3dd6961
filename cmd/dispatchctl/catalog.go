package main

import (
	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app, collection, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   collection,
		Short: short,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.client.ListRows(cmd.Context(), collection)
			if err != nil {
				return err
			}
			renderRows(cmd.OutOrStdout(), rows)
			return nil
		},
	})
	return cmd
}

func newScheduleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show fleet, venues and recent orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.Schedule(cmd.Context())
			if err != nil {
				return err
			}
			renderSchedule(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newAnalysisCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analysis",
		Short: "Show weekly cost and load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.client.Analysis(cmd.Context())
			if err != nil {
				return err
			}
			renderAnalysis(cmd.OutOrStdout(), an)
			return nil
		},
	}
}
