package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newResultsCmd(a *app) *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect or clear stored parsed orders",
	}
	cmd.PersistentFlags().StringVar(&sessionID, "session", "default", "session id")

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the parsed orders stored for a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.GetResults(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "received %s\n", res.ReceivedAt.Format("2006-01-02 15:04:05 MST"))
			renderOrders(out, res.Items)
			return nil
		},
	}
	get.Flags().BoolVar(&asJSON, "json", false, "print the raw records as JSON")

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete the parsed orders stored for a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.ClearResults(cmd.Context(), sessionID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", sessionID)
			return nil
		},
	}

	cmd.AddCommand(get, clear)
	return cmd
}
