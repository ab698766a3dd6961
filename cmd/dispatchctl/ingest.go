package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/rental-dispatch/internal/ingest"
	"github.com/imrishuroy/rental-dispatch/internal/poller"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		sessionID string
		clear     bool
		asJSON    bool
		cfg       poller.Config
	)

	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Send documents for parsing and wait for the parsed orders",
		Long: `Upload order documents to the automation webhook, then poll until the
parsed orders arrive (or the attempt budget runs out) and print them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := ingest.NewSession(sessionID, a.client, cfg, a.logger)
			out := cmd.OutOrStdout()
			s.Poller().OnStage = func(st poller.Stage) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", s.ID, st)
			}
			s.Poller().OnAttempt = func(at poller.Attempt) {
				if at.Err != nil || at.Items == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "  poll %d/%d: not ready\n", at.N, s.Poller().Config().MaxAttempts)
				}
			}

			items, err := s.Run(cmd.Context(), args)
			if errors.Is(err, poller.ErrTimeout) {
				total := time.Duration(s.Poller().Config().MaxAttempts) * s.Poller().Config().Interval
				return fmt.Errorf("no parsed results received after %s; check the automation run", total)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(items); err != nil {
					return err
				}
			} else {
				renderOrders(out, items)
			}

			if clear {
				return s.Clear(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id (generated when empty)")
	cmd.Flags().BoolVar(&clear, "clear", false, "delete the stored results after printing them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw records as JSON")
	cmd.Flags().DurationVar(&cfg.InitialDelay, "delay", poller.DefaultInitialDelay, "wait before the first poll")
	cmd.Flags().DurationVar(&cfg.Interval, "interval", poller.DefaultInterval, "time between polls")
	cmd.Flags().IntVar(&cfg.MaxAttempts, "attempts", poller.DefaultMaxAttempts, "maximum number of polls")
	return cmd
}
