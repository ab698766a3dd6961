package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/client"
	"github.com/imrishuroy/rental-dispatch/internal/logger"
)

const defaultAPI = "http://localhost:8080"

type app struct {
	apiURL    string
	logLevel  string
	logFormat string

	logger *zap.Logger
	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dispatchctl",
		Short:         "Drive the rental dispatch API from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = logger.New(a.logLevel, a.logFormat)
			a.client = client.New(a.apiURL, nil)
		},
	}

	api := os.Getenv("DISPATCH_API_URL")
	if api == "" {
		api = defaultAPI
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", api, "base URL of the dispatch API")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "log format: console or json")

	root.AddCommand(
		newIngestCmd(a),
		newResultsCmd(a),
		newCatalogCmd(a, "vehicles", "Fleet vehicles"),
		newCatalogCmd(a, "inventory", "Warehouse inventory"),
		newCatalogCmd(a, "venues", "Venue loading difficulty"),
		newScheduleCmd(a),
		newAnalysisCmd(a),
	)
	return root
}
