package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts a JSON API on --addr (default from server.addr):

  POST /api/v1/query        ask a question, optionally in a session
  GET  /api/v1/milestones   list milestones
  GET  /api/v1/spans        list spans
  GET  /api/v1/statuses     list status cards
  GET  /api/v1/status       index metadata
  POST /api/v1/reindex      rebuild the index
  GET  /health              liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			addr = settings.Server.Addr
		}
	}
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Query:    queryService,
		Timeline: timelineService,
		Index:    indexService,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Listening on http://%s\n", addr)
	err = server.Run(cmd.Context(), addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
