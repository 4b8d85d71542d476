package main

import (
	"github.com/TFMV/csvdiff/api"
	"github.com/TFMV/csvdiff/report"
	"github.com/spf13/cobra"
)

// newServeCommand creates the command that exposes comparisons over HTTP.
func (c *cli) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve comparisons over HTTP",
		Long: `serve starts an HTTP server with the endpoints:

  GET  /health    liveness check
  GET  /version   service and build information
  POST /compare   multipart upload of file1 and file2, ?format=text|json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := api.NewServer(c.serverOptions())
			return server.Start()
		},
	}

	cmd.Flags().String("port", "3000", "Port to listen on")
	cmd.Flags().Bool("prefork", false, "Use multiple processes to accept connections")

	return cmd
}

func (c *cli) serverOptions() api.ServerOptions {
	return api.ServerOptions{
		Port:    c.cfg.Server.Port,
		Prefork: c.cfg.Server.Prefork,
		Reader:  readerConfig(c.cfg.Reader),
		Diff:    diffOptions(c.cfg.Diff),
		Report: report.Options{
			MaxDataDifferences: c.cfg.Report.MaxDataDifferences,
			MaxPositionMatches: c.cfg.Report.MaxPositionMatches,
		},
		DefaultFormat: c.cfg.Report.Format,
	}
}
