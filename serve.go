package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/melkeydev/value-finder/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the finder as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			logger, cleanup := newLogger(cfg)
			defer cleanup()
			f, err := newFinder(cfg, logger)
			if err != nil {
				return err
			}

			// Create a new MCP server
			s := server.NewMCPServer(
				"value-finder",
				version,
				server.WithToolCapabilities(false),
				server.WithLogging(),
			)

			mcp.RegisterTools(s, f)
			logger.Info("serving MCP tools", "type", cfg.Database.DBType, "threads", cfg.Finder.Threads)

			// Start the stdio server
			if err := server.ServeStdio(s); err != nil {
				logger.Error("server error", "error", err)
				return err
			}
			return nil
		},
	}
}
