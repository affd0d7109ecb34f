package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/melkeydev/value-finder/config"
	"github.com/melkeydev/value-finder/databases"
	"github.com/melkeydev/value-finder/finder"
	"github.com/melkeydev/value-finder/logging"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand and override the config file.
type globalOptions struct {
	configPath       string
	dbType           string
	connectionString string
	server           string
	threads          int
	unitTimeout      time.Duration
	maxQPS           float64
	logLevel         string
	seqURL           string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "value-finder",
		Short:         "Find which tables and columns of a database server hold a value",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	flags.StringVar(&opts.dbType, "type", "", "database type: sqlserver, mysql, postgres or sqlite")
	flags.StringVar(&opts.connectionString, "connection-string", "", "connection string template, {database} is replaced by each database name")
	flags.StringVar(&opts.server, "server", "", "SQL Server host for integrated authentication")
	flags.IntVar(&opts.threads, "threads", 0, "number of concurrent workers")
	flags.DurationVar(&opts.unitTimeout, "unit-timeout", 0, "maximum duration of a single table query")
	flags.Float64Var(&opts.maxQPS, "max-qps", 0, "maximum table queries per second, 0 for no limit")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&opts.seqURL, "seq-url", "", "also ship logs to this Seq server")

	rootCmd.AddCommand(newFindCmd(opts), newServeCmd(opts))
	return rootCmd
}

// load resolves configuration with precedence flag > config file > default.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		if cmd.Flags().Changed("config") || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
	}

	if cmd.Flags().Changed("type") {
		cfg.Database.DBType = o.dbType
	}
	if cmd.Flags().Changed("connection-string") {
		cfg.Database.ConnectionString = o.connectionString
	}
	if cmd.Flags().Changed("server") {
		cfg.Database.Server = o.server
	}
	if cmd.Flags().Changed("threads") {
		cfg.Finder.Threads = config.ClampThreads(o.threads)
	}
	if cmd.Flags().Changed("unit-timeout") {
		cfg.Finder.UnitTimeout = o.unitTimeout
	}
	if cmd.Flags().Changed("max-qps") {
		cfg.Finder.MaxQPS = o.maxQPS
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("seq-url") {
		cfg.Log.SeqURL = o.seqURL
	}
	return cfg, nil
}

// newLogger logs to stderr so stdout stays free for results and the MCP stdio transport.
func newLogger(cfg *config.Config) (*slog.Logger, func()) {
	return logging.Setup(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.SeqURL)
}

// newFinder wires the configured connector into a Finder.
func newFinder(cfg *config.Config, logger *slog.Logger, extra ...finder.Option) (*finder.Finder, error) {
	connStr, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("connection string error: %w", err)
	}

	connector, err := databases.NewConnector(cfg.Database.DBType, connStr, cfg.Database.Bootstrap)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	opts := []finder.Option{
		finder.WithThreads(cfg.Finder.Threads),
		finder.WithUnitTimeout(cfg.Finder.UnitTimeout),
		finder.WithQueryRate(cfg.Finder.MaxQPS),
		finder.WithLogger(logger),
	}
	return finder.New(connector, append(opts, extra...)...), nil
}
