package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cK0nrad/tec-fetcher/api"
	"github.com/cK0nrad/tec-fetcher/fetcher"
	"github.com/cK0nrad/tec-fetcher/schedule"
	"github.com/cK0nrad/tec-fetcher/sink"
	"github.com/cK0nrad/tec-fetcher/store"
)

var rootCmd = &cobra.Command{
	Use:   "tec-fetcher",
	Short: "Realtime transit fleet enricher",
	Long: "Fetches a GTFS-realtime vehicle feed, enriches every vehicle with\n" +
		"schedule context and serves the fleet over HTTP, WebSocket and a\n" +
		"database sink.",
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

type config struct {
	feedURL     string
	ip          string
	port        string
	secret      string
	databaseURL string
	gtfsDir     string
}

// configFromEnv reads the runtime configuration. Every variable
// except GTFS_DIR is required; a missing one is a startup failure.
func configFromEnv() (config, error) {
	cfg := config{gtfsDir: "gtfs"}

	for _, v := range []struct {
		name     string
		target   *string
		required bool
	}{
		{"FEED_URL", &cfg.feedURL, true},
		{"IP", &cfg.ip, true},
		{"PORT", &cfg.port, true},
		{"SECRET", &cfg.secret, true},
		{"DATABASE_URL", &cfg.databaseURL, true},
		{"GTFS_DIR", &cfg.gtfsDir, false},
	} {
		value, found := os.LookupEnv(v.name)
		if !found || value == "" {
			if v.required {
				return config{}, fmt.Errorf("missing %s in environment", v.name)
			}
			continue
		}
		*v.target = value
	}

	return cfg, nil
}

// openSink picks the storage backend from the connection string
// scheme: postgres:// URLs get the Postgres sink, anything else is
// treated as a SQLite path.
func openSink(databaseURL string) (sink.Sink, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return sink.NewPostgres(databaseURL)
	}
	return sink.NewSQLite(databaseURL)
}

func run(cmd *cobra.Command, _ []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}

	db, err := openSink(cfg.databaseURL)
	if err != nil {
		return fmt.Errorf("opening sink: %w", err)
	}

	ix, err := schedule.Load(cfg.gtfsDir)
	if err != nil {
		return err
	}
	logger.Info("schedule loaded", zap.String("dir", cfg.gtfsDir))

	st := store.New(logger.Named("store"), cfg.secret, cfg.gtfsDir, ix, db)

	go fetcher.New(logger.Named("fetcher"), st, cfg.feedURL).Run(cmd.Context())

	return api.New(logger.Named("api"), st).ListenAndServe(net.JoinHostPort(cfg.ip, cfg.port))
}
