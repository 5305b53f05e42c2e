// Command recur runs the scheduling service: it owns the sqlite store,
// optionally syncs card-file sources on startup, and serves the JSON API.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/dermotcahill/recur/internal/config"
	"github.com/dermotcahill/recur/internal/storage"
	syncsrc "github.com/dermotcahill/recur/internal/sync"
	"github.com/dermotcahill/recur/internal/web"
)

func main() {
	// Flag defaults mirror the config defaults: posflag feeds unchanged flag
	// values into keys the file and environment left unset.
	defaults := config.Default()
	flags := pflag.NewFlagSet("recur", pflag.ExitOnError)
	configPath := flags.String("config", "recur.yaml", "path to the yaml config file")
	flags.String("db_path", defaults.DBPath, "path to the sqlite database file")
	flags.String("listen_addr", defaults.ListenAddr, "host:port for the JSON API")
	flags.String("repos_dir", defaults.ReposDir, "directory git sources are cloned into")
	flags.Int("default_interval_hours", defaults.DefaultIntervalHours, "interval assigned to imported cards")
	flags.Bool("sync_on_start", defaults.SyncOnStart, "sync card-file sources before serving")
	addSource := flags.String("add-source", "", "register a card-file source (path or git URL) and exit")
	sourceKind := flags.String("source-kind", "local", "kind of the source being added: local or git")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if *addSource != "" {
		id, err := db.InsertSource(*addSource, *sourceKind)
		if err != nil {
			slog.Error("failed to register source", "path", *addSource, "error", err)
			os.Exit(1)
		}
		slog.Info("source registered", "id", id, "path", *addSource, "kind", *sourceKind)
		return
	}

	if cfg.SyncOnStart {
		opts := syncsrc.Options{
			ReposDir:             cfg.ReposDir,
			DefaultIntervalHours: cfg.DefaultIntervalHours,
		}
		if err := syncsrc.RunSync(db, opts, time.Now().UTC()); err != nil {
			slog.Error("startup sync failed", "error", err)
			os.Exit(1)
		}
	}

	srv := web.NewServer(db, cfg)
	slog.Info("serving", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
