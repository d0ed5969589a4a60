package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognicore/termex/internal/logger"
	"github.com/cognicore/termex/internal/server"
	"github.com/cognicore/termex/pkg/termex/config"
	"github.com/cognicore/termex/pkg/termex/store"
	"github.com/cognicore/termex/pkg/termex/store/memstore"
	"github.com/cognicore/termex/pkg/termex/store/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (optional)")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		dbPath     = flag.String("db", "", "SQLite database path (overrides config, in-memory when empty)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: "termex-server"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := cfg.Build(logger.Named(log, "extractor"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build extractor")
	}

	var st store.Store
	if cfg.DBPath != "" {
		st, err = sqlite.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open database")
		}
	} else {
		log.Warn().Msg("no database configured, runs are kept in memory")
		st = memstore.New()
	}
	defer st.Close()

	srv := server.New(server.Options{
		Addr:         cfg.HTTP.Addr,
		Store:        st,
		Extractor:    comp.Extractor,
		Logger:       logger.Named(log, "http"),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Sort:         comp.Sort,
	})
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}
