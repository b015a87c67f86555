package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/parleyweb/parley"
	"github.com/parleyweb/parley/internal/config"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading configuration", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		logger.Error("opening database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	app, err := parley.New(
		parley.WithSqliteDB(db),
		parley.WithLogger(logger),
		parley.WithConfig(cfg),
	)
	if err != nil {
		logger.Error("starting parley", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("listening", "addr", app.Addr())
	if err := http.ListenAndServe(app.Addr(), app.Handler()); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
}
