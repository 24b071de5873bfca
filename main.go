package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/desktools/assets"
	"github.com/robalobadob/desktools/internal/bmi"
	"github.com/robalobadob/desktools/internal/config"
	"github.com/robalobadob/desktools/internal/console"
	"github.com/robalobadob/desktools/internal/guessing"
	"github.com/robalobadob/desktools/internal/history"
	"github.com/robalobadob/desktools/internal/httpserver"
	"github.com/robalobadob/desktools/internal/store"
	"github.com/robalobadob/desktools/internal/weather"
)

const usage = `usage: desktools [command]

commands:
  guess     number-guessing game (default)
  bmi       body-mass-index calculator
  weather   current weather by city (wttr.in)
  serve     HTTP play API`

func main() {
	cmd := "guess"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel, cmd != "serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := console.New(os.Stdin, os.Stdout)
	switch cmd {
	case "guess":
		var rec guessing.Recorder
		if db, err := openHistory(cfg.DBPath); err != nil {
			log.Warn().Err(err).Msg("history unavailable; rounds will not be recorded")
		} else {
			defer db.Close()
			rec = history.NewStore(db)
		}
		err = guessing.New(p, rec).Run(ctx)
	case "bmi":
		err = bmi.New(p).Run(ctx)
	case "weather":
		client := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout)
		err = weather.NewCommand(p, client, cfg.ReportDir).Run(ctx)
	case "serve":
		err = serve(cfg)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func serve(cfg config.Config) error {
	db, err := openHistory(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := httpserver.New(cfg, store.NewMemoryStore(), history.NewStore(db))
	log.Info().Str("port", cfg.Port).Msg("starting desktools server")
	return srv.Start(":" + cfg.Port)
}

func openHistory(path string) (*sql.DB, error) {
	db, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	if err := history.Migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// setupLogging applies LOG_LEVEL; interactive commands log human-readable lines
// to stderr so stdout stays clean for the game.
func setupLogging(level string, interactive bool) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if interactive {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
