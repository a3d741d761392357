package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sketchparty/sketchparty-backend/internal/game"
	"github.com/sketchparty/sketchparty-backend/internal/server"
	"github.com/sketchparty/sketchparty-backend/internal/store"
	"github.com/sketchparty/sketchparty-backend/internal/words"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cmd := newCmd(cfg)
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}

func run(ctx context.Context, cfg *Config) error {
	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	bank := words.Default()
	if cfg.wordFile != "" {
		loaded, err := words.LoadCSV(cfg.wordFile)
		if err != nil {
			return fmt.Errorf("load word bank: %w", err)
		}
		bank = loaded
		log.Info().Str("file", cfg.wordFile).Int("words", bank.Len()).Msg("word bank loaded")
	}

	var recorder store.GameRecorder
	if cfg.databaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.databaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		recorder = pg
		log.Info().Msg("game history persistence enabled")
	}

	g := game.New(game.Config{
		RoundDuration:  cfg.roundDuration,
		SettleDelay:    cfg.settleDelay,
		MaxRounds:      cfg.maxRounds,
		MaxPlayers:     cfg.maxPlayers,
		NearbyRadiusKm: cfg.nearbyRadius,
		QueueFreshness: cfg.queueFreshness,
	}, bank, recorder, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.bind, cfg.port),
		Handler:      server.New(g, log).RegisterRoutes(),
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  time.Minute,
		WriteTimeout: 0, // websocket connections stay open
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
