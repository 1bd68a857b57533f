package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tinyuno/internal/ai"
	"tinyuno/internal/config"
	"tinyuno/internal/game"
	"tinyuno/internal/handlers"
	"tinyuno/internal/logging"
	"tinyuno/internal/room"
	"tinyuno/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.Init(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	var dir storage.Directory = storage.NewMemoryDirectory()
	if cfg.DatabaseURL != "" {
		db, err := storage.New(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		dir = storage.NewStore(db)
		log.Info("using postgres room directory")
	} else {
		log.Info("DATABASE_URL not set, keeping rooms in memory")
	}

	defaults := game.DefaultSettings()
	defaults.MaxPlayers = cfg.MaxPlayers
	defaults.TournamentTarget = cfg.TournamentTarget

	seed := time.Now().UnixNano()
	state := storage.NewStateStore()
	engine := game.NewEngine(state, rand.New(rand.NewSource(seed)))
	policy := ai.NewPolicy(rand.New(rand.NewSource(seed + 1)))
	reg := room.NewRegistry(state, engine, policy, room.Options{
		AIMinDelay: cfg.AIMinDelay,
		AIMaxDelay: cfg.AIMaxDelay,
		Defaults:   defaults,
		Stats:      dir,
		Rooms:      dir,
		Logger:     log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reg.RunJanitor(ctx, time.Hour, cfg.IdleRoomTTL)

	h := handlers.NewHandler(reg, dir, handlers.Options{
		Origins:     cfg.AllowedOrigins,
		SendTimeout: cfg.SendTimeout,
		Defaults:    defaults,
		Commit:      commit,
		BuildDate:   buildDate,
		Logger:      log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("tinyuno listening",
		zap.String("addr", cfg.Addr),
		zap.String("commit", commit),
		zap.String("buildDate", buildDate))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
