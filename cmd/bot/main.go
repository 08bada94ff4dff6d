package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivanoskov/financebot/internal/bot"
	"github.com/ivanoskov/financebot/internal/config"
	"github.com/ivanoskov/financebot/internal/repository"
	"github.com/ivanoskov/financebot/internal/server"
	"github.com/ivanoskov/financebot/internal/service"
	"github.com/ivanoskov/financebot/internal/state"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	repo, err := newRepository(cfg)
	if err != nil {
		slog.Error("failed to init repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	tracker := service.NewExpenseTracker(repo, cfg.DefaultCurrency)
	states := state.NewMemoryStore(cfg.StateTTL)

	b, err := bot.NewBot(cfg.TelegramToken, tracker, states)
	if err != nil {
		slog.Error("failed to init bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Mode == config.ModePolling {
		go states.Run(ctx, cfg.StateSweepInterval)
		slog.Info("starting bot", "mode", cfg.Mode)
		if err := b.Start(ctx); err != nil {
			slog.Error("bot stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.WebhookURL != "" {
		if err := b.RegisterWebhook(cfg.WebhookURL); err != nil {
			slog.Error("failed to register webhook", "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(cfg.ListenAddr, b)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting webhook server", "addr", cfg.ListenAddr)
		return srv.Start()
	})
	g.Go(func() error {
		states.Run(ctx, cfg.StateSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newRepository выбирает бэкенд: Supabase, если задан, иначе локальный SQLite
func newRepository(cfg *config.Config) (repository.Repository, error) {
	if cfg.SupabaseURL != "" {
		return repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey)
	}
	return repository.NewSQLiteRepository(cfg.SQLitePath)
}
