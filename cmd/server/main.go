package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loyeleye/multiplayer-yoruba/internal/chatbot"
	"github.com/loyeleye/multiplayer-yoruba/internal/dictionary"
	"github.com/loyeleye/multiplayer-yoruba/internal/httpapi"
	"github.com/loyeleye/multiplayer-yoruba/internal/realtime"
	"github.com/loyeleye/multiplayer-yoruba/internal/service"
)

func main() {
	// A missing .env is fine; env vars may come from the environment proper.
	_ = godotenv.Load()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serve(ctx context.Context, cfg *Config) error {
	log, err := newLogger(cfg.verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	dict, err := dictionary.Load(os.DirFS(cfg.wordsDir))
	if err != nil {
		return err
	}
	log.Info("dictionary loaded",
		zap.Int("words", dict.Len()), zap.Strings("themes", dict.Categories()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(log)
	svc := service.New(ctx, log, hub, dict)
	bot := chatbot.New(log, cfg.botURL)

	srv := &http.Server{
		Addr:              cfg.addr(),
		Handler:           httpapi.SetupRoutes(log, hub, svc, bot, cfg.publicURL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		svc.Inbox() <- service.Shutdown{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
