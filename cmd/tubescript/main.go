package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/ewerx/tubescript/internal/cache"
	"github.com/ewerx/tubescript/internal/config"
	"github.com/ewerx/tubescript/internal/session"
	"github.com/ewerx/tubescript/internal/transcripts"
	"github.com/ewerx/tubescript/internal/tube"
	"github.com/ewerx/tubescript/internal/tubescript"
	"github.com/ewerx/tubescript/internal/ytapi"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR]: loading configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	store, err := cache.NewRedis(ctx, cfg.RedisAddr())
	if err != nil {
		log.Fatalf("[ERROR]: connecting to redis at %s: %v", cfg.RedisAddr(), err)
	}
	log.Printf("[INFO]: connected to redis at %s", cfg.RedisAddr())

	sess, err := session.New(cfg.ProxyURL)
	if err != nil {
		log.Fatalf("[ERROR]: creating youtube session: %v", err)
	}

	scraper := &tube.Client{Session: sess}
	api := ytapi.New(ctx, ytapi.TokenSource(
		ctx,
		cfg.OAuthClientID,
		cfg.OAuthClientSecret,
		cfg.OAuthRefreshToken,
	))

	server := &tubescript.Server{
		Tube: scraper,
		Transcripts: &transcripts.Service{
			API:    api,
			Public: scraper,
			Cache:  store,
			TTL:    cfg.CacheTTL,
		},
		Cache: store,
		TTL:   cfg.CacheTTL,
	}
	app := server.App()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("[INFO]: listening on port %s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Println("[INFO]: shutting down")
		return app.Shutdown()
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("[ERROR]: %v", err)
	}
}
