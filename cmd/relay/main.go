package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/chesko21/tiktok-live-connector/internal/catalog"
	"github.com/chesko21/tiktok-live-connector/internal/config"
	"github.com/chesko21/tiktok-live-connector/internal/handler"
	"github.com/chesko21/tiktok-live-connector/internal/hub"
	"github.com/chesko21/tiktok-live-connector/internal/registry"
	"github.com/chesko21/tiktok-live-connector/internal/service"
	"github.com/chesko21/tiktok-live-connector/internal/sink"
	"github.com/chesko21/tiktok-live-connector/internal/upstream/tiktok"
	pkglog "github.com/chesko21/tiktok-live-connector/pkg/log"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "live-relay",
	})
	logger := pkglog.L()

	// Upstream connector
	connector := tiktok.NewClient(tiktok.Config{
		SignAPIKey:     cfg.Upstream.SignAPIKey,
		SignBaseURL:    cfg.Upstream.SignBaseURL,
		WebcastBaseURL: cfg.Upstream.WebcastBaseURL,
		HTTPTimeout:    cfg.Upstream.HTTPTimeout,
	}, logger)

	// Optional Redis snapshot store for the gift catalog
	var snapshot catalog.SnapshotStore
	if cfg.Catalog.RedisAddress != "" {
		redisSnapshot, err := catalog.NewRedisSnapshotStore(cfg.Catalog)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to catalog redis")
		}
		defer redisSnapshot.Close()
		snapshot = redisSnapshot
		logger.Info().Str("addr", cfg.Catalog.RedisAddress).Msg("catalog snapshot store connected")
	}

	// Gift catalog: loaded once at startup, best-effort.
	giftCatalog := catalog.New(connector, snapshot, logger)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Catalog.LoadTimeout)
	if err := giftCatalog.Load(loadCtx); err != nil {
		logger.Warn().Err(err).Msg("failed to fetch gift list, gift metadata degraded")
	}
	cancelLoad()

	// Optional Kafka sink for downstream subscribers
	var eventSink sink.EventSink = sink.Nop{}
	if cfg.Kafka.Brokers != "" {
		confluentSink, err := sink.NewConfluentSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize kafka sink")
		}
		defer confluentSink.Close()
		eventSink = confluentSink
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka sink connected")
	}

	// Broadcast hub
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	// Relay service
	reg := registry.New()
	relay := service.NewRelayService(reg, connector, giftCatalog, wsHub, eventSink, logger)
	defer relay.Shutdown()

	// HTTP surface
	httpHandler := handler.NewHandler(relay)
	wsHandler := handler.NewWSHandler(wsHub, cfg.WebSocket)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	httpHandler.RegisterRoutes(r)
	r.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", addr).
			Str("public_base_url", cfg.Server.PublicBaseURL).
			Int("catalog_entries", giftCatalog.Size()).
			Msg("live relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	logger.Info().Msg("live relay stopped")
}
