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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"laundry-admin-backend/config"
	"laundry-admin-backend/internal/api"
	"laundry-admin-backend/internal/auth"
	"laundry-admin-backend/internal/db"
	"laundry-admin-backend/internal/events"
	"laundry-admin-backend/internal/lifecycle"
	"laundry-admin-backend/internal/mw"
	"laundry-admin-backend/internal/notification"
	"laundry-admin-backend/internal/orders"
	"laundry-admin-backend/internal/scheduler"
	"laundry-admin-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	setupLogging(cfg.Log)
	log.Printf("configuration loaded from %s (store driver %s)", configPath, cfg.Store.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}

	publisher := openPublisher(cfg.Events)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("failed to close event publisher: %v", err)
		}
	}()

	responses := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)
	feed := notification.NewFeed(cfg.Machines.NoticeWindow)
	dispatcher := &notification.Dispatcher{
		Feed:      feed,
		Publisher: publisher,
		Changed:   responses.Invalidate,
	}

	var webpushOptions *webpush.Options
	if cfg.PushEnabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
		pool.Start(ctx)
		dispatcher.Pool = pool
	} else {
		log.Warn("VAPID keys are not configured; web push is disabled")
	}

	machines := lifecycle.NewManager(appStore, dispatcher, lifecycle.Options{
		CycleSeconds: cfg.Machines.CycleSeconds,
		TickInterval: cfg.Machines.TickInterval,
	})
	if _, err := machines.Restore(ctx); err != nil {
		log.Printf("failed to restore machine countdowns: %v", err)
	}

	sched, err := scheduler.New(machines, cfg.Machines.ReconcileSchedule)
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	sched.Start()

	handler := api.NewHandler(api.Deps{
		Store:    appStore,
		Orders:   orders.NewService(appStore, machines, publisher),
		Machines: machines,
		Tokens:   auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Feed:     feed,
		WebPush:  webpushOptions,
	})
	router := api.NewRouter(handler, api.RouterOptions{
		RateLimit:      rate.Limit(cfg.Server.RateLimitPerSec),
		RateBurst:      cfg.Server.RateBurst,
		CacheTTL:       time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Responses:      responses,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		log.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server Shutdown: %v", err)
	}
	sched.Stop()
	machines.Shutdown()
	cancel()

	log.Println("Server gracefully stopped")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("unknown log level %q; using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == "memory" {
		log.Printf("using the in-memory store with a %s read delay", cfg.Store.MockDelay)
		return store.NewMemoryStore(store.DemoData(), cfg.Store.MockDelay), nil
	}
	gormDB, err := db.Init(cfg)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(gormDB), nil
}

func openPublisher(cfg config.EventsConfig) events.Publisher {
	if len(cfg.Brokers) == 0 {
		return events.NopPublisher{}
	}
	p, err := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		log.Printf("Kafka is unavailable, events are disabled: %v", err)
		return events.NopPublisher{}
	}
	log.Printf("publishing events to %s on %v", cfg.Topic, cfg.Brokers)
	return p
}
