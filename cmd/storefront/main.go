package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/bmsinventoryspace-netizen/BMS/internal/catalog"
	"github.com/bmsinventoryspace-netizen/BMS/internal/httpapi"
	"github.com/bmsinventoryspace-netizen/BMS/internal/notify"
	"github.com/bmsinventoryspace-netizen/BMS/internal/order"
	"github.com/bmsinventoryspace-netizen/BMS/internal/session"
	"github.com/bmsinventoryspace-netizen/BMS/internal/unseen"
)

type Config struct {
	HTTPPort        string
	ArticleBaseURL  string
	OrderBaseURL    string
	DealBaseURL     string
	DealPushURL     string
	DealToken       string
	DealSource      string // websocket, kafka or none
	KafkaBrokers    []string
	KafkaTopic      string
	RedisAddr       string
	PollEnabled     bool
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SessionTTL      time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ArticleBaseURL:  getEnv("ARTICLE_SERVICE_URL", "http://localhost:8000"),
		OrderBaseURL:    getEnv("ORDER_SERVICE_URL", "http://localhost:8000"),
		DealBaseURL:     getEnv("DEAL_SERVICE_URL", "http://localhost:8000"),
		DealPushURL:     getEnv("DEAL_PUSH_URL", "ws://localhost:8000/api/ws"),
		DealToken:       getEnv("DEAL_SERVICE_TOKEN", ""),
		DealSource:      getEnv("DEAL_SOURCE", "websocket"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:      getEnv("KAFKA_DEALS_TOPIC", "deal-events"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		PollEnabled:     getEnv("DEAL_POLL_ENABLED", "true") == "true",
		PollInterval:    getDurationEnv("DEAL_POLL_INTERVAL", notify.DefaultPollInterval),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SessionTTL:      getDurationEnv("SESSION_TTL", session.DefaultTTL),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("invalid duration for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()

	// External collaborators
	catalogClient := catalog.NewClient(cfg.ArticleBaseURL, cfg.RequestTimeout)
	submitter := order.NewSubmitter(cfg.OrderBaseURL, cfg.RequestTimeout)

	// Per-session carts
	sessions := session.NewRegistry(catalogClient, cfg.SessionTTL)
	defer sessions.Close()

	// Unseen-deal badge storage: redis when configured, in-memory otherwise
	var store unseen.Store = unseen.NewMemoryStore()
	if cfg.RedisAddr != "" {
		store = unseen.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	hub := unseen.NewHub(store)

	// Notification channel: push backend + poll reconciler fan-in
	var sources []notify.DealSource
	var push *notify.WebsocketSource
	switch cfg.DealSource {
	case "websocket":
		push = notify.NewWebsocketSource(cfg.DealPushURL, cfg.DealToken)
		sources = append(sources, push)
	case "kafka":
		kafkaSource := notify.NewKafkaSource(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer kafkaSource.Close()
		sources = append(sources, kafkaSource)
	case "none":
		// polling only
	default:
		log.Fatalf("unknown DEAL_SOURCE %q", cfg.DealSource)
	}

	// Polling backs up push for deployments whose deal token grants the
	// list endpoint; disable it when the token does not. No viewing hook
	// here: it cannot be process-global with many sessions, and a session
	// with the deals view open acknowledges on opening it, which already
	// keeps the poll from re-flagging that session's badge.
	var reconciler *notify.Reconciler
	if cfg.PollEnabled {
		reconciler = notify.NewReconciler(cfg.DealBaseURL, cfg.DealToken, cfg.PollInterval, hub, nil)
	}
	channel := notify.NewChannel(hub, reconciler, sources...)

	notifyCtx, stopNotify := context.WithCancel(context.Background())
	defer stopNotify()
	channel.Start(notifyCtx)

	// Handlers
	catalogHandler := httpapi.NewCatalogHandler(catalogClient, cfg.RequestTimeout)
	cartHandler := httpapi.NewCartHandler(sessions)
	orderHandler := httpapi.NewOrderHandler(sessions, submitter, cfg.RequestTimeout)
	notificationsHandler := httpapi.NewNotificationsHandler(hub, pushOrNil(push))

	// Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(httpapi.SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogHandler.List)
			r.Post("/refresh", catalogHandler.Refresh)
			r.Post("/{article_id}/view", catalogHandler.TrackView)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{article_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{article_id}", cartHandler.RemoveItem)
		})
		r.Post("/orders", orderHandler.Submit)
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/unseen", notificationsHandler.Unseen)
			r.Post("/acknowledge", notificationsHandler.Acknowledge)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopNotify()
	channel.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

// pushOrNil keeps the handler's interface value nil when no websocket
// backend is configured (a typed nil would report a bogus state).
func pushOrNil(push *notify.WebsocketSource) httpapi.PushStater {
	if push == nil {
		return nil
	}
	return push
}
