package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quickly-poll/ballot"
	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/controller"
	"github.com/danielhkuo/quickly-poll/db"
	"github.com/danielhkuo/quickly-poll/metrics"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/pubsub"
	"github.com/danielhkuo/quickly-poll/ratelimit"
	"github.com/danielhkuo/quickly-poll/router"
)

func main() {
	var err error

	// Load .env before reading flags so env fallbacks see it
	if err := cliparse.LoadEnv(""); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if driver == "sqlite" {
		// A single SQLite file takes one writer at a time
		dbConn.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := dbConn.PingContext(ctx); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Rate limiting
	clock := clockwork.NewRealClock()
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), clock).WithObserver(m)
	go limiter.RunJanitor(ctx, cfg.SweepInterval)

	// Live results
	hub := pubsub.NewHub()
	go hub.Run(ctx)

	var notifier pubsub.Notifier = hub
	if cfg.RedisURL != "" {
		pub, err := pubsub.NewRedisPublisher(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer pub.Close()

		// Local viewers also hear remote changes through the relay. The
		// duplicate local signal coalesces in the hub.
		notifier = pubsub.Fanout{hub, pub}
		go pub.Relay(ctx, hub)
		slog.Info("Live results shared through redis")
	}

	repo := db.NewSQLRepository(dbConn)
	policy := ballot.Policy{
		MaxRequests:    cfg.VoteLimit,
		Window:         cfg.VoteWindow,
		MaxOptionIndex: ballot.DefaultMaxOptionIndex,
	}

	ctrl := controller.NewPollController(controller.Deps{
		Repo:      repo,
		Validator: ballot.NewValidator(repo, limiter, clock, policy),
		Notifier:  notifier,
		Clock:     clock,
		Metrics:   m,
		Logger:    slog.Default(),
	})

	// Create router
	mux := router.NewRouter(ctrl, hub, reg, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "vote_limit", cfg.VoteLimit, "vote_window", cfg.VoteWindow.String())
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
