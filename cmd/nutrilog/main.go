// cmd/nutrilog/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"nutrilog/internal/config"
	"nutrilog/internal/db"
	"nutrilog/internal/db/memdb"
	"nutrilog/internal/gpt"
	"nutrilog/internal/metrics"
	"nutrilog/internal/server"
	"nutrilog/internal/service"
	"nutrilog/internal/store"
	"nutrilog/pkg/logger"
)

func main() {
	var seedPath string
	flag.StringVar(&seedPath, "seed", "", "load users and foods from this JSON file, then exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", err)
	}

	l := logger.ForEnv(cfg.Env)
	defer l.Sync()
	l.Info("Starting nutrilog...")

	if err := cfg.Validate(); err != nil {
		l.Fatal("Invalid configuration: ", err)
	}
	if cfg.Env != "development" && cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		st   store.Store
		ping func(ctx context.Context) error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		l.Warn("Using in-memory storage, data is lost on restart")
		st = memdb.New()
	default:
		database := connectWithRetry(cfg.DB, l)
		defer database.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx)
		cancel()
		if err != nil {
			l.Fatal("Failed to migrate database: ", err)
		}
		st, ping = database, database.Ping
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := service.New(st, l).
		WithMetrics(m).
		WithPageSize(cfg.Pagination.Limit)

	if seedPath != "" {
		if cfg.Storage.Driver == config.DriverMemory {
			l.Warn("Seeding in-memory storage, the data ends with this process")
		}
		if err := seed(svc, seedPath); err != nil {
			l.Fatal("Failed to seed: ", err)
		}
		return
	}

	// Suggestions degrade gracefully without a key.
	if cfg.GPT.APIKey != "" {
		svc.WithCoach(gpt.NewClientWithBaseURL(cfg.GPT.APIKey, cfg.GPT.BaseURL).WithModel(cfg.GPT.Model))
	} else {
		l.Warn("GPT API key is not configured, suggestions are disabled")
	}

	router := server.NewRouter(svc, server.RouterConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		Logger:    l,
		Metrics:   m,
		Gatherer:  reg,
		Ping:      ping,
	})

	httpServer := server.NewServer(cfg.Server.Port, router, l)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}

	l.Info("nutrilog stopped")
}

func seed(svc *service.Service, path string) error {
	data, err := service.ReadSeedFile(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err = svc.Seed(ctx, *data)
	return err
}

func connectWithRetry(cfg config.Database, l *logger.Logger) *db.PostgresDB {
	var (
		database *db.PostgresDB
		err      error
	)
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		database, err = db.NewPostgresDB(cfg)
		if err == nil {
			return database
		}
		l.Error("Failed to connect to database, retrying...", err)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	l.Fatal("Failed to connect to database after multiple attempts", err)
	return nil
}
