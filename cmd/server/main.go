package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brandconnect/brandconnect-be/internal/config"
	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/media"
	"github.com/brandconnect/brandconnect-be/internal/obs"
	"github.com/brandconnect/brandconnect-be/internal/seed"
	"github.com/brandconnect/brandconnect-be/internal/server"
	"github.com/brandconnect/brandconnect-be/internal/storage"
	"github.com/brandconnect/brandconnect-be/internal/storage/memory"
	"github.com/brandconnect/brandconnect-be/internal/storage/mongo"
	"github.com/brandconnect/brandconnect-be/internal/storage/postgres"
)

const serviceName = "brandconnect-api"

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("init tracing: %v", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer store.Close()
	log.Printf("storage backend: %s", cfg.DBType)

	if cfg.SeedDemoData {
		n, err := seed.Seed(ctx, store)
		if err != nil {
			log.Fatalf("seed demo users: %v", err)
		}
		if n > 0 {
			log.Printf("seeded %d demo users", n)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("init event publisher: %v", err)
		}
		publisher = amqpPublisher
		log.Printf("publishing events to exchange %s", cfg.AMQPExchange)
	}
	defer publisher.Close()

	deps := server.Deps{Store: store, Publisher: publisher}
	if cfg.R2.Enabled() {
		uploader, err := media.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			log.Fatalf("init R2 uploader: %v", err)
		}
		deps.Uploader = uploader
	} else {
		log.Println("R2 not configured; avatar uploads disabled")
	}

	srv := server.New(cfg, deps)

	go func() {
		log.Printf("BrandConnect backend listening on %s", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	if err := shutdownTracer(ctxShutdown); err != nil {
		log.Printf("tracer shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DBType {
	case config.DBPostgres:
		s, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DBMongo:
		s, err := mongo.NewStore(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DBMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
