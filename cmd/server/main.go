package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/tasukuchiba/message_board/internal/auth"
	"github.com/tasukuchiba/message_board/internal/handlers"
	"github.com/tasukuchiba/message_board/internal/storage"
	"github.com/tasukuchiba/message_board/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	mintFor := flag.String("mint-token", "", "print a bootstrap custom token for the given uid and exit")
	mintTTL := flag.Duration("mint-ttl", time.Hour, "lifetime of the minted custom token")
	flag.Parse()

	// .envファイルがあれば読み込む
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	issuer := auth.NewIssuer([]byte(config.TokenSigningKey), config.SessionTTL)
	if *mintFor != "" {
		token, err := issuer.MintCustomToken(*mintFor, *mintTTL)
		if err != nil {
			return fmt.Errorf("mint custom token: %w", err)
		}
		fmt.Println(token)
		return nil
	}

	// ストレージの初期化
	store, cleanup, err := initStorage(config, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// WebSocket Hubの初期化と起動
	hub := websocket.NewHub(store, log)
	go hub.Run()

	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handlers.NewRouter(store, hub, issuer, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", server.Addr, "storage", config.StorageType)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// initStorage は設定に基づいてストレージを初期化する
func initStorage(config Config, log *slog.Logger) (storage.Storage, func(), error) {
	switch config.StorageType {
	case "postgres":
		databaseURL, err := postgresURL(config)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewPostgresStorage(databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		log.Info("Using PostgreSQL storage")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing database connection", "error", err)
			}
		}, nil

	case "badger":
		store, err := storage.NewBadgerStorage(config.BadgerDir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger at %s: %w", config.BadgerDir, err)
		}
		log.Info("Using Badger storage", "dir", config.BadgerDir)
		return store, func() {
			log.Info("Closing BadgerDB...")
			if err := store.Close(); err != nil {
				log.Error("Error closing badger", "error", err)
			}
		}, nil

	case "memory", "":
		log.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORAGE_TYPE %q", config.StorageType)
}

// postgresURL はDATABASE_URLを返す。なければ個別の環境変数から組み立てる（ECS + Secrets Manager対応）
func postgresURL(config Config) (string, error) {
	if config.DatabaseURL != "" {
		return config.DatabaseURL, nil
	}
	if config.DBHost == "" || config.DBUsername == "" || config.DBPassword == "" || config.DBName == "" {
		return "", errors.New("DATABASE_URL or DB_HOST/DB_USERNAME/DB_PASSWORD/DB_NAME is required when STORAGE_TYPE=postgres")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require",
		config.DBUsername, config.DBPassword, config.DBHost, config.DBPort, config.DBName), nil
}
