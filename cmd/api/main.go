package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/B24023/yoyakusys/internal/app"
	"github.com/B24023/yoyakusys/internal/clock"
	"github.com/B24023/yoyakusys/internal/config"
	"github.com/B24023/yoyakusys/internal/domain"
	"github.com/B24023/yoyakusys/internal/storage/memory"
	"github.com/B24023/yoyakusys/internal/storage/postgres"
	transporthttp "github.com/B24023/yoyakusys/internal/transport/http"
	"github.com/B24023/yoyakusys/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()
	loadEnvFile(logger)

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var repo app.ReservationRepository
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Printf("using in-memory storage backend")
		repo = memory.NewStore()
	default:
		pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(startupCtx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
		if err := migrations.Apply(startupCtx, pool); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		repo = postgres.NewReservationRepository(pool)
	}

	ledger := app.NewLedgerService(repo, clock.NewSystem())

	resources := make([]domain.Resource, 0, len(cfg.Resources))
	for _, r := range cfg.Resources {
		resources = append(resources, domain.Resource{ID: r.ID, Name: r.Name})
	}
	if err := ledger.SeedResources(startupCtx, resources); err != nil {
		log.Fatalf("seed resources: %v", err)
	}

	handler := transporthttp.NewHandler(ledger, cfg, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}

func loadEnvFile(logger *log.Logger) {
	path, err := findEnvFile()
	if err != nil {
		logger.Printf("WARN: failed to locate .env: %v", err)
		return
	}
	if path == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Printf("WARN: failed to open %s: %v", path, err)
		return
	}
	if err := parseEnvFile(logger, file); err != nil {
		logger.Printf("WARN: failed to load %s: %v", path, err)
	} else {
		logger.Printf("loaded env from %s", path)
	}
	_ = file.Close()
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

func parseEnvFile(logger *log.Logger, file *os.File) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		value = trimQuotes(value)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			logger.Printf("WARN: failed to set %s from env file", key)
		}
	}
	return scanner.Err()
}

func trimQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
