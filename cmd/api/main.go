package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/placard-watch/internal/application"
	appanalysis "github.com/bryanwahyu/placard-watch/internal/application/analysis"
	"github.com/bryanwahyu/placard-watch/internal/application/review"
	"github.com/bryanwahyu/placard-watch/internal/config"
	domain "github.com/bryanwahyu/placard-watch/internal/domain/verdict"
	aiclient "github.com/bryanwahyu/placard-watch/internal/infra/ai/openai"
	"github.com/bryanwahyu/placard-watch/internal/infra/evidence"
	"github.com/bryanwahyu/placard-watch/internal/infra/httpserver"
	filestore "github.com/bryanwahyu/placard-watch/internal/infra/store/file"
	mysqlstore "github.com/bryanwahyu/placard-watch/internal/infra/store/mysql"
	pgstore "github.com/bryanwahyu/placard-watch/internal/infra/store/postgres"
	"github.com/bryanwahyu/placard-watch/internal/logging"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger("placard-watch", cfg.Log.Level)
	ctx := context.Background()

	// violation store
	var repo domain.Repository
	switch cfg.Store.Backend {
	case "mysql":
		db, err := mysqlstore.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Error("mysql connect error", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = mysqlstore.NewViolationRepository(db)
	case "postgres":
		db, err := pgstore.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Error("postgres connect error", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = pgstore.NewViolationRepository(db)
	default:
		store, err := filestore.New(cfg.Store.Path)
		if err != nil {
			logger.Error("file store init error", "error", err)
			os.Exit(1)
		}
		repo = store
	}

	// evidence image store
	var evStore domain.EvidenceStore
	if cfg.Evidence.Backend == "minio" {
		m := cfg.Evidence.Minio
		evStore, err = evidence.NewMinioStore(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
		if err != nil {
			logger.Error("minio init error", "error", err)
			os.Exit(1)
		}
	} else {
		evStore, err = evidence.NewLocalStore(cfg.Evidence.Path)
		if err != nil {
			logger.Error("evidence store init error", "error", err)
			os.Exit(1)
		}
	}

	clock := application.SystemClock{}
	reviews := review.NewManager(repo, clock, cfg.SessionTTL())

	svc := &appanalysis.Service{
		Classifier: aiclient.NewClient(cfg.Classifier.Model, cfg.ReferenceDate()),
		Evidence:   evStore,
		Reviews:    reviews,
		Clock:      clock,
		Logger:     logger,
		Timeout:    cfg.ClassifierTimeout(),
	}

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, reviews, repo, evStore, cfg.Credential, logger))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
