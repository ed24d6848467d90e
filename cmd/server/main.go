package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"media-fetch-service/internal/config"
	"media-fetch-service/internal/fetch"
	"media-fetch-service/internal/notify"
	"media-fetch-service/internal/queue"
	"media-fetch-service/internal/repository/filestore"
	"media-fetch-service/internal/repository/postgresql"
	"media-fetch-service/internal/repository/rediscache"
	"media-fetch-service/internal/service"
	httptransport "media-fetch-service/internal/transport/http"
	"media-fetch-service/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	if err := os.MkdirAll(cfg.DownloadRoot, 0o755); err != nil {
		log.Fatalf("download root: %v", err)
	}
	sweepWorkdirs(cfg.DownloadRoot)

	// Redis: advisory cache tier, optional
	var cache service.RecordCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[main] redis unreachable, cache tier disabled: %v", err)
		} else {
			cache = rediscache.New(rdb)
		}
	}

	// Postgres: document-store tier, optional
	var primary service.DocumentStore
	if cfg.PostgresDSN != "" {
		pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Printf("[main] postgres unreachable, document-store tier disabled: %v", err)
		} else {
			defer pool.Close()
			primary = postgresql.NewRecordRepository(pool)
		}
	}

	store := service.NewPersistence(cache, primary, filestore.New(cfg.RecordsFile))

	var notifier notify.Notifier = notify.NewLog()
	if cfg.NotifyURL != "" {
		notifier = notify.NewWebhook(cfg.NotifyURL)
	}

	jobQueue := queue.NewMemory(cfg.QueueDepth)
	slots := worker.NewAdmission(cfg.MaxConcurrent)

	processor := worker.NewProcessor(
		fetch.NewYtDlp(cfg.YtDlpPath),
		fetch.NewSpotDL(cfg.SpotDLPath),
		store, notifier, slots,
		worker.ProcessorConfig{DownloadRoot: cfg.DownloadRoot},
	)
	dispatcher := worker.NewDispatcher(
		jobQueue, slots, processor, store, notifier,
		cfg.DefaultTimeout, cfg.PollInterval,
	)
	go dispatcher.Run(ctx)

	jobSvc := service.NewJobService(store, jobQueue, slots)
	handler := httptransport.NewHandler(jobSvc)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httptransport.Routes(handler)}
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Printf("[main] server started: addr=%s concurrency=%d default_timeout=%s root=%s",
		cfg.HTTPAddr, cfg.MaxConcurrent, cfg.DefaultTimeout, cfg.DownloadRoot)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http: %v", err)
	}

	log.Println("[main] server stopped")
}

// sweepWorkdirs removes per-job directories left behind by a previous run.
func sweepWorkdirs(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		log.Printf("[main] sweep %s error=%v", root, err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			log.Printf("[main] sweep %s error=%v", e.Name(), err)
		}
	}
}
