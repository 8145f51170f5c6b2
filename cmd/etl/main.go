package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roth-mh/nyt-comp/internal/config"
	"github.com/roth-mh/nyt-comp/internal/etl"
	"github.com/roth-mh/nyt-comp/internal/events"
	"github.com/roth-mh/nyt-comp/internal/persistence/postgres"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	publisher := events.ForBrokers(cfg.KafkaBrokers)
	defer publisher.Close()

	store := postgres.NewStore(pool)
	loader := etl.NewLoader(store, etl.WithScorePublisher(publisher))
	extractor := etl.NewProviderExtractor(etl.ProviderConfig{
		BaseURL:     cfg.ProviderBaseURL,
		Cookie:      cfg.ProviderCookie,
		MaxAttempts: cfg.FetchMaxAttempts,
		BaseDelay:   cfg.FetchBaseDelay,
		Timeout:     cfg.FetchTimeout,
	})
	runner := etl.NewRunner(extractor, loader, etl.WithRunPublisher(publisher))

	// One-shot by default; a positive poll interval turns this into a
	// long-running scheduler with its own metrics listener.
	if cfg.ETLPollInterval <= 0 {
		summary, err := runner.Run(ctx)
		if err != nil {
			log.Fatalf("etl run failed: %v", err)
		}
		log.Printf("etl run finished: %d inserted, %d updated, %d skipped", summary.Inserted, summary.Updated, summary.Skipped)
		return
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Printf("etl metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	ticker := time.NewTicker(cfg.ETLPollInterval)
	defer ticker.Stop()

	log.Printf("etl scheduler started (interval=%s)", cfg.ETLPollInterval)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ctx.Done():
			goto shutdown
		case <-ticker.C:
			summary, err := runner.Run(ctx)
			if err != nil {
				log.Printf("etl run failed: %v", err)
			} else {
				log.Printf("etl run finished: %d inserted, %d updated, %d skipped", summary.Inserted, summary.Updated, summary.Skipped)
			}
		case <-stop:
			log.Println("etl scheduler received shutdown signal")
			cancel()
			goto shutdown
		}
	}

shutdown:
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
}
