package main

import (
	"context"
	"database/sql"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"loanconsole/internal/audit"
	"loanconsole/internal/history"
	"loanconsole/internal/ledger"
	"loanconsole/internal/notify"
	"loanconsole/internal/platform/config"
	"loanconsole/internal/platform/httpserver"
	"loanconsole/internal/platform/logger"
	"loanconsole/internal/platform/opmode"
	platformredis "loanconsole/internal/platform/redis"
	"loanconsole/internal/querycache"
	"loanconsole/internal/reconcile/metrics"
	"loanconsole/internal/reconcile/retry"
	"loanconsole/internal/reconcile/service"
	"loanconsole/internal/reconcile/store/failed"
	"loanconsole/internal/reconcile/store/pending"
	httptransport "loanconsole/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pendingStore := pending.New(cfg.ConfirmDisplay, cfg.FailedDisplay)
	defer pendingStore.Close()

	failedStore, cleanup, err := buildFailedStore(cfg, log)
	if err != nil {
		log.Fatalf("build failed-action store: %v", err)
	}
	defer cleanup()
	if err := failedStore.Load(ctx); err != nil {
		log.Fatalf("load failed-action store: %v", err)
	}

	historyStore := history.New(cfg.RecentCustomersPath)
	if err := historyStore.Load(ctx); err != nil {
		log.Fatalf("load recent customers: %v", err)
	}

	ledgerClient := ledger.New(cfg.LedgerBaseURL, cfg.LedgerTimeout)
	accountCache := querycache.New(ledgerClient, cfg.AccountCacheTTL)

	auditStore, auditCleanup := buildAuditStore(cfg, log)
	defer auditCleanup()
	auditPublisher, auditWorker := audit.NewPipeline(auditStore, 256, log)

	bus := retry.NewBus()
	svc, err := service.New(pendingStore, failedStore, ledgerClient, bus,
		service.WithInvalidator(accountCache),
		service.WithNotifier(notify.NewLogNotifier(log)),
		service.WithAudit(auditPublisher, log),
		service.WithMetrics(metrics.New()),
		service.WithLogger(log),
	)
	if err != nil {
		log.Fatalf("build mutation service: %v", err)
	}
	svc.RegisterRetryHandlers()

	mode := opmode.New(cfg.ReadOnly)
	handler := httptransport.New(svc, failedStore, pendingStore, accountCache,
		historyStore, mode, ledgerClient, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	log.Printf("starting loanconsole on %s (ledger %s)", cfg.Addr, cfg.LedgerBaseURL)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// buildFailedStore picks the durable backend: Postgres when configured,
// then Redis, falling back to the JSON state file.
func buildFailedStore(cfg config.Server, log *stdlog.Logger) (failed.Store, func(), error) {
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		if _, err := db.Exec(failed.Schema); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Printf("failed-action store: postgres")
		return failed.NewPostgres(db, cfg.FailedActionCap, cfg.FailedActionTTL), func() { db.Close() }, nil
	}

	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		log.Printf("failed-action store: redis")
		return failed.NewRedis(client.Client, cfg.FailedActionCap, cfg.FailedActionTTL),
			func() { client.Close() }, nil
	}

	log.Printf("failed-action store: file %s", cfg.FailedActionsPath)
	return failed.NewFile(cfg.FailedActionsPath, cfg.FailedActionCap, cfg.FailedActionTTL),
		func() {}, nil
}

// buildAuditStore publishes the mutation trail to Kafka when brokers are
// configured, otherwise keeps it in memory.
func buildAuditStore(cfg config.Server, log *stdlog.Logger) (audit.Store, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewInMemoryStore(), func() {}
	}
	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Printf("kafka audit sink unavailable, using in-memory store: %v", err)
		return audit.NewInMemoryStore(), func() {}
	}
	log.Printf("audit sink: kafka topic %s", cfg.KafkaTopic)
	return sink, sink.Close
}
