// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"evaluation-workers/internal/common/aws"
	"evaluation-workers/internal/common/camunda"
	"evaluation-workers/internal/common/config"
	"evaluation-workers/internal/common/database"
	"evaluation-workers/internal/common/logger"
	"evaluation-workers/internal/common/observability"
	"evaluation-workers/internal/evaluation/extract"
	"evaluation-workers/internal/evaluation/knowledge"
	"evaluation-workers/internal/evaluation/scoring"

	ed "evaluation-workers/internal/workers/evaluation/evaluate-document"
	ser "evaluation-workers/internal/workers/evaluation/send-evaluation-report"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Knowledge base ---
	kb, closeKB, err := loadKnowledgeBase(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("knowledge base load failed", zap.Error(err))
	}
	defer closeKB()
	zapLog.Info("Knowledge base loaded",
		zap.String("source", cfg.Evaluation.KnowledgeBase.Source),
		zap.String("version", kb.Version()),
		zap.Int("domains", kb.DomainCount()),
		zap.Int("criteria", kb.CriteriaCount()),
	)

	policy, err := scoring.ParsePolicy(cfg.Evaluation.MatchPolicy, cfg.Evaluation.MetThreshold, cfg.Evaluation.PartialThreshold)
	if err != nil {
		zapLog.Fatal("invalid match policy", zap.Error(err))
	}
	engine := scoring.NewEngine(policy)

	// --- Extraction, optionally cached in Redis ---
	var extractor extract.Extractor = extract.NewRegistry(extract.PDF{
		OnPageError: func(page int, err error) {
			zapLog.Warn("pdf page unreadable, scoring without it", zap.Int("page", page), zap.Error(err))
		},
	})
	if cfg.Evaluation.ExtractCache.Enabled {
		redis := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		ttl := time.Duration(cfg.Evaluation.ExtractCache.TTLSeconds) * time.Second
		extractor = extract.NewCachedExtractor(extractor, redis.Client, ttl, log)
	}

	// --- AWS delivery clients ---
	var sesClient aws.SESAPI
	var snsClient aws.SNSAPI
	if cfg.Integrations.AWS.SES.Enabled || cfg.Integrations.AWS.SNS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Integrations.AWS.SES.Enabled {
			sesClient = aws.NewSESClient(awsCfg)
		}
		if cfg.Integrations.AWS.SNS.Enabled {
			snsClient = aws.NewSNSClient(awsCfg)
		}
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, cfg.Camunda)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	var workers []*camunda.Worker

	if config.IsWorkerEnabled(cfg, ed.TaskType) {
		edHandler, err := ed.NewHandler(ed.LoadConfig(cfg), kb, engine, extractor, log)
		if err != nil {
			zapLog.Fatal("evaluate-document handler", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zeebe.Zeebe(), ed.TaskType, config.GetWorkerConfig(cfg, ed.TaskType), edHandler, obs, log))
	} else {
		zapLog.Info("Worker disabled", zap.String("taskType", ed.TaskType))
	}

	if config.IsWorkerEnabled(cfg, ser.TaskType) {
		serHandler, err := ser.NewHandler(ser.LoadConfig(cfg), sesClient, snsClient, log)
		if err != nil {
			zapLog.Fatal("send-evaluation-report handler", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zeebe.Zeebe(), ser.TaskType, config.GetWorkerConfig(cfg, ser.TaskType), serHandler, obs, log))
	} else {
		zapLog.Info("Worker disabled", zap.String("taskType", ser.TaskType))
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// loadKnowledgeBase returns the knowledge base and a cleanup for any
// connection opened to read it.
func loadKnowledgeBase(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*knowledge.KnowledgeBase, func(), error) {
	noop := func() {}

	switch cfg.Evaluation.KnowledgeBase.Source {
	case config.KnowledgeBaseFile:
		kb, err := knowledge.LoadFile(cfg.Evaluation.KnowledgeBase.Path)
		return kb, noop, err

	case config.KnowledgeBasePostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, noop, err
		}
		err = retryWithBackoff(func() error {
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			pg.Close()
			return nil, noop, err
		}
		zapLog.Info("PostgreSQL connected successfully")

		kb, err := knowledge.LoadFromPostgres(ctx, pg.DB)
		return kb, func() { pg.Close() }, err

	default:
		return knowledge.Default(), noop, nil
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
