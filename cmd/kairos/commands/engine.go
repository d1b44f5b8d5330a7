package commands

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/wonny/kairos/internal/api/handlers"
	"github.com/wonny/kairos/internal/execution"
	"github.com/wonny/kairos/internal/marketdata"
	"github.com/wonny/kairos/internal/metrics"
	"github.com/wonny/kairos/internal/notify"
	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/internal/risk"
	"github.com/wonny/kairos/internal/store"
	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// engine bundles everything a running command needs.
// run/scan/api가 같은 조립을 공유한다.
type engine struct {
	cfg   *config.Config
	log   *logger.Logger
	rules *strategyconfig.Config

	db    *database.DB
	rdb   *redis.Client
	cache *redis.Cache

	risk     *risk.Manager
	pipeline *pipeline.Pipeline
	hub      *handlers.EventHub

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	intentRepo *store.IntentRepository
	eventRepo  *store.EventRepository
}

// buildEngine wires config, storage and the decision pipeline
func buildEngine(cfg *config.Config, log *logger.Logger) (*engine, error) {
	// 1. Load and validate trading rules
	rules, _, err := strategyconfig.Load(cfg.Engine.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load trading rules: %w", err)
	}

	hash, err := strategyconfig.Hash(rules)
	if err != nil {
		return nil, fmt.Errorf("hash trading rules: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"strategy": rules.Meta.StrategyID,
		"version":  rules.Meta.Version,
		"hash":     hash[:12],
	}).Info("Trading rules loaded")

	// 2. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 3. Connect to Redis (optional, degrades to no-op cache)
	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(rdb, "kairos")

	// 4. Research data providers
	provider := marketdata.NewProvider(db.Pool)
	quotes := marketdata.NewQuoteProvider(db.Pool, rules)

	// 5. Repositories
	signalRepo := store.NewSignalRepository(db.Pool)
	intentRepo := store.NewIntentRepository(db.Pool)
	eventRepo := store.NewEventRepository(db.Pool)

	// 6. Risk manager (portfolio state owner)
	riskMgr := risk.NewManager(rules, log, cfg.Engine.OpeningCash)

	// 7. Broker
	broker, err := buildBroker(cfg, rdb, log)
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, err
	}

	// 8. Notification fanout: log + websocket hub + optional webhook
	hub := handlers.NewEventHub(log)
	fanout := notify.Fanout{notify.NewLogNotifier(log), hub}
	if cfg.Alerts.WebhookURL != "" {
		// Redis 분산 리밋 + 프로세스 로컬 백스톱 (30/min)
		webhookClient := httputil.New(cfg, log).
			WithRateLimiter(redis.NewRateLimiter(rdb, "kairos"), redis.WebhookRateLimit).
			WithLocalRateLimit(rate.Every(2*time.Second), 1)
		fanout = append(fanout, notify.NewWebhookNotifier(webhookClient, cfg.Alerts.WebhookURL, log))
	}

	// 9. Metrics
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// 10. Decision pipeline
	pipe := pipeline.New(pipeline.Deps{
		Rules:     rules,
		Market:    provider,
		Sentiment: provider,
		Predictor: provider,
		Regime:    provider,
		Quotes:    quotes,
		Risk:      riskMgr,
		Broker:    broker,
		Signals:   signalRepo,
		Intents:   intentRepo,
		Events:    eventRepo,
		Notifier:  fanout,
		Metrics:   m,
		Logger:    log,
	})

	return &engine{
		cfg:        cfg,
		log:        log,
		rules:      rules,
		db:         db,
		rdb:        rdb,
		cache:      cache,
		risk:       riskMgr,
		pipeline:   pipe,
		hub:        hub,
		registry:   registry,
		metrics:    m,
		intentRepo: intentRepo,
		eventRepo:  eventRepo,
	}, nil
}

// buildBroker selects the order route from config
func buildBroker(cfg *config.Config, rdb *redis.Client, log *logger.Logger) (execution.Broker, error) {
	switch cfg.Broker.Mode {
	case "live":
		limiter := redis.NewRateLimiter(rdb, "kairos")
		live := execution.NewHTTPBroker(cfg.Broker.BaseURL, cfg.Broker.APIKey, cfg.Broker.Secret, limiter, log)
		// 연속 실패 시 서킷이 열려 거부로 전환된다
		return execution.NewGuardedBroker(live, log), nil
	case "paper":
		return execution.NewPaperBroker(), nil
	default:
		return nil, fmt.Errorf("unknown broker mode: %s", cfg.Broker.Mode)
	}
}

// statusHandler builds the REST handler over the engine state.
// jobs는 스케줄러를 띄우는 프로세스만 넘긴다 (api 커맨드는 nil).
func (e *engine) statusHandler(jobs handlers.JobReporter) *handlers.StatusHandler {
	return handlers.NewStatusHandler(e.risk, e.cache, e.intentRepo, e.eventRepo, jobs, e.log)
}

// close releases engine resources
func (e *engine) close() {
	e.rdb.Close()
	e.db.Close()
}
