package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/api"
	"github.com/wonny/kairos/internal/api/handlers"
	"github.com/wonny/kairos/internal/scheduler"
	"github.com/wonny/kairos/internal/scheduler/jobs"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "의사결정 엔진 상시 실행",
	Long: `스케줄러, API 서버, 메트릭 서버를 함께 실행합니다.

이 명령어는:
- 장중 스캔 사이클을 스케줄에 따라 실행
- 개장 시각에 거래일 롤오버 (일일 브레이커 해제)
- 상태/이벤트 REST + WebSocket API 제공
- Prometheus 메트릭 노출

Example:
  go run ./cmd/kairos run
  go run ./cmd/kairos run --port 8090`,
	RunE: runEngine,
}

var runPort string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runPort, "port", "", "API 서버 포트 (기본: PORT env)")
}

func runEngine(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Decision Engine ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runPort != "" {
		cfg.Port = runPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"env":    cfg.Env,
		"broker": cfg.Broker.Mode,
		"scan":   cfg.Engine.ScanInterval,
	}).Info("Initializing decision engine")

	// 3. Build the engine
	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	defer eng.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Start the websocket event hub
	go eng.hub.Run(ctx)

	// 5. Open the first trading day
	eng.pipeline.Rollover(ctx, time.Now())

	// 6. Register scheduled jobs
	sched := scheduler.New(log)

	scanJob, err := jobs.NewScanJob(eng.pipeline, eng.rules, cfg.Engine, eng.cache, log)
	if err != nil {
		return err
	}
	if err := sched.AddJob(scanJob); err != nil {
		return err
	}

	rolloverJob, err := jobs.NewRolloverJob(eng.pipeline, eng.rules, cfg.Engine, log)
	if err != nil {
		return err
	}
	if err := sched.AddJob(rolloverJob); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	// 7. Start the API server (잡 통계/수동 트리거 표면 포함)
	server := newAPIServer(cfg, log, eng, sched)
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start API server")
		}
	}()

	// 8. Start the metrics server
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(eng.registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}

		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
		log.WithField("port", cfg.MetricsPort).Info("Metrics server started")
	}

	log.Info("Decision engine started")
	fmt.Printf("\n✅ Engine running, API on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down engine...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	log.Info("Engine stopped")
	return nil
}

// newAPIServer assembles the HTTP layer over a built engine
func newAPIServer(cfg *config.Config, log *logger.Logger, eng *engine, jobs handlers.JobReporter) *api.Server {
	router := api.NewRouter(eng.statusHandler(jobs), eng.hub, log)
	return api.New(cfg, log, router)
}
