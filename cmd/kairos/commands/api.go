package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버만 시작",
	Long: `스케줄러 없이 REST API 서버만 시작합니다.

이 명령어는:
- 상태/포지션/intent/이벤트 조회 엔드포인트 제공
- WebSocket 이벤트 스트림 제공
- 드로다운 정지 수동 해제 엔드포인트 제공

Endpoints:
  GET  /health                    - Health check
  GET  /api/status                - 브레이커 모드, 자산, 드로다운
  GET  /api/positions             - 오픈 포지션
  GET  /api/cycles/last           - 최근 사이클 요약
  GET  /api/intents/{cycle}       - 사이클별 intent
  GET  /api/events                - 리스크 이벤트
  GET  /api/jobs                  - 잡 실행 통계 (run 프로세스 전용)
  POST /api/admin/reset-drawdown  - 드로다운 정지 해제
  POST /api/admin/jobs/{name}/run - 잡 수동 트리거 (run 프로세스 전용)
  GET  /api/ws/events             - WebSocket 이벤트 스트림

Example:
  go run ./cmd/kairos api
  go run ./cmd/kairos api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Build the engine (no scheduler: 읽기 전용 서빙)
	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	defer eng.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.hub.Run(ctx)

	// 4. Start server with graceful shutdown
	server := newAPIServer(cfg, log, eng, nil)
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
