package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/internal/store"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "엔진 상태 조회",
	Long: `마지막 사이클 요약과 최근 리스크 이벤트를 출력합니다.

표시 정보:
- 마지막 사이클: 모드, accepted/rejected/exits
- 최근 리스크 이벤트 (기본 24시간)

Example:
  go run ./cmd/kairos status
  go run ./cmd/kairos status --since 72h`,
	RunE: runStatus,
}

var statusSince time.Duration

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().DurationVar(&statusSince, "since", 24*time.Hour, "이벤트 조회 범위")
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Engine Status ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 2. Last cycle summary from cache
	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	cache := redis.NewCache(rdb, "kairos")

	var last pipeline.CycleResult
	found, err := cache.Get(ctx, redis.KeyLastCycle, &last)
	if err != nil {
		log.WithError(err).Warn("Failed to read cycle cache")
	}

	fmt.Println("\n📊 Last Cycle")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if found {
		fmt.Printf("%-12s %s\n", "Cycle:", last.CycleID)
		fmt.Printf("%-12s %s\n", "Mode:", last.Mode)
		fmt.Printf("%-12s %d\n", "Universe:", last.Universe)
		fmt.Printf("%-12s %d\n", "Accepted:", last.Accepted)
		fmt.Printf("%-12s %d\n", "Rejected:", last.Rejected)
		fmt.Printf("%-12s %d\n", "Exits:", last.Exits)
	} else {
		fmt.Println("no cycle recorded yet")
	}

	// 3. Recent risk events from DB
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	events, err := store.NewEventRepository(db.Pool).EventsSince(ctx, time.Now().Add(-statusSince))
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}

	fmt.Printf("\n⚠️  Risk Events (last %v)\n", statusSince)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if len(events) == 0 {
		fmt.Println("none")
	}
	for _, e := range events {
		fmt.Printf("%s  %-8s %-18s %s\n",
			e.At.Format("01-02 15:04"), e.Severity, e.Type, e.Message)
	}

	return nil
}
