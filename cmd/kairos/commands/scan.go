package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "스캔 사이클 1회 실행",
	Long: `의사결정 사이클을 지금 즉시 한 번 실행합니다.

장 시간 가드를 타지 않으므로 장외 검증/디버깅에 사용합니다.
결과 intent와 신호는 DB에 기록되고 요약은 캐시에 남습니다.

Example:
  go run ./cmd/kairos scan`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Single Scan ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Build the engine
	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	defer eng.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 4. Open the trading day, then run one cycle
	now := time.Now()
	eng.pipeline.Rollover(ctx, now)

	result, err := eng.pipeline.RunCycle(ctx, now)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	if err := eng.cache.Set(ctx, redis.KeyLastCycle, result, redis.TTLLastCycle); err != nil {
		log.WithError(err).Warn("Failed to cache cycle summary")
	}

	// 5. Print summary
	fmt.Printf("\n✅ Cycle %s complete\n\n", result.CycleID)
	fmt.Printf("%-12s %s\n", "Mode:", result.Mode)
	fmt.Printf("%-12s %d\n", "Universe:", result.Universe)
	fmt.Printf("%-12s %d\n", "Accepted:", result.Accepted)
	fmt.Printf("%-12s %d\n", "Rejected:", result.Rejected)
	fmt.Printf("%-12s %d\n", "Exits:", result.Exits)
	fmt.Printf("%-12s %v\n", "Duration:", result.Duration)

	if len(result.Intents) > 0 {
		fmt.Println("\nIntents:")
		for _, intent := range result.Intents {
			if intent.Result == contracts.IntentAccepted {
				fmt.Printf("  ✔ %-6s %-16s qty=%-5d $%.2f\n",
					intent.Symbol, intent.Structure, intent.Qty, intent.Notional)
			} else {
				fmt.Printf("  ✘ %-6s %s: %s\n", intent.Symbol, intent.Reason, intent.Detail)
			}
		}
	}

	return nil
}
