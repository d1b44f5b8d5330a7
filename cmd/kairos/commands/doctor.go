package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/redis"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "환경/연결 점검",
	Long: `엔진 기동에 필요한 설정과 연결을 점검합니다.

점검 항목:
- 환경 변수 설정 (.env)
- 트레이딩 룰 YAML 로드/검증
- PostgreSQL 연결
- Redis 연결
- 브로커 모드 설정

Example:
  go run ./cmd/kairos doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Doctor ===")
	fmt.Println()

	failed := 0
	check := func(name string, err error) {
		if err != nil {
			failed++
			fmt.Printf("❌ %-20s %v\n", name, err)
			return
		}
		fmt.Printf("✅ %-20s ok\n", name)
	}

	// 1. Config
	cfg, err := config.Load()
	check("config", err)
	if err != nil {
		return fmt.Errorf("%d check(s) failed", failed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// 2. Trading rules
	rules, _, err := strategyconfig.Load(cfg.Engine.RulesPath)
	check("trading rules", err)
	if err == nil {
		hash, hashErr := strategyconfig.Hash(rules)
		check("rules hash", hashErr)
		if hashErr == nil {
			fmt.Printf("   strategy=%s version=%s hash=%s\n",
				rules.Meta.StrategyID, rules.Meta.Version, hash[:12])
		}
	}

	// 3. Database
	db, err := database.New(cfg)
	check("postgres", err)
	if err == nil {
		h, pingErr := db.Health(ctx)
		check("postgres ping", pingErr)
		if pingErr == nil {
			fmt.Printf("   latency=%v pool=%d/%d\n", h.Latency, h.InUse, h.Max)
		}
		db.Close()
	}

	// 4. Redis
	rdb, err := redis.New(cfg)
	check("redis", err)
	if err == nil {
		if !rdb.Enabled() {
			fmt.Println("   redis disabled (REDIS_ENABLED=false), cache no-op")
		}
		rdb.Close()
	}

	// 5. Broker mode
	switch cfg.Broker.Mode {
	case "paper":
		check("broker", nil)
		fmt.Println("   paper mode: deterministic local fills")
	case "live":
		var brokerErr error
		if cfg.Broker.BaseURL == "" {
			brokerErr = fmt.Errorf("BROKER_BASE_URL is required in live mode")
		}
		check("broker", brokerErr)
	default:
		check("broker", fmt.Errorf("unknown mode %q", cfg.Broker.Mode))
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}

	fmt.Println("✅ All checks passed")
	return nil
}
