package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kairos",
	Short: "Kairos - 미국 주식/옵션 의사결정 엔진",
	Long: `Kairos Unified CLI

신호 집계 → 전략 선택 → 사이징 → 리스크 게이트로 이어지는
의사결정 파이프라인과 서킷 브레이커 기반 리스크 관리.

Usage:
  go run ./cmd/kairos [command]

Examples:
  go run ./cmd/kairos run
  go run ./cmd/kairos scan
  go run ./cmd/kairos status
  go run ./cmd/kairos doctor`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
