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
	Use:   "stockscope",
	Short: "StockScope - 주식 시세 수집 및 기술적 분석 도구",
	Long: `StockScope Unified CLI

다중 소스 폴백(Yahoo → Naver → KRX)으로 일봉 시세를 수집하고
이동평균/RSI/MACD/볼린저/스토캐스틱 지표를 계산합니다.

Usage:
  go run ./cmd/stockscope [command]

Examples:
  go run ./cmd/stockscope fetch 005930
  go run ./cmd/stockscope analyze AAPL --years 2
  go run ./cmd/stockscope serve
  go run ./cmd/stockscope portfolio status`,
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
