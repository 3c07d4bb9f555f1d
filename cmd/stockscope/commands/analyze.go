package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscope/internal/indicator"
	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/config"
	"github.com/wonny/stockscope/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "기술적 지표 분석",
	Long: `지정한 종목의 시세를 수집하고 기술적 지표를 계산합니다.

계산 지표:
  - 이동평균 (MA9, MA22)
  - RSI (14)
  - MACD (12, 26, 9)
  - 볼린저 밴드 (20, 2σ)
  - 스토캐스틱 (14, 3, 3)

Example:
  go run ./cmd/stockscope analyze 005930
  go run ./cmd/stockscope analyze AAPL --years 2`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	// Analyze flags
	analyzeYears int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().IntVar(&analyzeYears, "years", 1, "분석 기간 (년)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	fmt.Printf("=== StockScope Analyze ===\n\n")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	runner, _ := newPipeline(cfg, log)

	outcome, err := runner.RunSync(context.Background(), marketdata.FetchRequest{
		Symbol: symbol,
		Years:  analyzeYears,
	}, func(msg string) {
		PrintInfo(msg)
	})
	if err != nil {
		PrintError(fmt.Sprintf("수집 실패: %v", err))
		return err
	}

	set := indicator.Compute(outcome.Bars)
	last, _ := outcome.Bars.Latest()

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s (%s, %d bars)\n", symbol, outcome.Source, len(outcome.Bars))
	PrintSeparator()

	PrintKeyValue("종가", fmt.Sprintf("%.2f (%s)", last.Close, last.Date.Format("2006-01-02")), 12)
	printLast("MA9", set.MA9)
	printLast("MA22", set.MA22)
	printLast("RSI(14)", set.RSI)
	printLast("MACD", set.MACD)
	printLast("Signal", set.MACDSignal)
	printLast("Histogram", set.MACDHistogram)
	printLast("BB Upper", set.BollingerUpper)
	printLast("BB Middle", set.BollingerMiddle)
	printLast("BB Lower", set.BollingerLower)
	printLast("Stoch %K", set.StochasticK)
	printLast("Stoch %D", set.StochasticD)

	PrintSeparator()

	switch indicator.DetectCross(set.MA9, set.MA22) {
	case indicator.GoldenCross:
		PrintSuccess("골든크로스: 9일선이 22일선을 상향 돌파")
	case indicator.DeadCross:
		PrintWarning("데드크로스: 9일선이 22일선을 하향 돌파")
	default:
		PrintInfo("크로스 신호 없음")
	}

	return nil
}

// printLast prints the latest defined value of a derived series.
func printLast(name string, s indicator.Series) {
	if p, ok := s.Last(); ok {
		PrintKeyValue(name, fmt.Sprintf("%.2f", p.Value), 12)
	} else {
		PrintKeyValue(name, "-", 12)
	}
}
