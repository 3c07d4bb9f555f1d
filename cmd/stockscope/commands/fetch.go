package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/config"
	"github.com/wonny/stockscope/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [symbol]",
	Short: "일봉 시세 수집",
	Long: `지정한 종목의 일봉 시세를 수집합니다.

소스 폴백 순서:
  1. Yahoo Finance  (한국 종목은 .KS → .KQ 재시도)
  2. Naver Finance  (일별 시세 페이지 스크래핑)
  3. KRX            (한국거래소 데이터 API)

Example:
  go run ./cmd/stockscope fetch 005930
  go run ./cmd/stockscope fetch AAPL --years 3`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	// Fetch flags
	fetchYears int
	fetchTail  int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().IntVar(&fetchYears, "years", 1, "수집 기간 (년)")
	fetchCmd.Flags().IntVar(&fetchTail, "tail", 10, "출력할 최근 일봉 수")
}

func runFetch(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	fmt.Printf("=== StockScope Fetch ===\n\n")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	runner, _ := newPipeline(cfg, log)

	outcome, err := runner.RunSync(context.Background(), marketdata.FetchRequest{
		Symbol: symbol,
		Years:  fetchYears,
	}, func(msg string) {
		PrintInfo(msg)
	})
	if err != nil {
		PrintError(fmt.Sprintf("수집 실패: %v", err))
		return err
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("%s: %d개 일봉 수집 (source: %s)", symbol, len(outcome.Bars), outcome.Source))
	fmt.Println()

	bars := outcome.Bars
	if fetchTail > 0 && len(bars) > fetchTail {
		bars = bars[len(bars)-fetchTail:]
	}

	widths := []int{12, 10, 10, 10, 10, 12}
	PrintTableHeader([]string{"Date", "Open", "High", "Low", "Close", "Volume"}, widths)
	for _, b := range bars {
		PrintTableRow([]string{
			b.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", b.Open),
			fmt.Sprintf("%.2f", b.High),
			fmt.Sprintf("%.2f", b.Low),
			fmt.Sprintf("%.2f", b.Close),
			fmt.Sprintf("%d", b.Volume),
		}, widths)
	}

	return nil
}
