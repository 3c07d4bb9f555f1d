package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscope/internal/fx"
	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/internal/portfolio"
	"github.com/wonny/stockscope/pkg/config"
	"github.com/wonny/stockscope/pkg/logger"
)

// portfolioCmd represents the portfolio command
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "포트폴리오 관리",
	Long: `보유 종목 장부를 관리합니다. 평균 단가 방식으로 기록되며
portfolio.json 파일에 저장됩니다.

Example:
  go run ./cmd/stockscope portfolio buy 005930 10 71000
  go run ./cmd/stockscope portfolio sell AAPL 5 230.50
  go run ./cmd/stockscope portfolio status`,
}

// portfolioBuyCmd represents the buy subcommand
var portfolioBuyCmd = &cobra.Command{
	Use:   "buy [symbol] [quantity] [price]",
	Short: "매수 기록",
	Args:  cobra.ExactArgs(3),
	RunE:  runPortfolioBuy,
}

// portfolioSellCmd represents the sell subcommand
var portfolioSellCmd = &cobra.Command{
	Use:   "sell [symbol] [quantity] [price]",
	Short: "매도 기록",
	Args:  cobra.ExactArgs(3),
	RunE:  runPortfolioSell,
}

// portfolioStatusCmd represents the status subcommand
var portfolioStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "수익률 조회",
	Long: `보유 종목의 현재가를 수집해 수익률을 계산합니다.
미국 주식은 환율을 적용해 원화로 환산합니다.`,
	RunE: runPortfolioStatus,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioBuyCmd)
	portfolioCmd.AddCommand(portfolioSellCmd)
	portfolioCmd.AddCommand(portfolioStatusCmd)
}

func runPortfolioBuy(cmd *cobra.Command, args []string) error {
	return recordTransaction(args, "buy")
}

func runPortfolioSell(cmd *cobra.Command, args []string) error {
	return recordTransaction(args, "sell")
}

func recordTransaction(args []string, typ string) error {
	symbol := args[0]

	quantity, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid price %q", args[2])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	ledger := portfolio.NewLedger(cfg.PortfolioFile, log)

	if typ == "buy" {
		err = ledger.Buy(symbol, quantity, price, time.Now())
	} else {
		err = ledger.Sell(symbol, quantity, price, time.Now())
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("%s %s %.2f주 @ %.2f 기록", symbol, typ, quantity, price))
	return nil
}

func runPortfolioStatus(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== StockScope Portfolio ===\n\n")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	ledger := portfolio.NewLedger(cfg.PortfolioFile, log)

	symbols := ledger.Symbols()
	if len(symbols) == 0 {
		PrintInfo("보유 종목이 없습니다")
		return nil
	}

	runner, yahooClient := newPipeline(cfg, log)
	rates := fx.NewManager(yahooClient, cfg.USDKRWFallback, log)

	ctx := context.Background()

	// Latest close per symbol; failed fetches are skipped, not fatal.
	currentPrices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		outcome, err := runner.RunSync(ctx, marketdata.FetchRequest{Symbol: symbol, Years: 1}, nil)
		if err != nil {
			PrintWarning(fmt.Sprintf("%s 현재가 조회 실패", symbol))
			continue
		}
		if last, ok := outcome.Bars.Latest(); ok {
			currentPrices[symbol] = last.Close
		}
	}

	positions, summary := ledger.Returns(currentPrices, rates)

	widths := []int{10, 10, 12, 12, 14, 10}
	PrintTableHeader([]string{"Symbol", "Qty", "AvgPrice", "Current", "Value(KRW)", "Profit%"}, widths)
	for _, symbol := range symbols {
		p, ok := positions[symbol]
		if !ok {
			continue
		}
		PrintTableRow([]string{
			symbol,
			fmt.Sprintf("%.2f", p.Quantity),
			fmt.Sprintf("%.2f", p.AvgPrice),
			fmt.Sprintf("%.2f", p.CurrentPrice),
			fmt.Sprintf("%.0f", p.CurrentValueKRW),
			fmt.Sprintf("%+.2f%%", p.ProfitRate),
		}, widths)
	}

	fmt.Println()
	PrintKeyValue("총 매수금액", fmt.Sprintf("%.0f KRW", summary.TotalCostKRW), 12)
	PrintKeyValue("총 평가금액", fmt.Sprintf("%.0f KRW", summary.TotalValueKRW), 12)
	PrintKeyValue("총 손익", fmt.Sprintf("%+.0f KRW (%+.2f%%)", summary.TotalProfitKRW, summary.TotalProfitRate), 12)
	PrintKeyValue("환율", rates.Info(), 12)

	return nil
}
