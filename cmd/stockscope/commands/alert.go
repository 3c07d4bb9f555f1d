package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscope/internal/alert"
	"github.com/wonny/stockscope/pkg/config"
	"github.com/wonny/stockscope/pkg/logger"
)

// alertCmd represents the alert command
var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "알림 조건 관리",
	Long: `가격/크로스 알림 조건을 관리합니다. 조건은 alerts.json에 저장되며
serve 실행 중 포트폴리오 갱신 시 평가됩니다.

알림 유형:
  price_above   - 목표가 이상 도달
  price_below   - 목표가 이하 도달
  golden_cross  - 9일선이 22일선 상향 돌파
  dead_cross    - 9일선이 22일선 하향 돌파

Example:
  go run ./cmd/stockscope alert add 005930 price_above 80000
  go run ./cmd/stockscope alert add AAPL golden_cross
  go run ./cmd/stockscope alert list
  go run ./cmd/stockscope alert remove 0`,
}

// alertAddCmd represents the add subcommand
var alertAddCmd = &cobra.Command{
	Use:   "add [symbol] [type] [value]",
	Short: "알림 조건 추가",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runAlertAdd,
}

// alertListCmd represents the list subcommand
var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "알림 조건 목록",
	RunE:  runAlertList,
}

// alertRemoveCmd represents the remove subcommand
var alertRemoveCmd = &cobra.Command{
	Use:   "remove [index]",
	Short: "알림 조건 삭제",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertRemove,
}

func init() {
	rootCmd.AddCommand(alertCmd)
	alertCmd.AddCommand(alertAddCmd)
	alertCmd.AddCommand(alertListCmd)
	alertCmd.AddCommand(alertRemoveCmd)
}

func newAlertManager() (*alert.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)
	return alert.NewManager(cfg.AlertsFile, nil, log), nil
}

func runAlertAdd(cmd *cobra.Command, args []string) error {
	symbol := args[0]
	typ := alert.Type(args[1])

	var value float64
	if len(args) == 3 {
		parsed, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", args[2])
		}
		value = parsed
	}

	m, err := newAlertManager()
	if err != nil {
		return err
	}

	if _, err := m.Add(symbol, typ, value); err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("%s %s 알림 추가", symbol, typ))
	return nil
}

func runAlertList(cmd *cobra.Command, args []string) error {
	m, err := newAlertManager()
	if err != nil {
		return err
	}

	alerts := m.List()
	if len(alerts) == 0 {
		PrintInfo("등록된 알림이 없습니다")
		return nil
	}

	widths := []int{5, 10, 14, 12, 8}
	PrintTableHeader([]string{"Index", "Symbol", "Type", "Value", "Active"}, widths)
	for i, a := range alerts {
		value := "-"
		if a.Value != 0 {
			value = fmt.Sprintf("%.2f", a.Value)
		}
		PrintTableRow([]string{
			strconv.Itoa(i),
			a.Symbol,
			string(a.Type),
			value,
			strconv.FormatBool(a.Active),
		}, widths)
	}

	return nil
}

func runAlertRemove(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}

	m, err := newAlertManager()
	if err != nil {
		return err
	}

	if err := m.Remove(index); err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("알림 #%d 삭제", index))
	return nil
}
