package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscope/internal/alert"
	"github.com/wonny/stockscope/internal/api"
	"github.com/wonny/stockscope/internal/fx"
	"github.com/wonny/stockscope/internal/portfolio"
	"github.com/wonny/stockscope/internal/scheduler"
	"github.com/wonny/stockscope/internal/store"
	"github.com/wonny/stockscope/pkg/config"
	"github.com/wonny/stockscope/pkg/database"
	"github.com/wonny/stockscope/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버와 백그라운드 갱신 스케줄러를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 웹소켓 진행 상황 스트림 제공
- 포트폴리오 종목 주기적 갱신 및 알림 평가

Endpoints:
  GET  /health                          - Health check
  GET  /api/v1/stocks/{symbol}/history  - 일봉 + 지표 조회
  GET  /api/v1/portfolio                - 포트폴리오 조회
  GET  /api/v1/alerts                   - 알림 조건 조회
  GET  /api/v1/exchange-rate            - 환율 조회
  WS   /ws                              - 수집 진행 상황

Example:
  go run ./cmd/stockscope serve
  go run ./cmd/stockscope serve --port 8090`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== StockScope API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if servePort != "" {
		cfg.Port = servePort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Create fetch pipeline
	runner, yahooClient := newPipeline(cfg, log)

	// 4. Connect to database (optional; persistence off without DATABASE_URL)
	var priceStore *store.PriceStore
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		priceStore = store.NewPriceStore(db.Pool)
		if err := priceStore.Init(context.Background()); err != nil {
			return fmt.Errorf("init price store: %w", err)
		}

		log.Info("Connected to database")
	} else {
		log.Warn("DATABASE_URL not set, price persistence disabled")
	}

	// 5. Exchange rate manager
	rates := fx.NewManager(yahooClient, cfg.USDKRWFallback, log)

	// 6. Websocket hub for fetch progress and alerts
	hub := api.NewHub(log)
	defer hub.Close()

	// 7. Local JSON stores
	alerts := alert.NewManager(cfg.AlertsFile, func(symbol, message string) {
		hub.Broadcast(api.ProgressMessage{Symbol: symbol, Message: message})
	}, log)
	ledger := portfolio.NewLedger(cfg.PortfolioFile, log)

	// 8. Scheduler with the portfolio refresh job
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshJob(runner, ledger, alerts, priceStore, 1, cfg.RefreshCron, log)
	if err := sched.AddJob(refreshJob); err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 9. Create handler and router
	handler := api.NewHandler(runner, ledger, alerts, rates, hub, log)
	router := api.NewRouter(handler, hub, log)

	// 10. Create server
	server := api.New(cfg, log, router)

	// 11. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/v1/stocks/{symbol}/history")
	fmt.Println("  GET  /api/v1/portfolio")
	fmt.Println("  GET  /api/v1/alerts")
	fmt.Println("  GET  /api/v1/exchange-rate")
	fmt.Println("  WS   /ws")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
