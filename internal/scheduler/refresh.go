package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/stockscope/internal/alert"
	"github.com/wonny/stockscope/internal/fetch"
	"github.com/wonny/stockscope/internal/indicator"
	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/internal/portfolio"
	"github.com/wonny/stockscope/internal/store"
	"github.com/wonny/stockscope/pkg/logger"
)

// RefreshJob re-fetches price history for every portfolio symbol, persists
// it, and evaluates alerts. One independent runner per symbol; results are
// keyed by symbol since completions arrive in no particular order.
type RefreshJob struct {
	runner   *fetch.Runner
	ledger   *portfolio.Ledger
	alerts   *alert.Manager
	prices   *store.PriceStore // optional; nil disables persistence
	years    int
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates the periodic refresh job.
func NewRefreshJob(
	runner *fetch.Runner,
	ledger *portfolio.Ledger,
	alerts *alert.Manager,
	prices *store.PriceStore,
	years int,
	schedule string,
	log *logger.Logger,
) *RefreshJob {
	return &RefreshJob{
		runner:   runner,
		ledger:   ledger,
		alerts:   alerts,
		prices:   prices,
		years:    years,
		schedule: schedule,
		logger:   log.WithField("job", "refresh-prices"),
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string { return "refresh-prices" }

// Schedule implements Job.
func (j *RefreshJob) Schedule() string { return j.schedule }

// Run fetches all portfolio symbols concurrently.
func (j *RefreshJob) Run(ctx context.Context) error {
	symbols := j.ledger.Symbols()
	if len(symbols) == 0 {
		j.logger.Debug("No portfolio symbols to refresh")
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(symbols))

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if err := j.refreshSymbol(ctx, symbol); err != nil {
				errCh <- fmt.Errorf("%s: %w", symbol, err)
			}
		}(symbol)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"failed":  len(errs),
	}).Info("Portfolio refresh completed")

	if len(errs) > 0 {
		return fmt.Errorf("refresh errors: %v", errs)
	}
	return nil
}

func (j *RefreshJob) refreshSymbol(ctx context.Context, symbol string) error {
	outcome, err := j.runner.RunSync(ctx, marketdata.FetchRequest{Symbol: symbol, Years: j.years}, nil)
	if err != nil {
		return err
	}

	if j.prices != nil {
		if err := j.prices.SaveSeries(ctx, symbol, outcome.Bars); err != nil {
			return fmt.Errorf("save prices: %w", err)
		}
	}

	last, ok := outcome.Bars.Latest()
	if !ok {
		return nil
	}

	closes := outcome.Bars.Closes()
	shortMA := indicator.MovingAverage(closes, indicator.DefaultShortMAWindow)
	longMA := indicator.MovingAverage(closes, indicator.DefaultLongMAWindow)
	j.alerts.Check(symbol, last.Close, shortMA, longMA)

	return nil
}
