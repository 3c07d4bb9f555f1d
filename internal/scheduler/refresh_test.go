package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wonny/stockscope/internal/alert"
	"github.com/wonny/stockscope/internal/fetch"
	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/internal/portfolio"
	"github.com/wonny/stockscope/pkg/logger"
)

// fakeSource serves a fixed series for every symbol.
type fakeSource struct {
	bars marketdata.Series
	err  error
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) Fetch(ctx context.Context, symbol string, years int) (marketdata.Series, error) {
	return f.bars, f.err
}

func risingBars(n int) marketdata.Series {
	bars := make(marketdata.Series, n)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = marketdata.Bar{Date: day, Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 100}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func newTestRefreshJob(t *testing.T, src *fakeSource, notify alert.NotifyFunc) (*RefreshJob, *portfolio.Ledger, *alert.Manager) {
	t.Helper()

	dir := t.TempDir()
	log := logger.NewNop()

	runner := fetch.NewRunner(fetch.NewOrchestrator(log, src), log)
	ledger := portfolio.NewLedger(filepath.Join(dir, "portfolio.json"), log)
	alerts := alert.NewManager(filepath.Join(dir, "alerts.json"), notify, log)

	job := NewRefreshJob(runner, ledger, alerts, nil, 1, "0 10 18 * * MON-FRI", log)
	return job, ledger, alerts
}

func TestRefreshJobEmptyPortfolio(t *testing.T) {
	job, _, _ := newTestRefreshJob(t, &fakeSource{bars: risingBars(30)}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() with empty portfolio should be a no-op, got %v", err)
	}
}

func TestRefreshJobChecksAlerts(t *testing.T) {
	var notified []string
	job, ledger, alerts := newTestRefreshJob(t, &fakeSource{bars: risingBars(30)}, func(symbol, message string) {
		notified = append(notified, symbol)
	})

	if err := ledger.Buy("005930", 10, 70000, time.Now()); err != nil {
		t.Fatal(err)
	}
	// The fixture tops out at 129, so this threshold fires.
	if _, err := alerts.Add("005930", alert.PriceAbove, 120); err != nil {
		t.Fatal(err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(notified) != 1 || notified[0] != "005930" {
		t.Errorf("notified = %v, want [005930]", notified)
	}
}

func TestRefreshJobCollectsErrors(t *testing.T) {
	job, ledger, _ := newTestRefreshJob(t, &fakeSource{err: errors.New("unreachable")}, nil)

	if err := ledger.Buy("005930", 1, 70000, time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected aggregated error when every symbol fails")
	}
}

func TestRefreshJobMetadata(t *testing.T) {
	job, _, _ := newTestRefreshJob(t, &fakeSource{bars: risingBars(5)}, nil)

	if job.Name() != "refresh-prices" {
		t.Errorf("Name() = %q", job.Name())
	}
	if job.Schedule() == "" {
		t.Error("Schedule() should return the cron spec")
	}
}
