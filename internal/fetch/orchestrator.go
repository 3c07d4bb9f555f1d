// Package fetch runs the multi-source price-history pipeline: an
// orchestrator that walks the adapters in priority order, and a runner that
// executes one fetch off the caller's goroutine with progress reporting.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/internal/source"
	"github.com/wonny/stockscope/pkg/logger"
)

// ErrAllSourcesFailed is returned when every adapter failed or came back
// empty.
var ErrAllSourcesFailed = errors.New("no source produced data")

// ProgressFunc receives human-readable fetch milestones.
type ProgressFunc func(message string)

// Outcome is one successful fetch: the normalized series and the adapter
// that produced it.
type Outcome struct {
	Bars   marketdata.Series `json:"bars"`
	Source string            `json:"source"`
}

// Orchestrator tries sources in priority order and short-circuits on the
// first usable series. The primary source is the fastest and most reliable
// when reachable; the rest are degraded-availability fallbacks for domestic
// symbols it may not cover.
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Orchestrator struct {
	sources []source.Source
	logger  *logger.Logger
}

// NewOrchestrator creates an orchestrator over the given sources, tried in
// argument order.
func NewOrchestrator(log *logger.Logger, sources ...source.Source) *Orchestrator {
	return &Orchestrator{
		sources: sources,
		logger:  log.WithField("module", "fetch"),
	}
}

// GetStockData fetches the price history for one request, falling back
// through the source list. Individual source failures are absorbed; only
// total exhaustion surfaces as ErrAllSourcesFailed.
func (o *Orchestrator) GetStockData(ctx context.Context, req marketdata.FetchRequest) (*Outcome, error) {
	return o.fetch(ctx, req, nil)
}

func (o *Orchestrator) fetch(ctx context.Context, req marketdata.FetchRequest, notify ProgressFunc) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for _, src := range o.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress(notify, fmt.Sprintf("%s에서 데이터 수집 중...", src.Name()))

		bars, err := src.Fetch(ctx, req.Symbol, req.Years)
		if err != nil {
			o.logger.WithError(err).WithFields(map[string]interface{}{
				"source": src.Name(),
				"symbol": req.Symbol,
			}).Warn("Source failed, trying next")
			continue
		}

		bars = bars.Normalize()
		if err := bars.Validate(); err != nil {
			o.logger.WithError(err).WithFields(map[string]interface{}{
				"source": src.Name(),
				"symbol": req.Symbol,
			}).Warn("Unusable series, trying next")
			continue
		}

		progress(notify, fmt.Sprintf("%s에서 데이터 수집 완료", src.Name()))
		o.logger.WithFields(map[string]interface{}{
			"source": src.Name(),
			"symbol": req.Symbol,
			"count":  len(bars),
		}).Info("Fetched price history")

		return &Outcome{Bars: bars, Source: src.Name()}, nil
	}

	return nil, fmt.Errorf("fetch %s: %w", req.Symbol, ErrAllSourcesFailed)
}

func progress(notify ProgressFunc, message string) {
	if notify != nil {
		notify(message)
	}
}
