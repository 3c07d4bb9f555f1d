package fetch

import (
	"context"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/logger"
)

// EventKind discriminates runner events.
type EventKind int

const (
	// EventProgress carries an informational milestone. Zero or more per run.
	EventProgress EventKind = iota
	// EventSuccess carries the fetched series. At most once per run.
	EventSuccess
	// EventError carries the terminal failure. Mutually exclusive with
	// EventSuccess.
	EventError
)

// Event is one observable step of a background fetch.
type Event struct {
	Kind    EventKind
	Message string
	Outcome *Outcome
	Err     error
}

// Runner executes orchestrator invocations off the caller's goroutine.
// Each run is independent: concurrent runs share nothing but the
// orchestrator's read-only source list, and callers must key results by
// symbol to handle out-of-order completion. Deduplicating submissions for
// the same symbol is the caller's concern.
type Runner struct {
	orch   *Orchestrator
	logger *logger.Logger
}

// NewRunner creates a runner over the orchestrator.
func NewRunner(orch *Orchestrator, log *logger.Logger) *Runner {
	return &Runner{
		orch:   orch,
		logger: log.WithField("module", "fetch-runner"),
	}
}

// Run starts one fetch on its own goroutine. The returned channel yields
// zero or more EventProgress values followed by exactly one terminal event
// (EventSuccess or EventError), then closes. The run honors ctx but has no
// finer-grained cancellation; it completes or fails.
func (r *Runner) Run(ctx context.Context, req marketdata.FetchRequest) <-chan Event {
	events := make(chan Event, 8)

	go func() {
		defer close(events)

		outcome, err := r.orch.fetch(ctx, req, func(msg string) {
			events <- Event{Kind: EventProgress, Message: msg}
		})
		if err != nil {
			r.logger.WithError(err).WithField("symbol", req.Symbol).Error("Fetch failed")
			events <- Event{Kind: EventError, Err: err, Message: "데이터를 가져올 수 없습니다"}
			return
		}

		events <- Event{Kind: EventSuccess, Outcome: outcome}
	}()

	return events
}

// RunSync executes one fetch and blocks for the terminal event, forwarding
// progress to notify. Convenience for CLI and HTTP callers.
func (r *Runner) RunSync(ctx context.Context, req marketdata.FetchRequest, notify ProgressFunc) (*Outcome, error) {
	var outcome *Outcome
	var err error

	for ev := range r.Run(ctx, req) {
		switch ev.Kind {
		case EventProgress:
			progress(notify, ev.Message)
		case EventSuccess:
			outcome = ev.Outcome
		case EventError:
			err = ev.Err
		}
	}

	return outcome, err
}
