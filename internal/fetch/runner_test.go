package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/logger"
)

func TestRunnerSuccess(t *testing.T) {
	src := &fakeSource{name: "yahoo", bars: sampleBars(4)}
	runner := NewRunner(NewOrchestrator(logger.NewNop(), src), logger.NewNop())

	var progressCount, terminalCount int
	var outcome *Outcome

	for ev := range runner.Run(context.Background(), marketdata.FetchRequest{Symbol: "005930", Years: 1}) {
		switch ev.Kind {
		case EventProgress:
			progressCount++
		case EventSuccess:
			terminalCount++
			outcome = ev.Outcome
		case EventError:
			terminalCount++
		}
	}

	if terminalCount != 1 {
		t.Fatalf("terminal events = %d, want exactly 1", terminalCount)
	}
	if progressCount == 0 {
		t.Error("expected progress events before the terminal event")
	}
	if outcome == nil || outcome.Source != "yahoo" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestRunnerError(t *testing.T) {
	src := &fakeSource{name: "yahoo", err: errors.New("boom")}
	runner := NewRunner(NewOrchestrator(logger.NewNop(), src), logger.NewNop())

	var terminal []Event
	for ev := range runner.Run(context.Background(), marketdata.FetchRequest{Symbol: "005930", Years: 1}) {
		if ev.Kind != EventProgress {
			terminal = append(terminal, ev)
		}
	}

	if len(terminal) != 1 {
		t.Fatalf("terminal events = %d, want exactly 1", len(terminal))
	}
	if terminal[0].Kind != EventError {
		t.Errorf("terminal kind = %v, want EventError", terminal[0].Kind)
	}
	if !errors.Is(terminal[0].Err, ErrAllSourcesFailed) {
		t.Errorf("err = %v, want ErrAllSourcesFailed", terminal[0].Err)
	}
	if terminal[0].Message == "" {
		t.Error("error event should carry a user-facing message")
	}
}

func TestRunnerChannelCloses(t *testing.T) {
	src := &fakeSource{name: "yahoo", bars: sampleBars(2)}
	runner := NewRunner(NewOrchestrator(logger.NewNop(), src), logger.NewNop())

	events := runner.Run(context.Background(), marketdata.FetchRequest{Symbol: "005930", Years: 1})
	for range events {
	}

	// A closed channel yields the zero value immediately.
	if _, open := <-events; open {
		t.Error("channel should be closed after the terminal event")
	}
}

func TestRunSync(t *testing.T) {
	src := &fakeSource{name: "yahoo", bars: sampleBars(3)}
	runner := NewRunner(NewOrchestrator(logger.NewNop(), src), logger.NewNop())

	var messages []string
	outcome, err := runner.RunSync(context.Background(), marketdata.FetchRequest{Symbol: "005930", Years: 1}, func(msg string) {
		messages = append(messages, msg)
	})
	if err != nil {
		t.Fatalf("RunSync() error = %v", err)
	}
	if outcome.Source != "yahoo" || len(outcome.Bars) != 3 {
		t.Errorf("outcome = %+v", outcome)
	}
	if len(messages) == 0 {
		t.Error("expected forwarded progress messages")
	}
}

func TestRunSyncError(t *testing.T) {
	src := &fakeSource{name: "yahoo", err: errors.New("boom")}
	runner := NewRunner(NewOrchestrator(logger.NewNop(), src), logger.NewNop())

	outcome, err := runner.RunSync(context.Background(), marketdata.FetchRequest{Symbol: "005930", Years: 1}, nil)
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Errorf("err = %v, want ErrAllSourcesFailed", err)
	}
	if outcome != nil {
		t.Errorf("outcome = %+v, want nil", outcome)
	}
}

func TestRunnerIndependentRuns(t *testing.T) {
	src := &fakeSource{name: "yahoo", bars: sampleBars(2)}
	runner := NewRunner(NewOrchestrator(logger.NewNop(), src), logger.NewNop())

	// Two concurrent runs for different symbols both complete.
	ch1 := runner.Run(context.Background(), marketdata.FetchRequest{Symbol: "005930", Years: 1})
	ch2 := runner.Run(context.Background(), marketdata.FetchRequest{Symbol: "035720", Years: 1})

	done := 0
	for ev := range ch1 {
		if ev.Kind == EventSuccess {
			done++
		}
	}
	for ev := range ch2 {
		if ev.Kind == EventSuccess {
			done++
		}
	}

	if done != 2 {
		t.Errorf("completed runs = %d, want 2", done)
	}
}
