package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var testLogger = zerolog.Nop()

func TestLinearBackoff(t *testing.T) {
	b := Linear(time.Second)
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := b(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestExponentialBackoff_Capped(t *testing.T) {
	b := Exponential(2*time.Second, 10*time.Second)
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{8, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := b(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestExponentialBackoff_Uncapped(t *testing.T) {
	b := Exponential(15*time.Second, 0)
	if got := b(3); got != 60*time.Second {
		t.Errorf("expected 60s, got %v", got)
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	p := Policy{Name: "op", MaxAttempts: 3, Backoff: Linear(time.Millisecond)}
	calls := 0
	err := p.Do(context.Background(), testLogger, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := Policy{Name: "op", MaxAttempts: 5, Backoff: Linear(time.Millisecond)}
	calls := 0
	err := p.Do(context.Background(), testLogger, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := Policy{Name: "visit-list", MaxAttempts: 3, Backoff: Linear(time.Millisecond)}
	calls := 0
	err := p.Do(context.Background(), testLogger, func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 || exhausted.Op != "visit-list" {
		t.Errorf("unexpected exhaustion detail: %+v", exhausted)
	}
}

func TestDo_TerminalErrorStops(t *testing.T) {
	terminal := errors.New("bad request")
	p := Policy{
		Name:        "op",
		MaxAttempts: 5,
		Backoff:     Linear(time.Millisecond),
		Classify: func(err error) Class {
			if errors.Is(err, terminal) {
				return Terminal
			}
			return Retryable
		},
	}
	calls := 0
	err := p.Do(context.Background(), testLogger, func(ctx context.Context) error {
		calls++
		return terminal
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, terminal) {
		t.Errorf("expected terminal error passed through, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Error("terminal error should not be wrapped as exhaustion")
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	p := Policy{Name: "op", MaxAttempts: 3, Backoff: Linear(time.Minute)}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, testLogger, func(ctx context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoValue(t *testing.T) {
	p := Policy{Name: "op", MaxAttempts: 3, Backoff: Linear(time.Millisecond)}
	calls := 0
	got, err := DoValue(context.Background(), p, testLogger, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestDoValueOrDefault_DegradesToZero(t *testing.T) {
	p := Policy{Name: "op", MaxAttempts: 2, Backoff: Linear(time.Millisecond)}
	got := DoValueOrDefault(context.Background(), p, testLogger, func(ctx context.Context) ([]string, error) {
		return nil, errors.New("store unavailable")
	})
	if got != nil {
		t.Errorf("expected nil slice, got %v", got)
	}
}

func TestDo_ZeroMaxAttemptsRunsOnce(t *testing.T) {
	p := Policy{Name: "op"}
	calls := 0
	_ = p.Do(context.Background(), testLogger, func(ctx context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
