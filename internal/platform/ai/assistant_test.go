package ai

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carewise/hms/internal/platform/retry"
)

type fakeOracle struct {
	response string
	err      error
	calls    int
}

func (f *fakeOracle) Generate(_ context.Context, prompt string, _ Options) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeOracle) Chat(_ context.Context, turns []Turn, _ Options) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		Name:        "ai-oracle",
		MaxAttempts: 3,
		Backoff:     retry.Linear(time.Millisecond),
		Classify:    Classify,
	}
}

func newTestAssistant(oracle Oracle, governor *Governor) *Assistant {
	return NewAssistant(oracle, governor, zerolog.Nop(), WithRetryPolicy(fastPolicy()))
}

func TestAssistant_SuccessRecordsUsage(t *testing.T) {
	oracle := &fakeOracle{response: "assessment text"}
	g := NewGovernor(10)
	a := newTestAssistant(oracle, g)

	got := a.Complete(context.Background(), "analyze these symptoms", Options{})
	if got != "assessment text" {
		t.Errorf("unexpected response: %q", got)
	}
	if used := g.Status().Used; used != 1 {
		t.Errorf("expected 1 recorded call, got %d", used)
	}
}

func TestAssistant_QuotaDeniedServesTriageFallback(t *testing.T) {
	clock := newFakeClock()
	oracle := &fakeOracle{response: "should not be called"}
	g := NewGovernor(1500, WithClock(clock.Now))
	g.RecordExhaustion()
	a := newTestAssistant(oracle, g)

	got := a.Complete(context.Background(), "Perform triage for chest pain", Options{})
	if got != TriageFallback {
		t.Errorf("expected triage fallback, got %q", got)
	}
	if oracle.calls != 0 {
		t.Errorf("oracle should not be called when denied, got %d calls", oracle.calls)
	}
}

func TestAssistant_OracleQuotaErrorMarksExhaustion(t *testing.T) {
	oracle := &fakeOracle{err: &QuotaError{StatusCode: 429, Message: "quota exceeded"}}
	g := NewGovernor(100)
	a := newTestAssistant(oracle, g)

	got := a.Complete(context.Background(), "suggest a diagnosis for these symptoms", Options{})
	if got != ClinicalFallback {
		t.Errorf("expected clinical fallback, got %q", got)
	}
	// Quota errors are retried with backoff before giving up.
	if oracle.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", oracle.calls)
	}
	if !g.Status().LimitReached {
		t.Error("expected governor marked exhausted after oracle quota error")
	}
	// Further calls are denied without touching the oracle.
	oracle.calls = 0
	a.Complete(context.Background(), "another request", Options{})
	if oracle.calls != 0 {
		t.Error("expected immediate denial after exhaustion")
	}
}

func TestAssistant_ConfigErrorNotRetried(t *testing.T) {
	oracle := &fakeOracle{err: &ConfigError{Reason: "no key"}}
	g := NewGovernor(100)
	a := newTestAssistant(oracle, g)

	got := a.Complete(context.Background(), "generate insights for the dashboard", Options{})
	if got != InsightsFallback {
		t.Errorf("expected insights fallback, got %q", got)
	}
	if oracle.calls != 1 {
		t.Errorf("config errors must not be retried, got %d calls", oracle.calls)
	}
	if g.Status().Used != 0 {
		t.Error("failed call must not consume quota")
	}
}

func TestAssistant_ConverseUsesLastUserTurnForFallback(t *testing.T) {
	oracle := &fakeOracle{err: &ServerError{StatusCode: 503, Message: "unavailable"}}
	g := NewGovernor(100)
	a := newTestAssistant(oracle, g)

	got := a.Converse(context.Background(), []Turn{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
		{Role: "user", Content: "what urgency level is this patient?"},
	}, Options{})
	if got != TriageFallback {
		t.Errorf("expected triage fallback from last user turn, got %q", got)
	}
}

func TestFallback_Selection(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"Please triage this patient", TriageFallback},
		{"What URGENCY applies here", TriageFallback},
		{"Generate insights for admissions analytics", InsightsFallback},
		{"Possible diagnoses for fever and rash", ClinicalFallback},
		{"The patient reports symptoms of dizziness", ClinicalFallback},
		{"Tell me a story", GenericFallback},
	}
	for _, tc := range cases {
		if got := Fallback(tc.prompt); got != tc.want {
			t.Errorf("prompt %q: expected %q, got %q", tc.prompt, tc.want, got)
		}
	}
}
