package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/carewise/hms/internal/platform/retry"
)

// Oracle is the completion surface the assistant drives. Satisfied by
// *Client; tests substitute fakes.
type Oracle interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Chat(ctx context.Context, turns []Turn, opts Options) (string, error)
}

// Assistant is the quota-governed front door to the oracle. Every call runs
// the same path: governor admission, bounded retry with long quota backoff,
// then fallback text if the oracle could not be reached. Complete and
// Converse never return an error.
type Assistant struct {
	oracle   Oracle
	governor *Governor
	policy   retry.Policy
	logger   zerolog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithRetryPolicy overrides the default oracle retry policy.
func WithRetryPolicy(p retry.Policy) AssistantOption {
	return func(a *Assistant) { a.policy = p }
}

// NewAssistant wires an assistant. The retry policy backs off 15s, 30s, 60s
// between attempts, which rides out short quota-window contention without
// hammering the oracle.
func NewAssistant(oracle Oracle, governor *Governor, logger zerolog.Logger, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		oracle:   oracle,
		governor: governor,
		policy: retry.Policy{
			Name:        "ai-oracle",
			MaxAttempts: 3,
			Backoff:     retry.Exponential(15*time.Second, 0),
			Classify:    Classify,
		},
		logger: logger,
	}

	for _, o := range opts {
		o(a)
	}
	return a
}

// Governor exposes the underlying quota governor for status reads.
func (a *Assistant) Governor() *Governor { return a.governor }

// Complete runs a single-turn prompt through the governed pipeline and
// always returns usable text.
func (a *Assistant) Complete(ctx context.Context, prompt string, opts Options) string {
	return a.run(ctx, prompt, func(ctx context.Context) (string, error) {
		return a.oracle.Generate(ctx, prompt, opts)
	})
}

// Converse runs a multi-turn exchange through the governed pipeline. The
// final user turn drives fallback selection when the oracle is unavailable.
func (a *Assistant) Converse(ctx context.Context, turns []Turn, opts Options) string {
	intent := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			intent = turns[i].Content
			break
		}
	}
	return a.run(ctx, intent, func(ctx context.Context) (string, error) {
		return a.oracle.Chat(ctx, turns, opts)
	})
}

func (a *Assistant) run(ctx context.Context, intent string, op func(ctx context.Context) (string, error)) string {
	if !a.governor.Admit() {
		a.logger.Info().Msg("AI call denied: daily quota exhausted")
		return Fallback(intent)
	}

	text, err := retry.DoValue(ctx, a.policy, a.logger, op)
	if err != nil {
		if IsQuota(err) {
			a.governor.RecordExhaustion()
		}
		a.logger.Error().Err(err).Msg("AI call failed, serving fallback")
		return Fallback(intent)
	}

	a.governor.RecordSuccess()
	return text
}
