package diagnosis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewise/hms/internal/domain/visit"
	"github.com/carewise/hms/internal/platform/ai"
)

// Completer is the slice of the AI assistant this service needs. The
// assistant already folds quota denial and retry exhaustion into fallback
// text, so Complete never fails.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ai.Options) string
}

// VisitStore is the slice of the visit service this service needs.
type VisitStore interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	RecordDiagnosis(ctx context.Context, visitID uuid.UUID, diagnosis string) error
}

type Service struct {
	assistant Completer
	governor  *ai.Governor
	visits    VisitStore
	logger    zerolog.Logger
}

func NewService(assistant Completer, governor *ai.Governor, visits VisitStore, logger zerolog.Logger) *Service {
	return &Service{assistant: assistant, governor: governor, visits: visits, logger: logger}
}

// AnalyzeVisit asks the oracle for a differential diagnosis, reduces the
// free-text answer to a numbered label list and persists it on the visit.
func (s *Service) AnalyzeVisit(ctx context.Context, visitID uuid.UUID) (string, error) {
	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return "", fmt.Errorf("visit lookup: %w", err)
	}
	if strings.TrimSpace(v.Symptoms) == "" {
		return "", fmt.Errorf("visit has no recorded symptoms")
	}

	prompt := fmt.Sprintf(
		"A patient presents with the following symptoms: %s\n\n"+
			"List the POSSIBLE DIAGNOSES as a numbered list with the condition "+
			"name in bold, then RECOMMENDED TESTS.", v.Symptoms)

	raw := s.assistant.Complete(ctx, prompt, ai.Options{Temperature: 0.3, MaxTokens: 1024})
	result := Extract(raw)

	if err := s.visits.RecordDiagnosis(ctx, visitID, result); err != nil {
		return "", fmt.Errorf("persist diagnosis: %w", err)
	}
	s.logger.Info().
		Str("visit_id", visitID.String()).
		Str("diagnosis", result).
		Msg("diagnosis extracted")
	return result, nil
}

// Triage returns AI-backed triage guidance for free-text symptoms. On quota
// exhaustion the caller still receives the structured triage fallback.
func (s *Service) Triage(ctx context.Context, symptoms string) (string, error) {
	if strings.TrimSpace(symptoms) == "" {
		return "", fmt.Errorf("symptoms are required")
	}
	prompt := fmt.Sprintf(
		"Perform triage for a patient with these symptoms: %s\n\n"+
			"Reply on one line as URGENCY:<1-5> PRIORITY:<label> WAIT:<minutes> FLAGS:<notes>.",
		symptoms)
	return s.assistant.Complete(ctx, prompt, ai.Options{Temperature: 0.1, MaxTokens: 256}), nil
}

// QuotaStatus exposes the governor snapshot for the operations dashboard.
func (s *Service) QuotaStatus() ai.QuotaStatus {
	return s.governor.Status()
}
