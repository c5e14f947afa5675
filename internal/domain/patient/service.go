package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewise/hms/internal/platform/retry"
)

type Service struct {
	repo         Repository
	logger       zerolog.Logger
	searchPolicy retry.Policy
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		searchPolicy: retry.Policy{
			Name:        "patient-search",
			MaxAttempts: 3,
			Backoff:     retry.Linear(1000 * time.Millisecond),
		},
	}
}

func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Age < 0 || p.Age > 150 {
		return fmt.Errorf("age must be between 0 and 150")
	}
	if p.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

type searchResult struct {
	patients []*Patient
	total    int
}

// SearchPatients retries transient store failures before giving up.
func (s *Service) SearchPatients(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	result, err := retry.DoValue(ctx, s.searchPolicy, s.logger, func(ctx context.Context) (searchResult, error) {
		patients, total, err := s.repo.Search(ctx, query, limit, offset)
		if err != nil {
			return searchResult{}, err
		}
		return searchResult{patients: patients, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.patients, result.total, nil
}
