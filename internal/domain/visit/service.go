package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carewise/hms/internal/platform/db"
	"github.com/carewise/hms/internal/platform/retry"
)

// PatientCounter is the slice of the patient service check-in needs.
type PatientCounter interface {
	IncrementVisitCount(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo        Repository
	patients    PatientCounter
	pool        *pgxpool.Pool
	logger      zerolog.Logger
	listPolicy  retry.Policy
	queuePolicy retry.Policy
}

func NewService(repo Repository, patients PatientCounter, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		pool:     pool,
		logger:   logger,
		listPolicy: retry.Policy{
			Name:        "visit-list",
			MaxAttempts: 3,
			Backoff:     retry.Linear(2 * time.Second),
		},
		queuePolicy: retry.Policy{
			Name:        "visit-queue",
			MaxAttempts: 3,
			Backoff:     retry.Exponential(2*time.Second, 10*time.Second),
		},
	}
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

// CheckIn registers a new visit. Queue position and token are assigned
// inside the transaction together with the patient visit counter bump.
func (s *Service) CheckIn(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.Department == "" {
		return fmt.Errorf("department is required")
	}

	v.Status = StatusWaiting
	if v.Priority == "" {
		v.Priority = Assess(v.Symptoms).Priority
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		return s.patients.IncrementVisitCount(ctx, v.PatientID)
	})
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// ListVisits degrades to an empty page when the store keeps failing, so
// dashboards stay usable during transient outages.
func (s *Service) ListVisits(ctx context.Context, filter ListFilter, limit, offset int) ([]*Visit, int) {
	type page struct {
		visits []*Visit
		total  int
	}
	result := retry.DoValueOrDefault(ctx, s.listPolicy, s.logger, func(ctx context.Context) (page, error) {
		visits, total, err := s.repo.List(ctx, filter, limit, offset)
		if err != nil {
			return page{}, err
		}
		return page{visits: visits, total: total}, nil
	})
	return result.visits, result.total
}

// UpdateStatus applies one lifecycle step. The store-level conditional
// update guards against concurrent movers.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Visit, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("unknown visit status %q", to)
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(v.Status, to) {
		return nil, &TransitionError{From: v.Status, To: to}
	}
	moved, err := s.repo.UpdateStatus(ctx, id, v.Status, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, &TransitionError{From: v.Status, To: to}
	}
	v.Status = to
	return v, nil
}

// CallNext moves the doctor's lowest-position waiting visit into
// consultation. Returns (nil, nil) when nobody is waiting.
func (s *Service) CallNext(ctx context.Context, doctorID uuid.UUID) (*Visit, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	v, err := s.repo.ClaimNext(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		s.logger.Info().Str("doctor_id", doctorID.String()).Msg("call-next: no waiting visits")
		return nil, nil
	}
	return v, nil
}

// CompleteConsultation persists the consultation record first, then flips
// the visit to completed. Both happen in one transaction.
func (s *Service) CompleteConsultation(ctx context.Context, visitID uuid.UUID, c *Consultation) (*Visit, error) {
	if c.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusInConsultation {
		return nil, &TransitionError{From: v.Status, To: StatusCompleted}
	}

	c.VisitID = visitID
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateConsultation(ctx, c); err != nil {
			return err
		}
		if c.Diagnosis != nil && *c.Diagnosis != "" {
			if err := s.repo.SetDiagnosis(ctx, visitID, *c.Diagnosis); err != nil {
				return err
			}
		}
		moved, err := s.repo.UpdateStatus(ctx, visitID, StatusInConsultation, StatusCompleted)
		if err != nil {
			return err
		}
		if !moved {
			return &TransitionError{From: v.Status, To: StatusCompleted}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	v.Status = StatusCompleted
	v.Diagnosis = c.Diagnosis
	return v, nil
}

// RecordDiagnosis writes extracted diagnosis text onto the visit.
func (s *Service) RecordDiagnosis(ctx context.Context, visitID uuid.UUID, diagnosis string) error {
	if diagnosis == "" {
		return fmt.Errorf("diagnosis is required")
	}
	return s.repo.SetDiagnosis(ctx, visitID, diagnosis)
}

// Queue returns the doctor's waiting line in consultation order. Unlike the
// dashboard listing this does not degrade; callers need the real line.
func (s *Service) Queue(ctx context.Context, doctorID uuid.UUID) ([]*Visit, error) {
	return retry.DoValue(ctx, s.queuePolicy, s.logger, func(ctx context.Context) ([]*Visit, error) {
		return s.repo.ListWaiting(ctx, doctorID)
	})
}

// Triage derives an assessment from the visit's recorded symptoms.
func (s *Service) Triage(ctx context.Context, visitID uuid.UUID) (*TriageAssessment, error) {
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	a := Assess(v.Symptoms)
	return &a, nil
}
