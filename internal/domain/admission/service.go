package admission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carewise/hms/internal/domain/visit"
	"github.com/carewise/hms/internal/platform/db"
)

// VisitMover is the slice of the visit service admission needs: moving a
// completed visit into admission_requested.
type VisitMover interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to visit.Status) (*visit.Visit, error)
}

type Service struct {
	repo   Repository
	visits VisitMover
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewService(repo Repository, visits VisitMover, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{repo: repo, visits: visits, pool: pool, logger: logger}
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

// RequestAdmission files a request against a completed visit and moves the
// visit to admission_requested in the same transaction.
func (s *Service) RequestAdmission(ctx context.Context, req *AdmissionRequest) error {
	if req.VisitID == uuid.Nil {
		return fmt.Errorf("visit_id is required")
	}
	if req.RequestedBy == uuid.Nil {
		return fmt.Errorf("requested_by is required")
	}
	if req.Reason == "" {
		return fmt.Errorf("reason is required")
	}

	v, err := s.visits.GetVisit(ctx, req.VisitID)
	if err != nil {
		return fmt.Errorf("visit lookup: %w", err)
	}
	req.PatientID = v.PatientID
	req.Status = StatusPending

	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.visits.UpdateStatus(ctx, req.VisitID, visit.StatusAdmissionRequested); err != nil {
			return err
		}
		return s.repo.CreateAdmission(ctx, req)
	})
}

func (s *Service) GetAdmission(ctx context.Context, id uuid.UUID) (*AdmissionRequest, error) {
	return s.repo.GetAdmissionByID(ctx, id)
}

func (s *Service) ListAdmissions(ctx context.Context, status Status, limit, offset int) ([]*AdmissionRequest, int, error) {
	return s.repo.ListAdmissions(ctx, status, limit, offset)
}

// Approve runs the compound approval in one transaction: claim the bed with
// a conditional update, then stamp the request. A lost bed claim rolls the
// whole operation back and surfaces a conflict; the request stays pending.
func (s *Service) Approve(ctx context.Context, id, bedID, approverID uuid.UUID, doctorID *uuid.UUID) (*AdmissionRequest, error) {
	if bedID == uuid.Nil {
		return nil, fmt.Errorf("bed_id is required")
	}
	if approverID == uuid.Nil {
		return nil, fmt.Errorf("approved_by is required")
	}

	req, err := s.repo.GetAdmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &TransitionError{From: req.Status, To: StatusApproved}
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		claimed, err := s.repo.ClaimBed(ctx, bedID)
		if err != nil {
			return err
		}
		if !claimed {
			return &BedConflictError{BedID: bedID}
		}
		moved, err := s.repo.Approve(ctx, id, bedID, approverID, doctorID)
		if err != nil {
			return err
		}
		if !moved {
			return &TransitionError{From: req.Status, To: StatusApproved}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetAdmissionByID(ctx, id)
}

// Reject has no bed side effect.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*AdmissionRequest, error) {
	req, err := s.repo.GetAdmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	moved, err := s.repo.Reject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, &TransitionError{From: req.Status, To: StatusRejected}
	}
	req.Status = StatusRejected
	return req, nil
}

// Discharge releases the bed in the same transaction shape as approval. A
// bed found not occupied at discharge time means some out-of-band process
// touched it; the admission still completes but the gap is logged.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID) (*AdmissionRequest, error) {
	req, err := s.repo.GetAdmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(req.Status, StatusDischarged) {
		return nil, &TransitionError{From: req.Status, To: StatusDischarged}
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		moved, err := s.repo.Discharge(ctx, id)
		if err != nil {
			return err
		}
		if !moved {
			return &TransitionError{From: req.Status, To: StatusDischarged}
		}
		if req.BedID != nil {
			released, err := s.repo.ReleaseBed(ctx, *req.BedID)
			if err != nil {
				return err
			}
			if !released {
				s.logger.Warn().
					Str("admission_id", id.String()).
					Str("bed_id", req.BedID.String()).
					Msg("discharge: bed was not occupied")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetAdmissionByID(ctx, id)
}

func (s *Service) ListWards(ctx context.Context) ([]*Ward, error) {
	return s.repo.ListWards(ctx)
}

func (s *Service) ListBeds(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error) {
	return s.repo.ListBeds(ctx, wardID, status)
}

// UpdateBedStatus applies manual bed maintenance moves. Occupied is never a
// legal target here; that state belongs to the approval flow.
func (s *Service) UpdateBedStatus(ctx context.Context, id uuid.UUID, to BedStatus) (*Bed, error) {
	b, err := s.repo.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanUpdateBedStatus(b.Status, to) {
		return nil, &BedTransitionError{From: b.Status, To: to}
	}
	moved, err := s.repo.UpdateBedStatus(ctx, id, b.Status, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, &BedTransitionError{From: b.Status, To: to}
	}
	b.Status = to
	return b, nil
}
