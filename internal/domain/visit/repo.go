package visit

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows visit listings. Zero values mean "any".
type ListFilter struct {
	Status   Status
	DoctorID *uuid.UUID
}

type Repository interface {
	// Create inserts the visit, assigning queue position and token number
	// from the department's daily sequence. Run inside a transaction.
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Visit, int, error)
	// ListWaiting returns a doctor's waiting visits ordered by queue
	// position, ties broken by check-in time.
	ListWaiting(ctx context.Context, doctorID uuid.UUID) ([]*Visit, error)
	// ClaimNext atomically moves the doctor's lowest-position waiting visit
	// to in_consultation. Returns nil when no visit is waiting.
	ClaimNext(ctx context.Context, doctorID uuid.UUID) (*Visit, error)
	// UpdateStatus flips status only when the stored status still equals
	// from. Returns false when the visit was concurrently moved.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
	SetDiagnosis(ctx context.Context, id uuid.UUID, diagnosis string) error
	CreateConsultation(ctx context.Context, c *Consultation) error
	GetConsultation(ctx context.Context, visitID uuid.UUID) (*Consultation, error)
}
