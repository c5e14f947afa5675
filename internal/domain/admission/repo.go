package admission

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateAdmission(ctx context.Context, req *AdmissionRequest) error
	GetAdmissionByID(ctx context.Context, id uuid.UUID) (*AdmissionRequest, error)
	ListAdmissions(ctx context.Context, status Status, limit, offset int) ([]*AdmissionRequest, int, error)
	// Approve stamps bed, approver and optional doctor, moving the request
	// out of pending. Returns false when the request was concurrently moved.
	Approve(ctx context.Context, id uuid.UUID, bedID, approverID uuid.UUID, doctorID *uuid.UUID) (bool, error)
	Reject(ctx context.Context, id uuid.UUID) (bool, error)
	Discharge(ctx context.Context, id uuid.UUID) (bool, error)

	ListWards(ctx context.Context) ([]*Ward, error)
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	ListBeds(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error)
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	// ClaimBed conditionally flips an available bed to occupied. False means
	// the bed was not available at claim time.
	ClaimBed(ctx context.Context, id uuid.UUID) (bool, error)
	// ReleaseBed conditionally flips an occupied bed back to available.
	ReleaseBed(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateBedStatus(ctx context.Context, id uuid.UUID, from, to BedStatus) (bool, error)
}
