package admission

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an admission request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusActive     Status = "active"
	StatusRejected   Status = "rejected"
	StatusDischarged Status = "discharged"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusRejected},
	StatusApproved:   {StatusActive, StatusDischarged},
	StatusActive:     {StatusDischarged},
	StatusRejected:   {},
	StatusDischarged: {},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal admission transition %s -> %s", e.From, e.To)
}

// BedConflictError reports that a bed claim lost to a concurrent approval
// or the bed was otherwise not available.
type BedConflictError struct {
	BedID uuid.UUID
}

func (e *BedConflictError) Error() string {
	return fmt.Sprintf("bed %s is not available", e.BedID)
}

// BedStatus is guarded by the bed state machine: occupied is only entered
// through admission approval and only left through discharge.
type BedStatus string

const (
	BedAvailable   BedStatus = "available"
	BedOccupied    BedStatus = "occupied"
	BedMaintenance BedStatus = "maintenance"
	BedReserved    BedStatus = "reserved"
)

// bedTransitions covers manual status updates only. The occupied state is
// excluded here on purpose.
var bedTransitions = map[BedStatus][]BedStatus{
	BedAvailable:   {BedMaintenance, BedReserved},
	BedMaintenance: {BedAvailable},
	BedReserved:    {BedAvailable},
	BedOccupied:    {},
}

func CanUpdateBedStatus(from, to BedStatus) bool {
	for _, next := range bedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type BedTransitionError struct {
	From BedStatus
	To   BedStatus
}

func (e *BedTransitionError) Error() string {
	return fmt.Sprintf("illegal bed transition %s -> %s", e.From, e.To)
}

type Ward struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Floor     int       `db:"floor" json:"floor"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Bed struct {
	ID        uuid.UUID `db:"id" json:"id"`
	WardID    uuid.UUID `db:"ward_id" json:"ward_id"`
	BedNumber string    `db:"bed_number" json:"bed_number"`
	Status    BedStatus `db:"status" json:"status"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type AdmissionRequest struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	VisitID          uuid.UUID  `db:"visit_id" json:"visit_id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	RequestedBy      uuid.UUID  `db:"requested_by" json:"requested_by"`
	Reason           string     `db:"reason" json:"reason"`
	Urgency          string     `db:"urgency" json:"urgency"`
	WardType         string     `db:"ward_type" json:"ward_type"`
	Status           Status     `db:"status" json:"status"`
	BedID            *uuid.UUID `db:"bed_id" json:"bed_id,omitempty"`
	ApprovedBy       *uuid.UUID `db:"approved_by" json:"approved_by,omitempty"`
	AssignedDoctorID *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id,omitempty"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	DischargedAt     *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
