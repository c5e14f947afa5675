package visit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a visit. Transitions are validated by
// CanTransition; nothing else may flip a visit's status.
type Status string

const (
	StatusWaiting            Status = "waiting"
	StatusInConsultation     Status = "in_consultation"
	StatusCompleted          Status = "completed"
	StatusAdmissionRequested Status = "admission_requested"
)

var transitions = map[Status][]Status{
	StatusWaiting:            {StatusInConsultation},
	StatusInConsultation:     {StatusCompleted},
	StatusCompleted:          {StatusAdmissionRequested},
	StatusAdmissionRequested: {},
}

// CanTransition reports whether from → to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// TransitionError reports an illegal lifecycle step.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal visit transition %s -> %s", e.From, e.To)
}

type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

type Visit struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	Department    string     `db:"department" json:"department"`
	Symptoms      string     `db:"symptoms" json:"symptoms"`
	Diagnosis     *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Status        Status     `db:"status" json:"status"`
	Priority      Priority   `db:"priority" json:"priority"`
	TokenNumber   int        `db:"token_number" json:"token_number"`
	QueuePosition int        `db:"queue_position" json:"queue_position"`
	CheckedInAt   time.Time  `db:"checked_in_at" json:"checked_in_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Consultation is the clinical record a physician files to close a visit.
// It is persisted before the visit status flips to completed.
type Consultation struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	VisitID      uuid.UUID  `db:"visit_id" json:"visit_id"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Notes        string     `db:"notes" json:"notes"`
	Diagnosis    *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription *string    `db:"prescription" json:"prescription,omitempty"`
	FollowUpDate *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
