package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. VisitCount is bumped by the visit
// check-in flow, never written directly by callers.
type Patient struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	FatherName        *string   `db:"father_name" json:"father_name,omitempty"`
	Age               int       `db:"age" json:"age"`
	Gender            *string   `db:"gender" json:"gender,omitempty"`
	Phone             string    `db:"phone" json:"phone"`
	Address           *string   `db:"address" json:"address,omitempty"`
	BloodGroup        *string   `db:"blood_group" json:"blood_group,omitempty"`
	Allergies         *string   `db:"allergies" json:"allergies,omitempty"`
	ChronicConditions *string   `db:"chronic_conditions" json:"chronic_conditions,omitempty"`
	VisitCount        int       `db:"visit_count" json:"visit_count"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
