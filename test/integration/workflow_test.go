package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewise/hms/internal/domain/admission"
	"github.com/carewise/hms/internal/domain/patient"
	"github.com/carewise/hms/internal/domain/visit"
)

func newServices(t *testing.T) (*patient.Service, *visit.Service, *admission.Service) {
	t.Helper()
	logger := zerolog.Nop()
	patientRepo := patient.NewRepo(globalDB.Pool)
	patientSvc := patient.NewService(patientRepo, logger)
	visitSvc := visit.NewService(visit.NewRepo(globalDB.Pool), patientRepo, globalDB.Pool, logger)
	admissionSvc := admission.NewService(admission.NewRepo(globalDB.Pool), visitSvc, globalDB.Pool, logger)
	return patientSvc, visitSvc, admissionSvc
}

func registerPatient(t *testing.T, svc *patient.Service, name string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{Name: name, Age: 40, Phone: "0300-5551234"}
	if err := svc.RegisterPatient(context.Background(), p); err != nil {
		t.Fatalf("register patient: %v", err)
	}
	return p
}

func seedWardWithBed(t *testing.T) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	wardID, bedID := uuid.New(), uuid.New()
	if _, err := globalDB.Pool.Exec(ctx,
		`INSERT INTO ward (id, name, type, floor) VALUES ($1, $2, 'general', 1)`,
		wardID, "Ward "+wardID.String()[:8]); err != nil {
		t.Fatalf("seed ward: %v", err)
	}
	if _, err := globalDB.Pool.Exec(ctx,
		`INSERT INTO bed (id, ward_id, bed_number, status) VALUES ($1, $2, 'B-1', 'available')`,
		bedID, wardID); err != nil {
		t.Fatalf("seed bed: %v", err)
	}
	return wardID, bedID
}

// TestClinicalWorkflow walks one patient through the whole lifecycle:
// registration, check-in, consultation, admission and discharge.
func TestClinicalWorkflow(t *testing.T) {
	ctx := context.Background()
	patientSvc, visitSvc, admissionSvc := newServices(t)
	doctor := uuid.New()

	p := registerPatient(t, patientSvc, "Workflow Patient")

	v := &visit.Visit{
		PatientID:  p.ID,
		DoctorID:   &doctor,
		Department: "workflow-general",
		Symptoms:   "persistent fever and abdominal pain",
	}
	if err := visitSvc.CheckIn(ctx, v); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if v.TokenNumber == 0 || v.QueuePosition == 0 {
		t.Fatalf("expected queue slot assigned, got token=%d position=%d", v.TokenNumber, v.QueuePosition)
	}

	got, err := patientSvc.GetPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if got.VisitCount != 1 {
		t.Errorf("expected visit_count 1 after check-in, got %d", got.VisitCount)
	}

	called, err := visitSvc.CallNext(ctx, doctor)
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if called == nil || called.ID != v.ID {
		t.Fatal("expected the checked-in visit to be called")
	}

	diagnosis := "1. Typhoid Fever | 2. Appendicitis"
	completed, err := visitSvc.CompleteConsultation(ctx, v.ID, &visit.Consultation{
		DoctorID:  doctor,
		Notes:     "advised admission for observation",
		Diagnosis: &diagnosis,
	})
	if err != nil {
		t.Fatalf("complete consultation: %v", err)
	}
	if completed.Status != visit.StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	req := &admission.AdmissionRequest{
		VisitID:     v.ID,
		RequestedBy: doctor,
		Reason:      "observation for suspected typhoid",
		Urgency:     "high",
		WardType:    "general",
	}
	if err := admissionSvc.RequestAdmission(ctx, req); err != nil {
		t.Fatalf("request admission: %v", err)
	}

	stored, err := visitSvc.GetVisit(ctx, v.ID)
	if err != nil {
		t.Fatalf("get visit: %v", err)
	}
	if stored.Status != visit.StatusAdmissionRequested {
		t.Errorf("expected admission_requested, got %s", stored.Status)
	}

	_, bedID := seedWardWithBed(t)
	approved, err := admissionSvc.Approve(ctx, req.ID, bedID, uuid.New(), &doctor)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != admission.StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}

	beds, err := admissionSvc.ListBeds(ctx, *wardOf(t, bedID), admission.BedOccupied)
	if err != nil {
		t.Fatalf("list beds: %v", err)
	}
	if len(beds) != 1 {
		t.Fatalf("expected exactly one occupied bed, got %d", len(beds))
	}

	discharged, err := admissionSvc.Discharge(ctx, req.ID)
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if discharged.Status != admission.StatusDischarged {
		t.Fatalf("expected discharged, got %s", discharged.Status)
	}

	bed, err := admission.NewRepo(globalDB.Pool).GetBed(ctx, bedID)
	if err != nil {
		t.Fatalf("get bed: %v", err)
	}
	if bed.Status != admission.BedAvailable {
		t.Errorf("bed should be released on discharge, got %s", bed.Status)
	}
}

func wardOf(t *testing.T, bedID uuid.UUID) *uuid.UUID {
	t.Helper()
	bed, err := admission.NewRepo(globalDB.Pool).GetBed(context.Background(), bedID)
	if err != nil {
		t.Fatalf("get bed: %v", err)
	}
	return &bed.WardID
}

// TestQueueOrdering verifies the per-department daily sequence and the
// consultation order against the real SQL.
func TestQueueOrdering(t *testing.T) {
	ctx := context.Background()
	patientSvc, visitSvc, _ := newServices(t)
	doctor := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		p := registerPatient(t, patientSvc, "Queue Patient")
		v := &visit.Visit{
			PatientID:  p.ID,
			DoctorID:   &doctor,
			Department: "queue-test",
			Symptoms:   "cough",
		}
		if err := visitSvc.CheckIn(ctx, v); err != nil {
			t.Fatalf("check-in %d: %v", i, err)
		}
		ids = append(ids, v.ID)
	}

	line, err := visitSvc.Queue(ctx, doctor)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(line) != 3 {
		t.Fatalf("expected 3 waiting visits, got %d", len(line))
	}
	for i, v := range line {
		if v.ID != ids[i] {
			t.Errorf("position %d: expected check-in order preserved", i)
		}
		if i > 0 && line[i].QueuePosition <= line[i-1].QueuePosition {
			t.Errorf("queue positions not ascending at %d", i)
		}
	}

	first, err := visitSvc.CallNext(ctx, doctor)
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if first.ID != ids[0] {
		t.Error("call-next should pick the lowest queue position")
	}
}

// TestConcurrentBedApproval exercises the conditional bed claim under real
// database concurrency: exactly one of two approvals may win the bed.
func TestConcurrentBedApproval(t *testing.T) {
	ctx := context.Background()
	patientSvc, visitSvc, admissionSvc := newServices(t)
	doctor := uuid.New()
	_, bedID := seedWardWithBed(t)

	makeRequest := func() *admission.AdmissionRequest {
		p := registerPatient(t, patientSvc, "Race Patient")
		v := &visit.Visit{PatientID: p.ID, DoctorID: &doctor, Department: "race-test", Symptoms: "fever"}
		if err := visitSvc.CheckIn(ctx, v); err != nil {
			t.Fatalf("check-in: %v", err)
		}
		if _, err := visitSvc.CallNext(ctx, doctor); err != nil {
			t.Fatalf("call next: %v", err)
		}
		if _, err := visitSvc.CompleteConsultation(ctx, v.ID, &visit.Consultation{DoctorID: doctor, Notes: "n"}); err != nil {
			t.Fatalf("complete: %v", err)
		}
		req := &admission.AdmissionRequest{VisitID: v.ID, RequestedBy: doctor, Reason: "observation"}
		if err := admissionSvc.RequestAdmission(ctx, req); err != nil {
			t.Fatalf("request: %v", err)
		}
		return req
	}

	first := makeRequest()
	second := makeRequest()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = admissionSvc.Approve(ctx, id, bedID, uuid.New(), nil)
		}(i, id)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		if _, ok := err.(*admission.BedConflictError); ok {
			conflicts++
		} else {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("expected one winner and one conflict, got %d/%d", wins, conflicts)
	}
}
