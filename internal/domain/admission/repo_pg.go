package admission

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carewise/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const admissionCols = `id, visit_id, patient_id, requested_by, reason, urgency, ward_type,
	status, bed_id, approved_by, assigned_doctor_id, approved_at, discharged_at, created_at, updated_at`

func (r *repoPG) CreateAdmission(ctx context.Context, req *AdmissionRequest) error {
	req.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission_request (
			id, visit_id, patient_id, requested_by, reason, urgency, ward_type, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		req.ID, req.VisitID, req.PatientID, req.RequestedBy, req.Reason, req.Urgency,
		req.WardType, StatusPending,
	)
	return err
}

func (r *repoPG) GetAdmissionByID(ctx context.Context, id uuid.UUID) (*AdmissionRequest, error) {
	return scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admission_request WHERE id = $1`, id))
}

func (r *repoPG) ListAdmissions(ctx context.Context, status Status, limit, offset int) ([]*AdmissionRequest, int, error) {
	where := ``
	args := []interface{}{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission_request`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + admissionCols + ` FROM admission_request` + where + ` ORDER BY created_at DESC`
	if status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []*AdmissionRequest
	for rows.Next() {
		req, err := scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, req)
	}
	return reqs, total, rows.Err()
}

func (r *repoPG) Approve(ctx context.Context, id uuid.UUID, bedID, approverID uuid.UUID, doctorID *uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission_request
		SET status = $2, bed_id = $3, approved_by = $4, assigned_doctor_id = $5,
			approved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $6`,
		id, StatusApproved, bedID, approverID, doctorID, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Reject(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission_request SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, StatusRejected, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Discharge(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission_request SET status = $2, discharged_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)`,
		id, StatusDischarged, StatusApproved, StatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ListWards(ctx context.Context) ([]*Ward, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, type, floor, created_at FROM ward ORDER BY floor, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.ID, &w.Name, &w.Type, &w.Floor, &w.CreatedAt); err != nil {
			return nil, err
		}
		wards = append(wards, &w)
	}
	return wards, rows.Err()
}

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	var w Ward
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, type, floor, created_at FROM ward WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.Type, &w.Floor, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repoPG) ListBeds(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error) {
	query := `SELECT id, ward_id, bed_number, status, updated_at FROM bed WHERE ward_id = $1`
	args := []interface{}{wardID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY bed_number`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		var b Bed
		if err := rows.Scan(&b.ID, &b.WardID, &b.BedNumber, &b.Status, &b.UpdatedAt); err != nil {
			return nil, err
		}
		beds = append(beds, &b)
	}
	return beds, rows.Err()
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	var b Bed
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, ward_id, bed_number, status, updated_at FROM bed WHERE id = $1`, id,
	).Scan(&b.ID, &b.WardID, &b.BedNumber, &b.Status, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ClaimBed is the guard against double-booking: the status predicate makes
// concurrent claims on the same bed resolve to exactly one winner.
func (r *repoPG) ClaimBed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed SET status = 'occupied', updated_at = NOW() WHERE id = $1 AND status = 'available'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ReleaseBed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed SET status = 'available', updated_at = NOW() WHERE id = $1 AND status = 'occupied'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) UpdateBedStatus(ctx context.Context, id uuid.UUID, from, to BedStatus) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanAdmission(row pgx.Row) (*AdmissionRequest, error) {
	var req AdmissionRequest
	err := row.Scan(
		&req.ID, &req.VisitID, &req.PatientID, &req.RequestedBy, &req.Reason, &req.Urgency,
		&req.WardType, &req.Status, &req.BedID, &req.ApprovedBy, &req.AssignedDoctorID,
		&req.ApprovedAt, &req.DischargedAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
