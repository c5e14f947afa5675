package visit

import (
	"context"
	"errors"
	"fmt"

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

const visitCols = `id, patient_id, doctor_id, department, symptoms, diagnosis,
	status, priority, token_number, queue_position, checked_in_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	// Token and queue position come from the department's daily sequence.
	// Two same-department check-ins racing under READ COMMITTED can read
	// the same MAX and collide on position; ordering stays deterministic
	// because all queue reads tie-break on checked_in_at.
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visit (
			id, patient_id, doctor_id, department, symptoms, status, priority,
			token_number, queue_position, checked_in_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7,
			COALESCE(MAX(token_number), 0) + 1,
			COALESCE(MAX(queue_position), 0) + 1,
			NOW()
		FROM visit
		WHERE department = $4 AND checked_in_at::date = CURRENT_DATE
		RETURNING token_number, queue_position, checked_in_at`,
		v.ID, v.PatientID, v.DoctorID, v.Department, v.Symptoms, v.Status, v.Priority,
	).Scan(&v.TokenNumber, &v.QueuePosition, &v.CheckedInAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Visit, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		where += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM visit`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visit`+where+
			fmt.Sprintf(` ORDER BY checked_in_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	visits, err := collectVisits(rows)
	if err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

func (r *repoPG) ListWaiting(ctx context.Context, doctorID uuid.UUID) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visit
		WHERE status = 'waiting' AND doctor_id = $1
		ORDER BY queue_position ASC, checked_in_at ASC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

func (r *repoPG) ClaimNext(ctx context.Context, doctorID uuid.UUID) (*Visit, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE visit SET status = 'in_consultation', updated_at = NOW()
		WHERE id = (
			SELECT id FROM visit
			WHERE status = 'waiting' AND doctor_id = $1
			ORDER BY queue_position ASC, checked_in_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+visitCols, doctorID)
	v, err := scanVisit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE visit SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) SetDiagnosis(ctx context.Context, id uuid.UUID, diagnosis string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE visit SET diagnosis = $2, updated_at = NOW() WHERE id = $1`, id, diagnosis)
	return err
}

func (r *repoPG) CreateConsultation(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation (id, visit_id, doctor_id, notes, diagnosis, prescription, follow_up_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.VisitID, c.DoctorID, c.Notes, c.Diagnosis, c.Prescription, c.FollowUpDate,
	)
	return err
}

func (r *repoPG) GetConsultation(ctx context.Context, visitID uuid.UUID) (*Consultation, error) {
	var c Consultation
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, doctor_id, notes, diagnosis, prescription, follow_up_date, created_at
		FROM consultation WHERE visit_id = $1`, visitID,
	).Scan(&c.ID, &c.VisitID, &c.DoctorID, &c.Notes, &c.Diagnosis, &c.Prescription, &c.FollowUpDate, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(
		&v.ID, &v.PatientID, &v.DoctorID, &v.Department, &v.Symptoms, &v.Diagnosis,
		&v.Status, &v.Priority, &v.TokenNumber, &v.QueuePosition, &v.CheckedInAt,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows) ([]*Visit, error) {
	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
