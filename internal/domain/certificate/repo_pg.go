package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certdesk/certdesk/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// queryable abstracts pgxpool.Pool, pgxpool.Conn and pgx.Tx.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const certColumns = `id, patient_id, type, application_date, completion_date,
	initial_start_date, start_date, valid_from, valid_until, status, grade,
	limit_amount, needs_certificate, send_date, progress, created_at, updated_at`

func (r *repoPG) Save(ctx context.Context, cert *MedicalCertificate) error {
	progress, err := marshalProgress(cert.Progress)
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO certificates (
			id, patient_id, type, application_date, completion_date,
			initial_start_date, start_date, valid_from, valid_until, status,
			grade, limit_amount, needs_certificate, send_date, progress,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17
		)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			type = EXCLUDED.type,
			application_date = EXCLUDED.application_date,
			completion_date = EXCLUDED.completion_date,
			initial_start_date = EXCLUDED.initial_start_date,
			start_date = EXCLUDED.start_date,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			status = EXCLUDED.status,
			grade = EXCLUDED.grade,
			limit_amount = EXCLUDED.limit_amount,
			needs_certificate = EXCLUDED.needs_certificate,
			send_date = EXCLUDED.send_date,
			progress = EXCLUDED.progress,
			updated_at = EXCLUDED.updated_at`,
		cert.ID, cert.PatientID, cert.Type, cert.ApplicationDate, cert.CompletionDate,
		cert.InitialStartDate, cert.StartDate, cert.ValidFrom, cert.ValidUntil, nullableStatus(cert.Status),
		cert.Grade, cert.LimitAmount, boolToInt(cert.NeedsCertificate.Bool()), cert.SendDate, progress,
		cert.CreatedAt, cert.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, cert *MedicalCertificate) error {
	var existing string
	err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM certificates WHERE id = $1`, cert.ID).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.Save(ctx, cert)
	}
	if err != nil {
		return err
	}

	progress, err := marshalProgress(cert.Progress)
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE certificates SET
			patient_id = $2, type = $3, application_date = $4, completion_date = $5,
			initial_start_date = $6, start_date = $7, valid_from = $8,
			valid_until = $9, status = $10, grade = $11, limit_amount = $12,
			needs_certificate = $13, send_date = $14, progress = $15, updated_at = $16
		WHERE id = $1`,
		cert.ID, cert.PatientID, cert.Type, cert.ApplicationDate, cert.CompletionDate,
		cert.InitialStartDate, cert.StartDate, cert.ValidFrom,
		cert.ValidUntil, nullableStatus(cert.Status), cert.Grade, cert.LimitAmount,
		boolToInt(cert.NeedsCertificate.Bool()), cert.SendDate, progress, cert.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*MedicalCertificate, error) {
	return r.scanCert(r.conn(ctx).QueryRow(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context) ([]*MedicalCertificate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+certColumns+` FROM certificates ORDER BY patient_id, type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*MedicalCertificate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE patient_id = $1 ORDER BY type`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	return err
}

func (r *repoPG) collect(rows pgx.Rows) ([]*MedicalCertificate, error) {
	var certs []*MedicalCertificate
	for rows.Next() {
		cert, err := r.scanCert(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}

func (r *repoPG) scanCert(row pgx.Row) (*MedicalCertificate, error) {
	var m MedicalCertificate
	var status *string
	var needsCert int16
	var progress *string
	err := row.Scan(
		&m.ID, &m.PatientID, &m.Type, &m.ApplicationDate, &m.CompletionDate,
		&m.InitialStartDate, &m.StartDate, &m.ValidFrom, &m.ValidUntil, &status,
		&m.Grade, &m.LimitAmount, &needsCert, &m.SendDate, &progress,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if status != nil {
		m.Status = Status(*status)
	}
	m.NeedsCertificate = needsCert != 0

	p, err := unmarshalProgress(progress)
	if err != nil {
		return nil, fmt.Errorf("decode progress for %s: %w", m.ID, err)
	}
	m.Progress = p

	return &m, nil
}

// marshalProgress serializes the checklist as a JSON string, or NULL when
// nothing has been checked, mirroring how rows cross the API.
func marshalProgress(p Progress) (*string, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode progress: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func unmarshalProgress(raw *string) (Progress, error) {
	var p Progress
	if raw == nil || *raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(*raw), &p); err != nil {
		return p, err
	}
	return p, nil
}

func nullableStatus(s Status) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

func boolToInt(b bool) int16 {
	if b {
		return 1
	}
	return 0
}
