package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certdesk/certdesk/internal/platform/db"
)

// queryable abstracts pgxpool.Pool, pgxpool.Conn and pgx.Tx.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// -- Life Insurance Repository --

type lifeInsuranceRepoPG struct {
	pool *pgxpool.Pool
}

func NewLifeInsuranceRepo(pool *pgxpool.Pool) LifeInsuranceRepository {
	return &lifeInsuranceRepoPG{pool: pool}
}

const lifeInsuranceColumns = `id, patient_id, year, month, insurance_type,
	patient_name, certificate_fee, certificate_type, municipality, claim_date,
	difference, notes, claim_recipient, claim_status, created_at, updated_at`

func (r *lifeInsuranceRepoPG) Save(ctx context.Context, rec *LifeInsuranceRecord) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO life_insurance_records (
			id, patient_id, year, month, insurance_type,
			patient_name, certificate_fee, certificate_type, municipality,
			claim_date, difference, notes, claim_recipient, claim_status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16
		)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			year = EXCLUDED.year,
			month = EXCLUDED.month,
			insurance_type = EXCLUDED.insurance_type,
			patient_name = EXCLUDED.patient_name,
			certificate_fee = EXCLUDED.certificate_fee,
			certificate_type = EXCLUDED.certificate_type,
			municipality = EXCLUDED.municipality,
			claim_date = EXCLUDED.claim_date,
			difference = EXCLUDED.difference,
			notes = EXCLUDED.notes,
			claim_recipient = EXCLUDED.claim_recipient,
			claim_status = EXCLUDED.claim_status,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.PatientID, rec.Year, rec.Month, rec.InsuranceType,
		rec.PatientName, rec.CertificateFee, rec.CertificateType, rec.Municipality,
		rec.ClaimDate, rec.Difference, rec.Notes, rec.ClaimRecipient, boolToInt(rec.ClaimStatus.Bool()),
		rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (r *lifeInsuranceRepoPG) Update(ctx context.Context, rec *LifeInsuranceRecord) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE life_insurance_records SET
			patient_id = $2, year = $3, month = $4, insurance_type = $5,
			patient_name = $6, certificate_fee = $7, certificate_type = $8,
			municipality = $9, claim_date = $10, difference = $11, notes = $12,
			claim_recipient = $13, claim_status = $14, updated_at = $15
		WHERE id = $1`,
		rec.ID, rec.PatientID, rec.Year, rec.Month, rec.InsuranceType,
		rec.PatientName, rec.CertificateFee, rec.CertificateType,
		rec.Municipality, rec.ClaimDate, rec.Difference, rec.Notes,
		rec.ClaimRecipient, boolToInt(rec.ClaimStatus.Bool()), rec.UpdatedAt,
	)
	return err
}

func (r *lifeInsuranceRepoPG) List(ctx context.Context) ([]*LifeInsuranceRecord, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+lifeInsuranceColumns+` FROM life_insurance_records ORDER BY year DESC, month DESC, patient_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*LifeInsuranceRecord
	for rows.Next() {
		var rec LifeInsuranceRecord
		var claimStatus int16
		err := rows.Scan(
			&rec.ID, &rec.PatientID, &rec.Year, &rec.Month, &rec.InsuranceType,
			&rec.PatientName, &rec.CertificateFee, &rec.CertificateType, &rec.Municipality,
			&rec.ClaimDate, &rec.Difference, &rec.Notes, &rec.ClaimRecipient, &claimStatus,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.ClaimStatus = claimStatus != 0
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (r *lifeInsuranceRepoPG) Delete(ctx context.Context, id string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM life_insurance_records WHERE id = $1`, id)
	return err
}

// -- Pending Claim Repository --

type pendingClaimRepoPG struct {
	pool *pgxpool.Pool
}

func NewPendingClaimRepo(pool *pgxpool.Pool) PendingClaimRepository {
	return &pendingClaimRepoPG{pool: pool}
}

func (r *pendingClaimRepoPG) Save(ctx context.Context, claim *PendingClaim) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO pending_claims (
			id, patient_id, patient_name, claim_date, amount, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			patient_name = EXCLUDED.patient_name,
			claim_date = EXCLUDED.claim_date,
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes`,
		claim.ID, claim.PatientID, claim.PatientName, claim.ClaimDate,
		claim.Amount, claim.Status, claim.Notes,
	)
	return err
}

func (r *pendingClaimRepoPG) Update(ctx context.Context, claim *PendingClaim) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE pending_claims SET
			patient_id = $2, patient_name = $3, claim_date = $4,
			amount = $5, status = $6, notes = $7
		WHERE id = $1`,
		claim.ID, claim.PatientID, claim.PatientName, claim.ClaimDate,
		claim.Amount, claim.Status, claim.Notes,
	)
	return err
}

func (r *pendingClaimRepoPG) List(ctx context.Context) ([]*PendingClaim, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, patient_name, claim_date, amount, status, notes
		FROM pending_claims ORDER BY claim_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*PendingClaim
	for rows.Next() {
		var c PendingClaim
		if err := rows.Scan(&c.ID, &c.PatientID, &c.PatientName, &c.ClaimDate, &c.Amount, &c.Status, &c.Notes); err != nil {
			return nil, err
		}
		claims = append(claims, &c)
	}
	return claims, rows.Err()
}

func (r *pendingClaimRepoPG) Delete(ctx context.Context, id string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM pending_claims WHERE id = $1`, id)
	return err
}

// -- Insurance Change Repository --

type insuranceChangeRepoPG struct {
	pool *pgxpool.Pool
}

func NewInsuranceChangeRepo(pool *pgxpool.Pool) InsuranceChangeRepository {
	return &insuranceChangeRepoPG{pool: pool}
}

func (r *insuranceChangeRepoPG) Save(ctx context.Context, rec *InsuranceChangeRecord) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO insurance_change_records (
			id, patient_id, patient_name, change_date,
			previous_insurance, new_insurance, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			patient_name = EXCLUDED.patient_name,
			change_date = EXCLUDED.change_date,
			previous_insurance = EXCLUDED.previous_insurance,
			new_insurance = EXCLUDED.new_insurance,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes`,
		rec.ID, rec.PatientID, rec.PatientName, rec.ChangeDate,
		rec.PreviousInsurance, rec.NewInsurance, rec.Status, rec.Notes,
	)
	return err
}

func (r *insuranceChangeRepoPG) Update(ctx context.Context, rec *InsuranceChangeRecord) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE insurance_change_records SET
			patient_id = $2, patient_name = $3, change_date = $4,
			previous_insurance = $5, new_insurance = $6, status = $7, notes = $8
		WHERE id = $1`,
		rec.ID, rec.PatientID, rec.PatientName, rec.ChangeDate,
		rec.PreviousInsurance, rec.NewInsurance, rec.Status, rec.Notes,
	)
	return err
}

func (r *insuranceChangeRepoPG) List(ctx context.Context) ([]*InsuranceChangeRecord, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, patient_name, change_date,
			previous_insurance, new_insurance, status, notes
		FROM insurance_change_records ORDER BY change_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*InsuranceChangeRecord
	for rows.Next() {
		var rec InsuranceChangeRecord
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.PatientName, &rec.ChangeDate,
			&rec.PreviousInsurance, &rec.NewInsurance, &rec.Status, &rec.Notes); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (r *insuranceChangeRepoPG) Delete(ctx context.Context, id string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM insurance_change_records WHERE id = $1`, id)
	return err
}

// -- Message Repository --

type messageRepoPG struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) MessageRepository {
	return &messageRepoPG{pool: pool}
}

func (r *messageRepoPG) Save(ctx context.Context, msg *Message) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO messages (id, date, target_patient, notes, author)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			target_patient = EXCLUDED.target_patient,
			notes = EXCLUDED.notes,
			author = EXCLUDED.author`,
		msg.ID, msg.Date, msg.TargetPatient, msg.Notes, msg.Author,
	)
	return err
}

func (r *messageRepoPG) List(ctx context.Context, limit, offset int) ([]*Message, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, date, target_patient, notes, author
		FROM messages ORDER BY date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Date, &m.TargetPatient, &m.Notes, &m.Author); err != nil {
			return nil, 0, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, total, rows.Err()
}

func (r *messageRepoPG) Delete(ctx context.Context, id string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func boolToInt(b bool) int16 {
	if b {
		return 1
	}
	return 0
}
