package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/certdesk/certdesk/internal/domain/patient"
	"github.com/certdesk/certdesk/pkg/wire"
)

// LifeInsuranceRecord maps to the life_insurance_records table. One row per
// patient per billing month.
type LifeInsuranceRecord struct {
	ID              string       `db:"id" json:"id"`
	PatientID       string       `db:"patient_id" json:"patientId"`
	Year            int          `db:"year" json:"year"`
	Month           int          `db:"month" json:"month"`
	InsuranceType   string       `db:"insurance_type" json:"insuranceType"`
	PatientName     string       `db:"patient_name" json:"patientName"`
	CertificateFee  int          `db:"certificate_fee" json:"certificateFee"`
	CertificateType string       `db:"certificate_type" json:"certificateType"`
	Municipality    string       `db:"municipality" json:"municipality"`
	ClaimDate       *string      `db:"claim_date" json:"claimDate,omitempty"`
	Difference      *string      `db:"difference" json:"difference,omitempty"`
	Notes           string       `db:"notes" json:"notes"`
	ClaimRecipient  string       `db:"claim_recipient" json:"claimRecipient"`
	ClaimStatus     wire.IntBool `db:"claim_status" json:"claimStatus"`
	CreatedAt       string       `db:"created_at" json:"createdAt"`
	UpdatedAt       string       `db:"updated_at" json:"updatedAt"`
}

// PendingClaimStatus is the seed status of a freshly parked claim.
const PendingClaimStatus = "保留中"

// PendingClaim maps to the pending_claims table.
type PendingClaim struct {
	ID          string  `db:"id" json:"id"`
	PatientID   string  `db:"patient_id" json:"patientId"`
	PatientName string  `db:"patient_name" json:"patientName"`
	ClaimDate   *string `db:"claim_date" json:"claimDate,omitempty"`
	Amount      int     `db:"amount" json:"amount"`
	Status      string  `db:"status" json:"status"`
	Notes       string  `db:"notes" json:"notes"`
}

// InsuranceChangeStatus is the seed status of a new insurance-change entry.
const InsuranceChangeStatus = "未対応"

// InsuranceChangeRecord maps to the insurance_change_records table.
type InsuranceChangeRecord struct {
	ID                string  `db:"id" json:"id"`
	PatientID         string  `db:"patient_id" json:"patientId"`
	PatientName       string  `db:"patient_name" json:"patientName"`
	ChangeDate        *string `db:"change_date" json:"changeDate,omitempty"`
	PreviousInsurance string  `db:"previous_insurance" json:"previousInsurance"`
	NewInsurance      string  `db:"new_insurance" json:"newInsurance"`
	Status            string  `db:"status" json:"status"`
	Notes             string  `db:"notes" json:"notes"`
}

// DefaultAuthor is recorded on messages posted without an author name.
const DefaultAuthor = "未設定"

// Message maps to the messages table (the staff message board).
type Message struct {
	ID            string  `db:"id" json:"id"`
	Date          string  `db:"date" json:"date"`
	TargetPatient *string `db:"target_patient" json:"targetPatient,omitempty"`
	Notes         string  `db:"notes" json:"notes"`
	Author        string  `db:"author" json:"author"`
}

// NewLifeInsuranceRecord builds the billing entry created when a patient is
// moved onto the life-insurance list. The claim date carries no time
// component and the fee starts at zero for manual entry.
func NewLifeInsuranceRecord(p *patient.Patient, municipality string, now time.Time) *LifeInsuranceRecord {
	claimDate := now.UTC().Format("2006-01-02")
	ts := now.UTC().Format(time.RFC3339)
	return &LifeInsuranceRecord{
		ID:            fmt.Sprintf("record-%d-%s", now.UnixMilli(), p.ID),
		PatientID:     p.ID,
		Year:          now.Year(),
		Month:         int(now.Month()),
		InsuranceType: string(p.InsuranceType),
		PatientName:   p.Name,
		Municipality:  municipality,
		ClaimDate:     &claimDate,
		ClaimStatus:   false,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
}

// NewPendingClaim parks a patient's claim for later handling.
func NewPendingClaim(p *patient.Patient, now time.Time) *PendingClaim {
	claimDate := now.UTC().Format("2006-01-02")
	return &PendingClaim{
		ID:          fmt.Sprintf("claim-%d-%s", now.UnixMilli(), p.ID),
		PatientID:   p.ID,
		PatientName: p.Name,
		ClaimDate:   &claimDate,
		Status:      PendingClaimStatus,
	}
}

// NewInsuranceChangeRecord opens a change entry when a patient's insurance
// switches from one category to another.
func NewInsuranceChangeRecord(p *patient.Patient, previous, next string, now time.Time) *InsuranceChangeRecord {
	changeDate := now.UTC().Format(time.RFC3339)
	return &InsuranceChangeRecord{
		ID:                uuid.NewString(),
		PatientID:         p.ID,
		PatientName:       p.Name,
		ChangeDate:        &changeDate,
		PreviousInsurance: previous,
		NewInsurance:      next,
		Status:            InsuranceChangeStatus,
	}
}

// NewMessage posts a board entry. An empty author falls back to the default.
func NewMessage(notes, author, targetPatient string, now time.Time) *Message {
	m := &Message{
		ID:     uuid.NewString(),
		Date:   now.UTC().Format(time.RFC3339),
		Notes:  notes,
		Author: author,
	}
	if m.Author == "" {
		m.Author = DefaultAuthor
	}
	if targetPatient != "" {
		m.TargetPatient = &targetPatient
	}
	return m
}
