package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/certdesk/certdesk/internal/domain/certificate"
)

// InsuranceType is the patient's health-insurance category.
type InsuranceType string

const (
	InsuranceEmployeeSelf   InsuranceType = "EMPLOYEE_SELF"
	InsuranceEmployeeFamily InsuranceType = "EMPLOYEE_FAMILY"
	InsuranceLife           InsuranceType = "LIFE"
	InsuranceNational       InsuranceType = "NATIONAL"
)

var insuranceLabels = map[InsuranceType]string{
	InsuranceEmployeeSelf:   "社本",
	InsuranceEmployeeFamily: "社家",
	InsuranceLife:           "生保",
	InsuranceNational:       "国保",
}

// Label returns the display label, or the raw value when unknown.
func (t InsuranceType) Label() string {
	if l, ok := insuranceLabels[t]; ok {
		return l
	}
	return string(t)
}

// Status is the patient's lifecycle state across all subsidy tracks.
type Status string

const (
	StatusApplying     Status = "APPLYING"
	StatusDocsHanded   Status = "DOCS_HANDED"
	StatusDocsReceived Status = "DOCS_RECEIVED"
	StatusUpdated      Status = "UPDATED"
	StatusTransferred  Status = "TRANSFERRED"
	StatusStopped      Status = "STOPPED"
)

// Inactive reports whether the patient belongs on the stop list.
func (s Status) Inactive() bool {
	return s == StatusTransferred || s == StatusStopped
}

// ChartProcessing tracks whether the paper chart has been handled before
// and after the visit.
type ChartProcessing struct {
	Pre  bool `json:"pre"`
	Post bool `json:"post"`
}

// Patient is the full aggregate entity: the flat stored row plus the three
// per-track sub-records. Exactly one CertificateStatus and one
// MedicalCertificate exist per track; they are seeded empty at creation and
// only ever mutated.
type Patient struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	NameKana      string        `db:"name_kana" json:"nameKana"`
	ChartNumber   string        `db:"chart_number" json:"chartNumber"`
	InsuranceType InsuranceType `db:"insurance_type" json:"insuranceType"`
	Notes         string        `db:"notes" json:"notes"`
	Status        Status        `db:"status" json:"status"`

	SelfSupport certificate.CertificateStatus `json:"selfSupport"`
	Disability  certificate.CertificateStatus `json:"disability"`
	Pension     certificate.CertificateStatus `json:"pension"`

	SelfSupportCertificate *certificate.MedicalCertificate `json:"selfSupportCertificate,omitempty"`
	DisabilityCertificate  *certificate.MedicalCertificate `json:"disabilityCertificate,omitempty"`
	PensionCertificate     *certificate.MedicalCertificate `json:"pensionCertificate,omitempty"`

	ChartProcessing ChartProcessing `json:"chartProcessing"`
	StoppedAt       *string         `db:"stopped_at" json:"stoppedAt,omitempty"`
	CreatedAt       string          `db:"created_at" json:"createdAt"`
	UpdatedAt       string          `db:"updated_at" json:"updatedAt"`
}

// NewEmptyPatient enumerates every field of a fresh patient so defaulting is
// an explicit contract rather than a merge of partial shapes.
func NewEmptyPatient(now time.Time) *Patient {
	id := uuid.NewString()
	ts := certificate.Timestamp(now)
	return &Patient{
		ID:            id,
		Name:          "",
		NameKana:      "",
		ChartNumber:   "",
		InsuranceType: "",
		Notes:         "",
		Status:        StatusApplying,

		SelfSupport: certificate.NewCertificateStatus(),
		Disability:  certificate.NewCertificateStatus(),
		Pension:     certificate.NewCertificateStatus(),

		SelfSupportCertificate: certificate.NewCertificate(id, certificate.KeySelfSupport, now),
		DisabilityCertificate:  certificate.NewCertificate(id, certificate.KeyDisability, now),
		PensionCertificate:     certificate.NewCertificate(id, certificate.KeyPension, now),

		ChartProcessing: ChartProcessing{},
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

// FillDefaults seeds every absent sub-record on a patient loaded from a flat
// row, preserving all set fields.
func (p *Patient) FillDefaults(now time.Time) {
	if p.Status == "" {
		p.Status = StatusApplying
	}
	if p.SelfSupport.Status == "" {
		p.SelfSupport = certificate.NewCertificateStatus()
	}
	if p.Disability.Status == "" {
		p.Disability = certificate.NewCertificateStatus()
	}
	if p.Pension.Status == "" {
		p.Pension = certificate.NewCertificateStatus()
	}
	if p.SelfSupportCertificate == nil {
		p.SelfSupportCertificate = certificate.NewCertificate(p.ID, certificate.KeySelfSupport, now)
	}
	if p.DisabilityCertificate == nil {
		p.DisabilityCertificate = certificate.NewCertificate(p.ID, certificate.KeyDisability, now)
	}
	if p.PensionCertificate == nil {
		p.PensionCertificate = certificate.NewCertificate(p.ID, certificate.KeyPension, now)
	}
	if p.CreatedAt == "" {
		p.CreatedAt = certificate.Timestamp(now)
	}
	if p.UpdatedAt == "" {
		p.UpdatedAt = certificate.Timestamp(now)
	}
}

// TrackStatus returns the per-track validity window for a subsidy track.
func (p *Patient) TrackStatus(key certificate.TypeKey) *certificate.CertificateStatus {
	switch key {
	case certificate.KeySelfSupport:
		return &p.SelfSupport
	case certificate.KeyDisability:
		return &p.Disability
	case certificate.KeyPension:
		return &p.Pension
	}
	return nil
}

// Certificate returns the tracked certificate for a subsidy track.
func (p *Patient) Certificate(key certificate.TypeKey) *certificate.MedicalCertificate {
	switch key {
	case certificate.KeySelfSupport:
		return p.SelfSupportCertificate
	case certificate.KeyDisability:
		return p.DisabilityCertificate
	case certificate.KeyPension:
		return p.PensionCertificate
	}
	return nil
}

// SetCertificate attaches a certificate to its subsidy track.
func (p *Patient) SetCertificate(key certificate.TypeKey, cert *certificate.MedicalCertificate) {
	switch key {
	case certificate.KeySelfSupport:
		p.SelfSupportCertificate = cert
	case certificate.KeyDisability:
		p.DisabilityCertificate = cert
	case certificate.KeyPension:
		p.PensionCertificate = cert
	}
}

// Touch stamps the patient's updatedAt.
func (p *Patient) Touch(now time.Time) {
	p.UpdatedAt = certificate.Timestamp(now)
}
