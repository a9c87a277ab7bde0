package certificate

import (
	"fmt"
	"regexp"
	"time"

	"github.com/certdesk/certdesk/pkg/wire"
)

// TypeKey identifies a subsidy track in ids and API payloads.
type TypeKey string

const (
	KeySelfSupport TypeKey = "selfSupport"
	KeyDisability  TypeKey = "disability"
	KeyPension     TypeKey = "pension"
)

// Type is the display label of a subsidy track as stored on certificate rows.
type Type string

const (
	TypeSelfSupport Type = "自立支援"
	TypeDisability  Type = "手帳"
	TypePension     Type = "年金"
)

// typesByKey and keysByType form a bidirectional mapping between tracks and
// their display labels.
var typesByKey = map[TypeKey]Type{
	KeySelfSupport: TypeSelfSupport,
	KeyDisability:  TypeDisability,
	KeyPension:     TypePension,
}

var keysByType = map[Type]TypeKey{
	TypeSelfSupport: KeySelfSupport,
	TypeDisability:  KeyDisability,
	TypePension:     KeyPension,
}

// TypeForKey returns the display label for a track key.
func TypeForKey(key TypeKey) (Type, bool) {
	t, ok := typesByKey[key]
	return t, ok
}

// KeyForType returns the track key for a display label.
func KeyForType(t Type) (TypeKey, bool) {
	k, ok := keysByType[t]
	return k, ok
}

// AllKeys lists the three subsidy tracks in their fixed order.
func AllKeys() []TypeKey {
	return []TypeKey{KeySelfSupport, KeyDisability, KeyPension}
}

// Status is the lifecycle state of a certificate within one subsidy track.
type Status string

const (
	StatusApplying     Status = "APPLYING"
	StatusActive       Status = "ACTIVE"
	StatusOnHold       Status = "ONHOLD"
	StatusExpired      Status = "EXPIRED"
	StatusNeedsRenewal Status = "NEEDS_RENEWAL"
)

var statusLabels = map[Status]string{
	StatusApplying:     "申請中",
	StatusActive:       "適用中",
	StatusOnHold:       "保留中",
	StatusExpired:      "期限切れ",
	StatusNeedsRenewal: "未更新",
}

// Label returns the display label for a status, or the raw value when the
// status is unknown.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// RenewalSentinel is the status a track moves to when a tracked certificate
// leaves new-application handling and enters renewal management. Self-support
// goes on hold; handbook and pension are marked not yet renewed.
func RenewalSentinel(key TypeKey) Status {
	if key == KeySelfSupport {
		return StatusOnHold
	}
	return StatusNeedsRenewal
}

// CertificateStatus is the per-track validity window kept on the patient.
type CertificateStatus struct {
	ApplicationDate *string `json:"applicationDate,omitempty"`
	CompletionDate  *string `json:"completionDate,omitempty"`
	ValidFrom       *string `json:"validFrom,omitempty"`
	ValidUntil      *string `json:"validUntil,omitempty"`
	Status          Status  `json:"status"`
}

// NewCertificateStatus seeds an empty track in the applying state.
func NewCertificateStatus() CertificateStatus {
	return CertificateStatus{Status: StatusApplying}
}

// BeginRenewal confirms the switch from new-application handling to renewal
// management for this track.
func (cs *CertificateStatus) BeginRenewal(key TypeKey) {
	cs.Status = RenewalSentinel(key)
}

// Progress is the document-handling checklist for one certificate.
type Progress struct {
	DocsReady    bool `json:"docsReady,omitempty"`
	DocsHanded   bool `json:"docsHanded,omitempty"`
	DocsReceived bool `json:"docsReceived,omitempty"`
	DocsSent     bool `json:"docsSent,omitempty"`
	RequestSent  bool `json:"requestSent,omitempty"`
}

// Progress field names as they appear in payloads.
const (
	ProgressDocsReady    = "docsReady"
	ProgressDocsHanded   = "docsHanded"
	ProgressDocsReceived = "docsReceived"
	ProgressDocsSent     = "docsSent"
	ProgressRequestSent  = "requestSent"
)

// IsEmpty reports whether no checklist item has been set.
func (p Progress) IsEmpty() bool {
	return p == Progress{}
}

// Toggle flips the named checklist item.
func (p *Progress) Toggle(field string) error {
	switch field {
	case ProgressDocsReady:
		p.DocsReady = !p.DocsReady
	case ProgressDocsHanded:
		p.DocsHanded = !p.DocsHanded
	case ProgressDocsReceived:
		p.DocsReceived = !p.DocsReceived
	case ProgressDocsSent:
		p.DocsSent = !p.DocsSent
	case ProgressRequestSent:
		p.RequestSent = !p.RequestSent
	default:
		return fmt.Errorf("unknown progress field %q", field)
	}
	return nil
}

// MedicalCertificate maps to the certificates table. Dates are ISO-8601
// strings; absent values are nil, never the empty string.
type MedicalCertificate struct {
	ID               string       `db:"id" json:"id"`
	PatientID        string       `db:"patient_id" json:"patientId"`
	Type             Type         `db:"type" json:"type"`
	ApplicationDate  *string      `db:"application_date" json:"applicationDate,omitempty"`
	CompletionDate   *string      `db:"completion_date" json:"completionDate,omitempty"`
	InitialStartDate *string      `db:"initial_start_date" json:"initialStartDate,omitempty"`
	StartDate        *string      `db:"start_date" json:"startDate,omitempty"`
	ValidFrom        *string      `db:"valid_from" json:"validFrom,omitempty"`
	ValidUntil       *string      `db:"valid_until" json:"validUntil,omitempty"`
	Status           Status       `db:"status" json:"status,omitempty"`
	Grade            *string      `db:"grade" json:"grade,omitempty"`
	LimitAmount      *string      `db:"limit_amount" json:"limitAmount,omitempty"`
	NeedsCertificate wire.IntBool `db:"needs_certificate" json:"needsCertificate"`
	SendDate         *string      `db:"send_date" json:"sendDate,omitempty"`
	Progress         Progress     `db:"progress" json:"progress"`
	CreatedAt        string       `db:"created_at" json:"createdAt"`
	UpdatedAt        string       `db:"updated_at" json:"updatedAt"`
}

// DeriveID builds the certificate id as {patientId}-{trackKey}, so each
// patient has at most one certificate per track.
func DeriveID(patientID string, key TypeKey) string {
	return patientID + "-" + string(key)
}

// NewCertificate materializes the empty certificate for a track. Used when a
// patient is created and when an edit targets a certificate that does not
// exist yet.
func NewCertificate(patientID string, key TypeKey, now time.Time) *MedicalCertificate {
	ts := Timestamp(now)
	return &MedicalCertificate{
		ID:        DeriveID(patientID, key),
		PatientID: patientID,
		Type:      typesByKey[key],
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate converts a bare YYYY-MM-DD value to midnight UTC. Empty input
// yields nil. Values already carrying a time component pass through.
func NormalizeDate(value string) *string {
	if value == "" {
		return nil
	}
	if dateOnly.MatchString(value) {
		v := value + "T00:00:00Z"
		return &v
	}
	return &value
}

// ParseDate reads an optional ISO-8601 date. The second return is false when
// the value is absent or unparseable.
func ParseDate(value *string) (time.Time, bool) {
	if value == nil || *value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Timestamp formats an instant the way all row timestamps are stored.
func Timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}

// NeedsCertificateToken is the form label meaning a doctor's certificate is
// required this cycle.
const NeedsCertificateToken = "要"

// NeedsCertificateFromToken maps the form token to the stored flag.
func NeedsCertificateFromToken(token string) bool {
	return token == NeedsCertificateToken
}

// Date field names accepted by SetDate.
const (
	FieldApplicationDate  = "applicationDate"
	FieldCompletionDate   = "completionDate"
	FieldInitialStartDate = "initialStartDate"
	FieldStartDate        = "startDate"
	FieldValidFrom        = "validFrom"
	FieldValidUntil       = "validUntil"
	FieldSendDate         = "sendDate"
)

// SetDate normalizes and stores a date field, stamping the certificate's
// updatedAt. The parent patient's updatedAt is the caller's responsibility.
func (m *MedicalCertificate) SetDate(field, value string, now time.Time) error {
	normalized := NormalizeDate(value)
	switch field {
	case FieldApplicationDate:
		m.ApplicationDate = normalized
	case FieldCompletionDate:
		m.CompletionDate = normalized
	case FieldInitialStartDate:
		m.InitialStartDate = normalized
	case FieldStartDate:
		m.StartDate = normalized
	case FieldValidFrom:
		m.ValidFrom = normalized
	case FieldValidUntil:
		m.ValidUntil = normalized
	case FieldSendDate:
		m.SendDate = normalized
	default:
		return fmt.Errorf("unknown date field %q", field)
	}
	m.UpdatedAt = Timestamp(now)
	return nil
}

// SetStatus stores the track status and stamps updatedAt.
func (m *MedicalCertificate) SetStatus(status Status, now time.Time) {
	m.Status = status
	m.UpdatedAt = Timestamp(now)
}

// SetGrade stores the grade and stamps updatedAt.
func (m *MedicalCertificate) SetGrade(grade string, now time.Time) {
	if grade == "" {
		m.Grade = nil
	} else {
		m.Grade = &grade
	}
	m.UpdatedAt = Timestamp(now)
}

// SetLimitAmount stores the monthly limit and stamps updatedAt.
func (m *MedicalCertificate) SetLimitAmount(amount string, now time.Time) {
	if amount == "" {
		m.LimitAmount = nil
	} else {
		m.LimitAmount = &amount
	}
	m.UpdatedAt = Timestamp(now)
}

// SetNeedsCertificateToken derives the flag from the form token and stamps
// updatedAt.
func (m *MedicalCertificate) SetNeedsCertificateToken(token string, now time.Time) {
	m.NeedsCertificate = wire.IntBool(NeedsCertificateFromToken(token))
	m.UpdatedAt = Timestamp(now)
}

// ToggleProgress flips one checklist item and stamps updatedAt.
func (m *MedicalCertificate) ToggleProgress(field string, now time.Time) error {
	if err := m.Progress.Toggle(field); err != nil {
		return err
	}
	m.UpdatedAt = Timestamp(now)
	return nil
}

// HasMeaningfulData reports whether any field beyond the identity triple has
// been set. An all-default certificate is a placeholder, not a stored record.
func (m *MedicalCertificate) HasMeaningfulData() bool {
	return m.ApplicationDate != nil ||
		m.CompletionDate != nil ||
		m.InitialStartDate != nil ||
		m.StartDate != nil ||
		m.ValidFrom != nil ||
		m.ValidUntil != nil ||
		m.Status != "" ||
		m.Grade != nil ||
		m.LimitAmount != nil ||
		bool(m.NeedsCertificate) ||
		m.SendDate != nil ||
		!m.Progress.IsEmpty()
}
