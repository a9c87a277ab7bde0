package patient

import (
	"testing"
	"time"

	"github.com/certdesk/certdesk/internal/domain/certificate"
)

func TestNewEmptyPatient_SeedsAllTracks(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := NewEmptyPatient(now)

	if p.ID == "" {
		t.Fatal("expected generated id")
	}
	if p.Status != StatusApplying {
		t.Errorf("expected APPLYING seed, got %s", p.Status)
	}

	for _, key := range certificate.AllKeys() {
		ts := p.TrackStatus(key)
		if ts == nil || ts.Status != certificate.StatusApplying {
			t.Errorf("track %s: expected APPLYING status record", key)
		}

		cert := p.Certificate(key)
		if cert == nil {
			t.Fatalf("track %s: expected seeded certificate", key)
		}
		if cert.ID != certificate.DeriveID(p.ID, key) {
			t.Errorf("track %s: unexpected certificate id %s", key, cert.ID)
		}
		if cert.HasMeaningfulData() {
			t.Errorf("track %s: seeded certificate must be a placeholder", key)
		}
	}

	if p.ChartProcessing.Pre || p.ChartProcessing.Post {
		t.Error("expected chart processing flags unset")
	}
	if p.CreatedAt != "2025-06-01T00:00:00Z" || p.UpdatedAt != p.CreatedAt {
		t.Errorf("unexpected timestamps: %s / %s", p.CreatedAt, p.UpdatedAt)
	}
}

func TestFillDefaults_PreservesSetFields(t *testing.T) {
	now := time.Now()
	p := &Patient{
		ID:     "p1",
		Name:   "山田太郎",
		Status: StatusStopped,
		SelfSupport: certificate.CertificateStatus{
			Status: certificate.StatusActive,
		},
	}
	p.FillDefaults(now)

	if p.Status != StatusStopped {
		t.Errorf("expected status preserved, got %s", p.Status)
	}
	if p.SelfSupport.Status != certificate.StatusActive {
		t.Errorf("expected self-support status preserved, got %s", p.SelfSupport.Status)
	}
	if p.Disability.Status != certificate.StatusApplying {
		t.Errorf("expected disability seeded, got %s", p.Disability.Status)
	}
	if p.PensionCertificate == nil || p.PensionCertificate.ID != "p1-pension" {
		t.Error("expected pension certificate seeded with derived id")
	}
	if p.CreatedAt == "" || p.UpdatedAt == "" {
		t.Error("expected timestamps filled")
	}
}

func TestStatus_Inactive(t *testing.T) {
	inactive := []Status{StatusTransferred, StatusStopped}
	for _, s := range inactive {
		if !s.Inactive() {
			t.Errorf("expected %s to be inactive", s)
		}
	}

	active := []Status{StatusApplying, StatusDocsHanded, StatusDocsReceived, StatusUpdated}
	for _, s := range active {
		if s.Inactive() {
			t.Errorf("expected %s to be active", s)
		}
	}
}

func TestInsuranceType_Label(t *testing.T) {
	cases := map[InsuranceType]string{
		InsuranceEmployeeSelf:   "社本",
		InsuranceEmployeeFamily: "社家",
		InsuranceLife:           "生保",
		InsuranceNational:       "国保",
	}
	for typ, want := range cases {
		if typ.Label() != want {
			t.Errorf("%s: expected %s, got %s", typ, want, typ.Label())
		}
	}

	if InsuranceType("OTHER").Label() != "OTHER" {
		t.Error("expected raw value for unknown insurance type")
	}
}

func TestSetCertificate(t *testing.T) {
	now := time.Now()
	p := NewEmptyPatient(now)

	cert := certificate.NewCertificate(p.ID, certificate.KeyDisability, now)
	cert.SetStatus(certificate.StatusActive, now)
	p.SetCertificate(certificate.KeyDisability, cert)

	if got := p.Certificate(certificate.KeyDisability); got != cert {
		t.Error("expected attached certificate returned")
	}
	if p.Certificate(certificate.KeySelfSupport) == cert {
		t.Error("expected other tracks untouched")
	}
}
