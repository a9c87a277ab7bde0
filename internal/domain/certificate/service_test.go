package certificate

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"
)

// -- Mock Repository --

type mockRepo struct {
	certs map[string]*MedicalCertificate
}

func newMockRepo() *mockRepo {
	return &mockRepo{certs: make(map[string]*MedicalCertificate)}
}

func (m *mockRepo) Save(_ context.Context, cert *MedicalCertificate) error {
	cp := *cert
	m.certs[cert.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, cert *MedicalCertificate) error {
	cp := *cert
	m.certs[cert.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*MedicalCertificate, error) {
	cert, ok := m.certs[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return cert, nil
}

func (m *mockRepo) List(_ context.Context) ([]*MedicalCertificate, error) {
	var result []*MedicalCertificate
	for _, cert := range m.certs {
		result = append(result, cert)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string) ([]*MedicalCertificate, error) {
	var result []*MedicalCertificate
	for _, cert := range m.certs {
		if cert.PatientID == patientID {
			result = append(result, cert)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	delete(m.certs, id)
	return nil
}

// -- Tests --

func TestService_Save_DerivesID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	cert := &MedicalCertificate{PatientID: "p1", Type: TypeSelfSupport}
	if err := svc.Save(context.Background(), cert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cert.ID != "p1-selfSupport" {
		t.Errorf("expected derived id, got %s", cert.ID)
	}
	if _, ok := repo.certs["p1-selfSupport"]; !ok {
		t.Error("expected certificate stored under derived id")
	}
	if cert.CreatedAt == "" || cert.UpdatedAt == "" {
		t.Error("expected timestamps filled")
	}
}

func TestService_Save_DerivesTypeFromID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	cert := &MedicalCertificate{ID: "p1-pension", PatientID: "p1"}
	if err := svc.Save(context.Background(), cert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert.Type != TypePension {
		t.Errorf("expected pension type, got %s", cert.Type)
	}
}

func TestService_Save_RequiresPatientID(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Save(context.Background(), &MedicalCertificate{Type: TypeSelfSupport})
	if err == nil {
		t.Error("expected error without patient id")
	}
}

func TestService_Save_RejectsUnknownType(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Save(context.Background(), &MedicalCertificate{
		ID: "p1-x", PatientID: "p1", Type: "介護",
	})
	if err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestService_Update_UsesPathID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	seed := NewCertificate("p1", KeySelfSupport, time.Now())
	seed.SetStatus(StatusActive, time.Now())
	if err := svc.Save(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	update := &MedicalCertificate{PatientID: "p1", Type: TypeSelfSupport, Status: StatusOnHold}
	if err := svc.Update(context.Background(), "p1-selfSupport", update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.certs["p1-selfSupport"]
	if stored.Status != StatusOnHold {
		t.Errorf("expected updated status, got %s", stored.Status)
	}
}

func TestService_List_FiltersByPatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	for _, pid := range []string{"p1", "p2"} {
		for _, key := range AllKeys() {
			cert := NewCertificate(pid, key, time.Now())
			if err := svc.Save(context.Background(), cert); err != nil {
				t.Fatal(err)
			}
		}
	}

	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("expected 6 certificates, got %d", len(all))
	}

	mine, err := svc.List(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 3 {
		t.Errorf("expected 3 certificates for p1, got %d", len(mine))
	}
	for _, cert := range mine {
		if cert.PatientID != "p1" {
			t.Errorf("unexpected patient id %s", cert.PatientID)
		}
	}
}

func TestService_Delete_RequiresID(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Delete(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}
}
