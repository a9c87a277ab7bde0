package ledger

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/certdesk/certdesk/internal/domain/patient"
)

// -- Mock Repositories --

type mockLifeInsuranceRepo struct {
	recs map[string]*LifeInsuranceRecord
}

func newMockLifeInsuranceRepo() *mockLifeInsuranceRepo {
	return &mockLifeInsuranceRepo{recs: make(map[string]*LifeInsuranceRecord)}
}

func (m *mockLifeInsuranceRepo) Save(_ context.Context, rec *LifeInsuranceRecord) error {
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *mockLifeInsuranceRepo) Update(_ context.Context, rec *LifeInsuranceRecord) error {
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *mockLifeInsuranceRepo) List(_ context.Context) ([]*LifeInsuranceRecord, error) {
	var result []*LifeInsuranceRecord
	for _, rec := range m.recs {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockLifeInsuranceRepo) Delete(_ context.Context, id string) error {
	delete(m.recs, id)
	return nil
}

type mockPendingClaimRepo struct {
	claims map[string]*PendingClaim
}

func newMockPendingClaimRepo() *mockPendingClaimRepo {
	return &mockPendingClaimRepo{claims: make(map[string]*PendingClaim)}
}

func (m *mockPendingClaimRepo) Save(_ context.Context, claim *PendingClaim) error {
	cp := *claim
	m.claims[claim.ID] = &cp
	return nil
}

func (m *mockPendingClaimRepo) Update(_ context.Context, claim *PendingClaim) error {
	cp := *claim
	m.claims[claim.ID] = &cp
	return nil
}

func (m *mockPendingClaimRepo) List(_ context.Context) ([]*PendingClaim, error) {
	var result []*PendingClaim
	for _, claim := range m.claims {
		result = append(result, claim)
	}
	return result, nil
}

func (m *mockPendingClaimRepo) Delete(_ context.Context, id string) error {
	delete(m.claims, id)
	return nil
}

type mockInsuranceChangeRepo struct {
	recs map[string]*InsuranceChangeRecord
}

func newMockInsuranceChangeRepo() *mockInsuranceChangeRepo {
	return &mockInsuranceChangeRepo{recs: make(map[string]*InsuranceChangeRecord)}
}

func (m *mockInsuranceChangeRepo) Save(_ context.Context, rec *InsuranceChangeRecord) error {
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *mockInsuranceChangeRepo) Update(_ context.Context, rec *InsuranceChangeRecord) error {
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *mockInsuranceChangeRepo) List(_ context.Context) ([]*InsuranceChangeRecord, error) {
	var result []*InsuranceChangeRecord
	for _, rec := range m.recs {
		result = append(result, rec)
	}
	return result, nil
}

func (m *mockInsuranceChangeRepo) Delete(_ context.Context, id string) error {
	delete(m.recs, id)
	return nil
}

type mockMessageRepo struct {
	msgs map[string]*Message
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{msgs: make(map[string]*Message)}
}

func (m *mockMessageRepo) Save(_ context.Context, msg *Message) error {
	cp := *msg
	m.msgs[msg.ID] = &cp
	return nil
}

func (m *mockMessageRepo) List(_ context.Context, limit, offset int) ([]*Message, int, error) {
	var result []*Message
	for _, msg := range m.msgs {
		result = append(result, msg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	total := len(result)
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockMessageRepo) Delete(_ context.Context, id string) error {
	delete(m.msgs, id)
	return nil
}

func newTestService() (*Service, *mockLifeInsuranceRepo, *mockPendingClaimRepo, *mockInsuranceChangeRepo, *mockMessageRepo) {
	life := newMockLifeInsuranceRepo()
	claims := newMockPendingClaimRepo()
	changes := newMockInsuranceChangeRepo()
	msgs := newMockMessageRepo()
	return NewService(life, claims, changes, msgs), life, claims, changes, msgs
}

// -- Constructors --

func TestNewLifeInsuranceRecord(t *testing.T) {
	now := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)
	p := &patient.Patient{ID: "p1", Name: "山田太郎", InsuranceType: patient.InsuranceLife}

	rec := NewLifeInsuranceRecord(p, "鹿児島市", now)

	if !strings.HasSuffix(rec.ID, "-p1") || !strings.HasPrefix(rec.ID, "record-") {
		t.Errorf("unexpected id: %s", rec.ID)
	}
	if rec.Year != 2025 || rec.Month != 8 {
		t.Errorf("expected current billing period, got %d-%d", rec.Year, rec.Month)
	}
	if rec.CertificateFee != 0 {
		t.Errorf("expected zero fee for manual entry, got %d", rec.CertificateFee)
	}
	if rec.Municipality != "鹿児島市" {
		t.Errorf("unexpected municipality: %s", rec.Municipality)
	}
	if rec.ClaimDate == nil || *rec.ClaimDate != "2025-08-15" {
		t.Errorf("expected date-only claim date, got %v", rec.ClaimDate)
	}
	if rec.ClaimStatus.Bool() {
		t.Error("expected unclaimed seed")
	}
}

func TestNewPendingClaim(t *testing.T) {
	now := time.Now()
	p := &patient.Patient{ID: "p1", Name: "山田太郎"}

	claim := NewPendingClaim(p, now)

	if !strings.HasPrefix(claim.ID, "claim-") || !strings.HasSuffix(claim.ID, "-p1") {
		t.Errorf("unexpected id: %s", claim.ID)
	}
	if claim.Status != PendingClaimStatus {
		t.Errorf("expected %s seed, got %s", PendingClaimStatus, claim.Status)
	}
}

func TestNewInsuranceChangeRecord(t *testing.T) {
	p := &patient.Patient{ID: "p1", Name: "山田太郎"}
	rec := NewInsuranceChangeRecord(p, "社本", "国保", time.Now())

	if rec.ID == "" {
		t.Fatal("expected generated id")
	}
	if rec.Status != InsuranceChangeStatus {
		t.Errorf("expected %s seed, got %s", InsuranceChangeStatus, rec.Status)
	}
	if rec.PreviousInsurance != "社本" || rec.NewInsurance != "国保" {
		t.Errorf("unexpected insurance transition: %s -> %s", rec.PreviousInsurance, rec.NewInsurance)
	}
	if rec.ChangeDate == nil {
		t.Error("expected change date stamped")
	}
}

func TestNewMessage_DefaultAuthor(t *testing.T) {
	msg := NewMessage("申送り事項", "", "山田太郎", time.Now())
	if msg.Author != DefaultAuthor {
		t.Errorf("expected default author, got %s", msg.Author)
	}
	if msg.TargetPatient == nil || *msg.TargetPatient != "山田太郎" {
		t.Error("expected target patient set")
	}

	msg = NewMessage("申送り事項", "佐藤", "", time.Now())
	if msg.Author != "佐藤" {
		t.Errorf("expected given author, got %s", msg.Author)
	}
	if msg.TargetPatient != nil {
		t.Error("expected no target patient")
	}
}

// -- Service --

func TestService_SaveLifeInsurance_RequiresID(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	if err := svc.SaveLifeInsurance(context.Background(), &LifeInsuranceRecord{}); err == nil {
		t.Error("expected error without id")
	}
}

func TestService_UpdateLifeInsurance_UsesPathID(t *testing.T) {
	svc, repo, _, _, _ := newTestService()

	rec := &LifeInsuranceRecord{ID: "r1", PatientName: "山田太郎"}
	if err := svc.SaveLifeInsurance(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	update := &LifeInsuranceRecord{PatientName: "山田太郎", CertificateFee: 3000}
	if err := svc.UpdateLifeInsurance(context.Background(), "r1", update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.recs["r1"].CertificateFee != 3000 {
		t.Errorf("expected fee updated, got %d", repo.recs["r1"].CertificateFee)
	}
}

func TestService_SavePendingClaim_SeedsStatus(t *testing.T) {
	svc, _, repo, _, _ := newTestService()

	claim := &PendingClaim{ID: "c1", PatientID: "p1"}
	if err := svc.SavePendingClaim(context.Background(), claim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.claims["c1"].Status != PendingClaimStatus {
		t.Errorf("expected seeded status, got %s", repo.claims["c1"].Status)
	}
}

func TestService_PostMessage(t *testing.T) {
	svc, _, _, _, repo := newTestService()

	msg := &Message{Notes: "申送り事項"}
	if err := svc.PostMessage(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID == "" || msg.Date == "" {
		t.Error("expected id and date seeded")
	}
	if msg.Author != DefaultAuthor {
		t.Errorf("expected default author, got %s", msg.Author)
	}
	if len(repo.msgs) != 1 {
		t.Errorf("expected message stored, got %d", len(repo.msgs))
	}

	if err := svc.PostMessage(context.Background(), &Message{}); err == nil {
		t.Error("expected error for empty notes")
	}
}

func TestService_ListMessages_Paginates(t *testing.T) {
	svc, _, _, _, repo := newTestService()

	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		msg := NewMessage("連絡", "佐藤", "", base.Add(time.Duration(i)*time.Hour))
		repo.msgs[msg.ID] = msg
	}

	msgs, total, err := svc.ListMessages(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(msgs) != 2 {
		t.Errorf("expected page of 2, got %d", len(msgs))
	}
}
