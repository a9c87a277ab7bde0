// Package aggregate coordinates the in-memory patient segments against the
// certificate service. The Store owns the active and stopped lists
// exclusively; every mutation goes through it.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/certdesk/certdesk/internal/domain/certificate"
	"github.com/certdesk/certdesk/internal/domain/ledger"
	"github.com/certdesk/certdesk/internal/domain/patient"
)

// Client is the slice of the service API the store depends on.
type Client interface {
	ListPatients(ctx context.Context) ([]*patient.Patient, error)
	SavePatient(ctx context.Context, p *patient.Patient) error
	DeletePatient(ctx context.Context, id string) error
	ListCertificates(ctx context.Context, patientID string) ([]*certificate.MedicalCertificate, error)
	CreateCertificate(ctx context.Context, cert *certificate.MedicalCertificate) error
	UpdateCertificate(ctx context.Context, cert *certificate.MedicalCertificate) error
	SaveLifeInsurance(ctx context.Context, rec *ledger.LifeInsuranceRecord) error
	SavePendingClaim(ctx context.Context, claim *ledger.PendingClaim) error
	SaveInsuranceChange(ctx context.Context, rec *ledger.InsuranceChangeRecord) error
}

// Store holds the loaded patient segments and pushes changes to the service.
// A failed call never corrupts the segments: the prior state stays in place
// and the error is logged.
type Store struct {
	client       Client
	municipality string
	logger       zerolog.Logger
	now          func() time.Time

	mu      sync.RWMutex
	active  []*patient.Patient
	stopped []*patient.Patient
}

// NewStore builds an empty store. Call LoadAggregate before reading.
func NewStore(client Client, municipality string, logger zerolog.Logger) *Store {
	return &Store{
		client:       client,
		municipality: municipality,
		logger:       logger.With().Str("component", "aggregate").Logger(),
		now:          time.Now,
	}
}

// Active returns a copy of the active segment.
func (s *Store) Active() []*patient.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*patient.Patient, len(s.active))
	copy(out, s.active)
	return out
}

// Stopped returns a copy of the stopped segment.
func (s *Store) Stopped() []*patient.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*patient.Patient, len(s.stopped))
	copy(out, s.stopped)
	return out
}

// LoadAggregate replaces both segments from the service: certificates first,
// then patients, joined by {patientId, type}. Tracks with no stored
// certificate keep their seeded defaults. On any fetch failure the prior
// segments stay untouched. Loading twice against unchanged data yields the
// same partition.
func (s *Store) LoadAggregate(ctx context.Context) error {
	certs, err := s.client.ListCertificates(ctx, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("load aggregate: certificate fetch failed")
		return err
	}
	patients, err := s.client.ListPatients(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load aggregate: patient fetch failed")
		return err
	}

	byPatient := make(map[string][]*certificate.MedicalCertificate)
	for _, c := range certs {
		byPatient[c.PatientID] = append(byPatient[c.PatientID], c)
	}

	now := s.now()
	var active, stopped []*patient.Patient
	for _, p := range patients {
		p.FillDefaults(now)
		for _, c := range byPatient[p.ID] {
			if key, ok := certificate.KeyForType(c.Type); ok {
				p.SetCertificate(key, c)
			}
		}
		if p.Status.Inactive() {
			stopped = append(stopped, p)
		} else {
			active = append(active, p)
		}
	}

	s.mu.Lock()
	s.active = active
	s.stopped = stopped
	s.mu.Unlock()

	s.logger.Info().
		Int("active", len(active)).
		Int("stopped", len(stopped)).
		Msg("aggregate loaded")
	return nil
}

// UpsertCertificate stores a certificate, choosing PUT when the service
// already holds a row with the same id and meaningful content, POST
// otherwise. On success the owning patient's track is updated in place.
func (s *Store) UpsertCertificate(ctx context.Context, cert *certificate.MedicalCertificate) error {
	existing, err := s.client.ListCertificates(ctx, cert.PatientID)
	if err != nil {
		s.logger.Error().Err(err).Str("certificate_id", cert.ID).Msg("upsert certificate: probe failed")
		return err
	}

	update := false
	for _, e := range existing {
		if e.ID == cert.ID && e.HasMeaningfulData() {
			update = true
			break
		}
	}

	if update {
		err = s.client.UpdateCertificate(ctx, cert)
	} else {
		err = s.client.CreateCertificate(ctx, cert)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("certificate_id", cert.ID).Msg("upsert certificate failed")
		return err
	}

	if key, ok := certificate.KeyForType(cert.Type); ok {
		s.mu.Lock()
		if p := s.findLocked(cert.PatientID); p != nil {
			p.SetCertificate(key, cert)
		}
		s.mu.Unlock()
	}
	return nil
}

// UpsertPatient stores a patient row, then updates the matching segment
// entry or appends a new one. No full reload.
func (s *Store) UpsertPatient(ctx context.Context, p *patient.Patient) error {
	if err := s.client.SavePatient(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("patient_id", p.ID).Msg("upsert patient failed")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if replaceByID(s.active, p) || replaceByID(s.stopped, p) {
		return nil
	}
	if p.Status.Inactive() {
		s.stopped = append(s.stopped, p)
	} else {
		s.active = append(s.active, p)
	}
	return nil
}

// MoveToStopList marks the given patients STOPPED, stamps stoppedAt and
// persists each. Persistence is best-effort per patient; the local move
// happens regardless, so a transient failure never strands a patient on
// the wrong list.
func (s *Store) MoveToStopList(ctx context.Context, ids []string) {
	now := s.now()
	ts := certificate.Timestamp(now)

	s.mu.Lock()
	moved := s.extractLocked(&s.active, ids)
	for _, p := range moved {
		p.Status = patient.StatusStopped
		p.StoppedAt = &ts
		p.Touch(now)
		s.stopped = append(s.stopped, p)
	}
	s.mu.Unlock()

	for _, p := range moved {
		if err := s.client.SavePatient(ctx, p); err != nil {
			s.logger.Error().Err(err).Str("patient_id", p.ID).Msg("stop list: persist failed")
		}
	}
}

// MoveToActiveList returns stopped patients to the active list with status
// reset to APPLYING, persisting each.
func (s *Store) MoveToActiveList(ctx context.Context, ids []string) {
	now := s.now()

	s.mu.Lock()
	moved := s.extractLocked(&s.stopped, ids)
	for _, p := range moved {
		p.Status = patient.StatusApplying
		p.StoppedAt = nil
		p.Touch(now)
		s.active = append(s.active, p)
	}
	s.mu.Unlock()

	for _, p := range moved {
		if err := s.client.SavePatient(ctx, p); err != nil {
			s.logger.Error().Err(err).Str("patient_id", p.ID).Msg("active list: persist failed")
		}
	}
}

// MoveToLifeInsurance opens a billing record for each patient and persists
// it. Patients stay on their current list.
func (s *Store) MoveToLifeInsurance(ctx context.Context, ids []string) {
	now := s.now()
	for _, id := range ids {
		s.mu.RLock()
		p := s.findLocked(id)
		s.mu.RUnlock()
		if p == nil {
			s.logger.Warn().Str("patient_id", id).Msg("life insurance: patient not loaded")
			continue
		}
		rec := ledger.NewLifeInsuranceRecord(p, s.municipality, now)
		if err := s.client.SaveLifeInsurance(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("patient_id", id).Msg("life insurance: persist failed")
		}
	}
}

// MoveToPendingClaims opens a pending claim for each patient and persists
// it.
func (s *Store) MoveToPendingClaims(ctx context.Context, ids []string) {
	now := s.now()
	for _, id := range ids {
		s.mu.RLock()
		p := s.findLocked(id)
		s.mu.RUnlock()
		if p == nil {
			s.logger.Warn().Str("patient_id", id).Msg("pending claims: patient not loaded")
			continue
		}
		claim := ledger.NewPendingClaim(p, now)
		if err := s.client.SavePendingClaim(ctx, claim); err != nil {
			s.logger.Error().Err(err).Str("patient_id", id).Msg("pending claims: persist failed")
		}
	}
}

// RecordInsuranceChange switches a patient to a new insurance type: it
// opens a 未対応 entry on the insurance-change ledger recording the old and
// new types, then persists the patient with the type applied. Nothing
// changes when the type is not actually different.
func (s *Store) RecordInsuranceChange(ctx context.Context, id string, next patient.InsuranceType) error {
	s.mu.RLock()
	p := s.findLocked(id)
	s.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("record insurance change: patient %s not loaded", id)
	}
	previous := p.InsuranceType
	if previous == next {
		return nil
	}

	now := s.now()
	rec := ledger.NewInsuranceChangeRecord(p, string(previous), string(next), now)
	if err := s.client.SaveInsuranceChange(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("patient_id", id).Msg("insurance change: ledger persist failed")
		return err
	}

	p.InsuranceType = next
	p.Touch(now)
	if err := s.client.SavePatient(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("patient_id", id).Msg("insurance change: patient persist failed")
		return err
	}
	return nil
}

// DeletePatients issues one delete per id. A failed delete is logged and
// does not block the rest; local removal is optimistic either way.
func (s *Store) DeletePatients(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.client.DeletePatient(ctx, id); err != nil {
			s.logger.Error().Err(err).Str("patient_id", id).Msg("delete patient failed")
		}
	}

	s.mu.Lock()
	s.active = removeByIDs(s.active, ids)
	s.stopped = removeByIDs(s.stopped, ids)
	s.mu.Unlock()
}

// findLocked looks a patient up across both segments. Callers hold s.mu.
func (s *Store) findLocked(id string) *patient.Patient {
	for _, p := range s.active {
		if p.ID == id {
			return p
		}
	}
	for _, p := range s.stopped {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// extractLocked removes the named patients from a segment and returns them
// in segment order. Callers hold s.mu.
func (s *Store) extractLocked(segment *[]*patient.Patient, ids []string) []*patient.Patient {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var moved, kept []*patient.Patient
	for _, p := range *segment {
		if want[p.ID] {
			moved = append(moved, p)
		} else {
			kept = append(kept, p)
		}
	}
	*segment = kept
	return moved
}

func replaceByID(segment []*patient.Patient, p *patient.Patient) bool {
	for i, existing := range segment {
		if existing.ID == p.ID {
			segment[i] = p
			return true
		}
	}
	return false
}

func removeByIDs(segment []*patient.Patient, ids []string) []*patient.Patient {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := segment[:0]
	for _, p := range segment {
		if !drop[p.ID] {
			kept = append(kept, p)
		}
	}
	return kept
}
