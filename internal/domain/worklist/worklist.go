// Package worklist computes the renewal screens from patient snapshots.
// Everything here is a pure function over in-memory records; persistence and
// transport live elsewhere.
package worklist

import (
	"sort"
	"time"

	"github.com/certdesk/certdesk/internal/domain/certificate"
	"github.com/certdesk/certdesk/internal/domain/patient"
)

// Action is the next required document-handling step for a certificate.
type Action string

const (
	ActionPrepareDocs Action = "書類準備"
	ActionHandDocs    Action = "書類渡し"
	ActionReceiveDocs Action = "書類受取"
	ActionSend        Action = "送付"
	ActionComplete    Action = "完了"
)

// NextAction evaluates the checklist in fixed priority order. The first
// unmet milestone wins; later flags are irrelevant once an earlier one is
// unmet.
func NextAction(p certificate.Progress) Action {
	switch {
	case !p.DocsReady:
		return ActionPrepareDocs
	case !p.DocsHanded:
		return ActionHandDocs
	case !p.DocsReceived:
		return ActionReceiveDocs
	case !p.DocsSent:
		return ActionSend
	default:
		return ActionComplete
	}
}

// simultaneousRenewalWindow is the widest gap between the self-support and
// handbook deadlines that still allows processing both renewals together.
const simultaneousRenewalWindow = 90 * 24 * time.Hour

// SimultaneousRenewalEligible reports whether the self-support and handbook
// renewals can be processed together: both tracks active, both deadlines
// set, and at most 90 days apart. A missing or unparseable date yields
// false. Pension renewals are never combined.
func SimultaneousRenewalEligible(self, disability certificate.CertificateStatus) bool {
	if self.Status != certificate.StatusActive || disability.Status != certificate.StatusActive {
		return false
	}

	a, ok := certificate.ParseDate(self.ValidUntil)
	if !ok {
		return false
	}
	b, ok := certificate.ParseDate(disability.ValidUntil)
	if !ok {
		return false
	}

	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= simultaneousRenewalWindow
}

// CombinedTypeLabel names the merged self-support + handbook renewal row.
const CombinedTypeLabel = "自立支援＋手帳"

// Row is one entry on the certificate worklist screen.
type Row struct {
	ID               string
	PatientID        string
	PatientName      string
	Type             string
	Deadline         *string
	NeedsCertificate bool
	NextAction       Action
	NewApplication   bool
}

// Rows builds the worklist entries for one patient: a new-application row
// per track whose request has gone out but has no deadline yet, and a
// renewal row per active track with a deadline. When the self-support and
// handbook deadlines qualify for simultaneous renewal the two rows merge
// into one, keyed on the self-support deadline. Pension rows never merge.
// A new application always needs a doctor's certificate; renewal rows
// derive it from the biennial rule evaluated at now, not from the stored
// flag.
func Rows(p *patient.Patient, now time.Time) []Row {
	var rows []Row

	for _, key := range certificate.AllKeys() {
		cert := p.Certificate(key)
		track := p.TrackStatus(key)
		if cert == nil || track == nil {
			continue
		}
		if cert.Progress.RequestSent && track.ValidUntil == nil {
			label, _ := certificate.TypeForKey(key)
			rows = append(rows, Row{
				ID:               p.ID + "-" + string(key) + "-new",
				PatientID:        p.ID,
				PatientName:      p.Name,
				Type:             string(label),
				Deadline:         nil,
				NeedsCertificate: true,
				NextAction:       NextAction(cert.Progress),
				NewApplication:   true,
			})
		}
	}

	combined := SimultaneousRenewalEligible(p.SelfSupport, p.Disability)
	if combined {
		needs := renewalNeedsCertificate(p, certificate.KeySelfSupport, now) ||
			renewalNeedsCertificate(p, certificate.KeyDisability, now)
		progress := certificate.Progress{}
		if c := p.Certificate(certificate.KeySelfSupport); c != nil {
			progress = c.Progress
		}
		rows = append(rows, Row{
			ID:               p.ID + "-combined-renewal",
			PatientID:        p.ID,
			PatientName:      p.Name,
			Type:             CombinedTypeLabel,
			Deadline:         p.SelfSupport.ValidUntil,
			NeedsCertificate: needs,
			NextAction:       NextAction(progress),
		})
	}

	for _, key := range certificate.AllKeys() {
		if combined && (key == certificate.KeySelfSupport || key == certificate.KeyDisability) {
			continue
		}
		track := p.TrackStatus(key)
		if track == nil || track.Status != certificate.StatusActive || track.ValidUntil == nil {
			continue
		}
		label, _ := certificate.TypeForKey(key)
		row := Row{
			ID:               p.ID + "-" + string(key) + "-renewal",
			PatientID:        p.ID,
			PatientName:      p.Name,
			Type:             string(label),
			Deadline:         track.ValidUntil,
			NeedsCertificate: renewalNeedsCertificate(p, key, now),
		}
		if cert := p.Certificate(key); cert != nil {
			row.NextAction = NextAction(cert.Progress)
		} else {
			row.NextAction = NextAction(certificate.Progress{})
		}
		rows = append(rows, row)
	}

	return rows
}

// renewalNeedsCertificate applies the biennial rule to a track. A missing
// certificate record has no start date and so still needs one.
func renewalNeedsCertificate(p *patient.Patient, key certificate.TypeKey, now time.Time) bool {
	var start *string
	if cert := p.Certificate(key); cert != nil {
		start = cert.InitialStartDate
	}
	return CertificateNeeded(key, start, now)
}

// DeadlineEntry is one row on the deadline-management screen.
type DeadlineEntry struct {
	PatientID   string
	PatientName string
	Type        string
	Deadline    time.Time
	NextAction  Action
}

// Deadlines collects every active track with a deadline in the selected
// year, optionally restricted to a month set (empty means all months),
// sorted ascending by deadline.
func Deadlines(patients []*patient.Patient, year int, months []int) []DeadlineEntry {
	monthSet := make(map[time.Month]bool, len(months))
	for _, m := range months {
		monthSet[time.Month(m)] = true
	}

	var entries []DeadlineEntry
	for _, p := range patients {
		for _, key := range certificate.AllKeys() {
			track := p.TrackStatus(key)
			if track == nil || track.Status != certificate.StatusActive {
				continue
			}
			deadline, ok := certificate.ParseDate(track.ValidUntil)
			if !ok {
				continue
			}
			if deadline.Year() != year {
				continue
			}
			if len(monthSet) > 0 && !monthSet[deadline.Month()] {
				continue
			}

			label, _ := certificate.TypeForKey(key)
			entry := DeadlineEntry{
				PatientID:   p.ID,
				PatientName: p.Name,
				Type:        string(label),
				Deadline:    deadline,
			}
			if cert := p.Certificate(key); cert != nil {
				entry.NextAction = NextAction(cert.Progress)
			} else {
				entry.NextAction = NextAction(certificate.Progress{})
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Deadline.Before(entries[j].Deadline)
	})
	return entries
}

// daysPerYear accounts for leap years when counting whole years since the
// initial start date.
const daysPerYear = 365.25

// CertificateNeeded reports whether a doctor's certificate is required this
// renewal cycle. Self-support renewals need one biennially, counted in
// whole years since the initial start date; handbook and pension renewals
// always need one. An absent start date assumes a certificate is needed.
func CertificateNeeded(key certificate.TypeKey, initialStartDate *string, now time.Time) bool {
	start, ok := certificate.ParseDate(initialStartDate)
	if !ok {
		return true
	}

	switch key {
	case certificate.KeySelfSupport:
		years := int(now.Sub(start).Hours() / 24 / daysPerYear)
		return years%2 == 0
	case certificate.KeyDisability, certificate.KeyPension:
		return true
	}
	return false
}
