package ledger

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	lifeInsurance    LifeInsuranceRepository
	pendingClaims    PendingClaimRepository
	insuranceChanges InsuranceChangeRepository
	messages         MessageRepository
}

func NewService(
	lifeInsurance LifeInsuranceRepository,
	pendingClaims PendingClaimRepository,
	insuranceChanges InsuranceChangeRepository,
	messages MessageRepository,
) *Service {
	return &Service{
		lifeInsurance:    lifeInsurance,
		pendingClaims:    pendingClaims,
		insuranceChanges: insuranceChanges,
		messages:         messages,
	}
}

// -- Life Insurance --

func (s *Service) SaveLifeInsurance(ctx context.Context, rec *LifeInsuranceRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if rec.CreatedAt == "" {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt == "" {
		rec.UpdatedAt = now
	}
	return s.lifeInsurance.Save(ctx, rec)
}

func (s *Service) UpdateLifeInsurance(ctx context.Context, id string, rec *LifeInsuranceRecord) error {
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	rec.ID = id
	if rec.UpdatedAt == "" {
		rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.lifeInsurance.Update(ctx, rec)
}

func (s *Service) ListLifeInsurance(ctx context.Context) ([]*LifeInsuranceRecord, error) {
	return s.lifeInsurance.List(ctx)
}

func (s *Service) DeleteLifeInsurance(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	return s.lifeInsurance.Delete(ctx, id)
}

// -- Pending Claims --

func (s *Service) SavePendingClaim(ctx context.Context, claim *PendingClaim) error {
	if claim.ID == "" {
		return fmt.Errorf("claim id is required")
	}
	if claim.Status == "" {
		claim.Status = PendingClaimStatus
	}
	return s.pendingClaims.Save(ctx, claim)
}

func (s *Service) UpdatePendingClaim(ctx context.Context, id string, claim *PendingClaim) error {
	if id == "" {
		return fmt.Errorf("claim id is required")
	}
	claim.ID = id
	return s.pendingClaims.Update(ctx, claim)
}

func (s *Service) ListPendingClaims(ctx context.Context) ([]*PendingClaim, error) {
	return s.pendingClaims.List(ctx)
}

func (s *Service) DeletePendingClaim(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("claim id is required")
	}
	return s.pendingClaims.Delete(ctx, id)
}

// -- Insurance Changes --

func (s *Service) SaveInsuranceChange(ctx context.Context, rec *InsuranceChangeRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if rec.Status == "" {
		rec.Status = InsuranceChangeStatus
	}
	return s.insuranceChanges.Save(ctx, rec)
}

func (s *Service) UpdateInsuranceChange(ctx context.Context, id string, rec *InsuranceChangeRecord) error {
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	rec.ID = id
	return s.insuranceChanges.Update(ctx, rec)
}

func (s *Service) ListInsuranceChanges(ctx context.Context) ([]*InsuranceChangeRecord, error) {
	return s.insuranceChanges.List(ctx)
}

func (s *Service) DeleteInsuranceChange(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	return s.insuranceChanges.Delete(ctx, id)
}

// -- Messages --

func (s *Service) PostMessage(ctx context.Context, msg *Message) error {
	if msg.Notes == "" {
		return fmt.Errorf("message notes are required")
	}
	if msg.ID == "" || msg.Date == "" || msg.Author == "" {
		seeded := NewMessage(msg.Notes, msg.Author, "", time.Now())
		if msg.ID == "" {
			msg.ID = seeded.ID
		}
		if msg.Date == "" {
			msg.Date = seeded.Date
		}
		if msg.Author == "" {
			msg.Author = seeded.Author
		}
	}
	return s.messages.Save(ctx, msg)
}

func (s *Service) ListMessages(ctx context.Context, limit, offset int) ([]*Message, int, error) {
	return s.messages.List(ctx, limit, offset)
}

func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("message id is required")
	}
	return s.messages.Delete(ctx, id)
}
