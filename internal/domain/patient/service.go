package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/certdesk/certdesk/internal/domain/certificate"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// Upsert creates the patient row or replaces its mutable columns. A missing
// id is assigned; a missing status falls back to the applying seed.
func (s *Service) Upsert(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusApplying
	}

	now := certificate.Timestamp(time.Now())
	if p.CreatedAt == "" {
		p.CreatedAt = now
	}
	if p.UpdatedAt == "" {
		p.UpdatedAt = now
	}

	return s.patients.Upsert(ctx, p)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	if id == "" {
		return nil, fmt.Errorf("patient id is required")
	}
	return s.patients.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("patient id is required")
	}
	return s.patients.Delete(ctx, id)
}
