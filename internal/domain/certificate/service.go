package certificate

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	certs Repository
}

func NewService(certs Repository) *Service {
	return &Service{certs: certs}
}

// validate checks the identity triple and fills derivable gaps: a missing id
// is derived from {patientId, type}, a missing type is derived from the id
// suffix.
func (s *Service) validate(cert *MedicalCertificate) error {
	if cert.PatientID == "" {
		return fmt.Errorf("patient id is required")
	}

	if cert.Type != "" {
		if _, ok := KeyForType(cert.Type); !ok {
			return fmt.Errorf("unknown certificate type %q", cert.Type)
		}
	}

	if cert.ID == "" {
		key, ok := KeyForType(cert.Type)
		if !ok {
			return fmt.Errorf("certificate id or type is required")
		}
		cert.ID = DeriveID(cert.PatientID, key)
	}

	if cert.Type == "" {
		for _, key := range AllKeys() {
			if cert.ID == DeriveID(cert.PatientID, key) {
				cert.Type, _ = TypeForKey(key)
				break
			}
		}
		if cert.Type == "" {
			return fmt.Errorf("certificate type is required")
		}
	}

	return nil
}

// Save stores the certificate, replacing any existing row with the same id.
func (s *Service) Save(ctx context.Context, cert *MedicalCertificate) error {
	if err := s.validate(cert); err != nil {
		return err
	}

	now := Timestamp(time.Now())
	if cert.CreatedAt == "" {
		cert.CreatedAt = now
	}
	if cert.UpdatedAt == "" {
		cert.UpdatedAt = now
	}

	return s.certs.Save(ctx, cert)
}

// Update writes into the existing row for cert.ID, inserting when absent.
func (s *Service) Update(ctx context.Context, id string, cert *MedicalCertificate) error {
	if id != "" {
		cert.ID = id
	}
	if err := s.validate(cert); err != nil {
		return err
	}

	now := Timestamp(time.Now())
	if cert.CreatedAt == "" {
		cert.CreatedAt = now
	}
	if cert.UpdatedAt == "" {
		cert.UpdatedAt = now
	}

	return s.certs.Update(ctx, cert)
}

func (s *Service) Get(ctx context.Context, id string) (*MedicalCertificate, error) {
	if id == "" {
		return nil, fmt.Errorf("certificate id is required")
	}
	return s.certs.GetByID(ctx, id)
}

// List returns all certificates, or only one patient's when patientID is set.
func (s *Service) List(ctx context.Context, patientID string) ([]*MedicalCertificate, error) {
	if patientID != "" {
		return s.certs.ListByPatient(ctx, patientID)
	}
	return s.certs.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("certificate id is required")
	}
	return s.certs.Delete(ctx, id)
}
