package certificate

import (
	"context"
)

// Repository defines the persistence interface for certificates.
type Repository interface {
	// Save inserts the certificate, replacing any existing row with the
	// same id.
	Save(ctx context.Context, cert *MedicalCertificate) error
	// Update writes the certificate into the existing row, inserting when
	// no row with that id exists yet.
	Update(ctx context.Context, cert *MedicalCertificate) error
	GetByID(ctx context.Context, id string) (*MedicalCertificate, error)
	List(ctx context.Context) ([]*MedicalCertificate, error)
	ListByPatient(ctx context.Context, patientID string) ([]*MedicalCertificate, error)
	Delete(ctx context.Context, id string) error
}
