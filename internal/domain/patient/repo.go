package patient

import (
	"context"
)

// ErrNotFound is returned by Delete when no row matches the id.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "patient not found" }

// Repository defines the persistence interface for patient rows. Only the
// flat columns are stored; sub-records live on certificate rows.
type Repository interface {
	// Upsert inserts the patient row or updates every mutable column when
	// the id already exists.
	Upsert(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	// Delete removes one patient row, returning ErrNotFound when absent.
	// Certificate rows cascade at the store level.
	Delete(ctx context.Context, id string) error
}
