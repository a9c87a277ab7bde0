package ledger

import (
	"context"
)

// LifeInsuranceRepository defines the persistence interface for the
// life-insurance billing ledger.
type LifeInsuranceRepository interface {
	// Save inserts the record, replacing any existing row with the same id.
	Save(ctx context.Context, rec *LifeInsuranceRecord) error
	Update(ctx context.Context, rec *LifeInsuranceRecord) error
	List(ctx context.Context) ([]*LifeInsuranceRecord, error)
	Delete(ctx context.Context, id string) error
}

// PendingClaimRepository defines the persistence interface for parked claims.
type PendingClaimRepository interface {
	Save(ctx context.Context, claim *PendingClaim) error
	Update(ctx context.Context, claim *PendingClaim) error
	List(ctx context.Context) ([]*PendingClaim, error)
	Delete(ctx context.Context, id string) error
}

// InsuranceChangeRepository defines the persistence interface for
// insurance-change entries.
type InsuranceChangeRepository interface {
	Save(ctx context.Context, rec *InsuranceChangeRecord) error
	Update(ctx context.Context, rec *InsuranceChangeRecord) error
	List(ctx context.Context) ([]*InsuranceChangeRecord, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepository defines the persistence interface for the message board.
type MessageRepository interface {
	Save(ctx context.Context, msg *Message) error
	List(ctx context.Context, limit, offset int) ([]*Message, int, error)
	Delete(ctx context.Context, id string) error
}
