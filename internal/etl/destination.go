package etl

import (
	"context"

	"catalog/internal/domain"
)

// ── Destination ────────────────────────────────────────────
// The persistence gateway writes eligible products into the target table.
// All rows of a run go through one Batch, i.e. one transaction.

// Gateway opens batches against the target store.
type Gateway interface {
	Begin(ctx context.Context) (Batch, error)
}

// Batch is one open transaction on the target store.
type Batch interface {
	// Save checks whether p's product code already exists and inserts p if
	// not. A failed insert reports OutcomeFailed with the underlying error;
	// the batch stays usable.
	Save(ctx context.Context, p domain.Product) (domain.Outcome, error)

	// Commit makes every inserted row visible.
	Commit() error

	// Rollback discards every insert of the batch.
	Rollback() error
}
