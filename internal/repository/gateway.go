package repository

import (
	"context"

	"github.com/Eursukkul/railconnect/internal/models"
)

// Gateway loads and stores the complete ledger state.
//
// Load never fails because a record is missing or malformed: a missing trains record
// is replaced with models.DefaultTrains and written back, a missing bookings record
// yields empty collections. When Load returns a non-nil snapshot together with an
// error, the snapshot is usable and the error reports that seeding could not be saved.
type Gateway interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}
