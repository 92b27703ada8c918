package themes

import (
	"context"

	"github.com/codr1/biolink/internal/models"
)

// Repository is the persistence the store needs. Lookups that match nothing
// return ErrNoRows (or an error wrapping it).
type Repository interface {
	FindByID(ctx context.Context, id string) (models.Theme, error)
	// FindByOwnerOrSystem returns every system theme plus the themes owned by
	// ownerID.
	FindByOwnerOrSystem(ctx context.Context, ownerID string) ([]models.Theme, error)
	Insert(ctx context.Context, theme models.Theme) error
	// UpdateByID overwrites name, description, tokens and updated_at of a
	// non-system theme owned by ownerID. It returns ErrNoRows when nothing
	// matched.
	UpdateByID(ctx context.Context, theme models.Theme, ownerID string) error
	// DeleteByID removes a non-system theme owned by ownerID and reports
	// whether a row was deleted.
	DeleteByID(ctx context.Context, id string, ownerID string) (bool, error)
}

// DefaultFinder is implemented by repositories that can look up the default
// system theme directly. Store.Default falls back to a list scan without it.
type DefaultFinder interface {
	GetDefaultSystemTheme(ctx context.Context) (models.Theme, error)
}

// Metrics receives store events. A nil Metrics is ignored.
type Metrics interface {
	SaveOutcome(outcome SaveOutcome)
	StoreError(op string)
}
