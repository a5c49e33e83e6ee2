package factstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/model"
)

// Store is the read-only Local Fact Store: pre-verified trial, grant, and
// retraction records keyed by identifier. A miss returns (nil, nil); absence
// of a record is not an error, just zero evidence.
type Store interface {
	GetTrial(ctx context.Context, nctID string) (*model.TrialRecord, error)
	GetGrant(ctx context.Context, coreProjectNum string) (*model.GrantRecord, error)
	GetRetraction(ctx context.Context, pmid string) (*model.RetractionRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("factstore: unknown driver %q", driver)
	}
}
