package usagesql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openfin/connect-manager/internal/usage"
)

// Reporter bumps the popularity counter of the self-hosted directory
// directly. Used when the directory is served from the same database
// instead of an external collaborator.
type Reporter struct {
	db *pgxpool.Pool
}

var _ = usage.Reporter(&Reporter{})

func NewReporter(db *pgxpool.Pool) *Reporter {
	return &Reporter{db: db}
}

func (r *Reporter) Report(ctx context.Context, institutionID string) {
	const stmt = `UPDATE institutions SET popularity = popularity + 1 WHERE id = $1`

	if _, err := r.db.Exec(ctx, stmt, institutionID); err != nil {
		slogctx.Debug(ctx, "Dropping failed usage report", "institution_id", institutionID, "error", err)
	}
}
