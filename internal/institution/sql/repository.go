package institutionsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfin/connect-manager/internal/institution"
)

const searchLimit = 50

// Repository serves institution searches from a self-hosted directory
// table. Results are ordered by linking popularity so the institutions
// users actually pick float to the top; the popularity counter is fed
// by the usage reporter.
type Repository struct {
	db *pgxpool.Pool
}

var _ = institution.Directory(&Repository{})

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Search(ctx context.Context, countryCode, query string) ([]institution.Institution, error) {
	const stmt = `
		SELECT id, name, COALESCE(logo, ''), provider, country_code, available_history
		FROM institutions
		WHERE country_code = $1
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY popularity DESC, name ASC
		LIMIT $3`

	rows, err := r.db.Query(ctx, stmt, countryCode, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("querying institutions: %w", err)
	}
	defer rows.Close()

	var institutions []institution.Institution
	for rows.Next() {
		var inst institution.Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.Logo, &inst.Provider, &inst.CountryCode, &inst.AvailableHistory); err != nil {
			return nil, fmt.Errorf("scanning institution row: %w", err)
		}
		institutions = append(institutions, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating institution rows: %w", err)
	}

	return institutions, nil
}
