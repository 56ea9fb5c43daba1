package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	domain "github.com/bryanwahyu/phishy/internal/domain/apikeys"
	"github.com/bryanwahyu/phishy/internal/domain/persist"
	"github.com/bryanwahyu/phishy/internal/infra/db/rows"
)

var _ domain.Repository = (*APIKeyRepository)(nil)

type APIKeyRepository struct {
	db *sqlx.DB
}

func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

type apiKeyRow struct {
	APIKey    string `db:"api_key"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// Save replaces the singleton key; created_at survives replacement.
func (r *APIKeyRepository) Save(ctx context.Context, key string) error {
	const q = `
INSERT INTO api_keys (id, api_key, created_at, updated_at)
VALUES (?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
 api_key=excluded.api_key,
 updated_at=excluded.updated_at;
`
	now := time.Now().UTC().UnixMicro()
	_, err := r.db.ExecContext(ctx, q, rows.APIKeyID, key, now, now)
	return persist.Wrap("save api key", err)
}

func (r *APIKeyRepository) Get(ctx context.Context) (domain.Record, bool, error) {
	const q = `SELECT api_key, created_at, updated_at FROM api_keys WHERE id=?;`
	var row apiKeyRow
	if err := r.db.GetContext(ctx, &row, q, rows.APIKeyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, false, nil
		}
		return domain.Record{}, false, persist.Wrap("get api key", err)
	}
	return rows.APIKey{
		APIKey:    row.APIKey,
		CreatedAt: time.UnixMicro(row.CreatedAt),
		UpdatedAt: time.UnixMicro(row.UpdatedAt),
	}.Record(), true, nil
}
