package postgres

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

type APIKeyRepository struct{ db *sqlx.DB }

func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository { return &APIKeyRepository{db: db} }

func (r *APIKeyRepository) Save(ctx context.Context, key string) error {
	const q = `
INSERT INTO api_keys (id, api_key, created_at, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
 api_key = EXCLUDED.api_key,
 updated_at = EXCLUDED.updated_at;`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, q, rows.APIKeyID, key, now, now)
	return persist.Wrap("save api key", err)
}

func (r *APIKeyRepository) Get(ctx context.Context) (domain.Record, bool, error) {
	const q = `SELECT api_key, created_at, updated_at FROM api_keys WHERE id=$1;`
	var row rows.APIKey
	if err := r.db.GetContext(ctx, &row, q, rows.APIKeyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, false, nil
		}
		return domain.Record{}, false, persist.Wrap("get api key", err)
	}
	return row.Record(), true, nil
}
