package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bryanwahyu/phishy/internal/domain/persist"
	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
	"github.com/bryanwahyu/phishy/internal/infra/db/rows"
)

var _ domain.Repository = (*ScanRepository)(nil)

type ScanRepository struct{ db *sqlx.DB }

func NewScanRepository(db *sqlx.DB) *ScanRepository { return &ScanRepository{db: db} }

// Upsert insert/replace every column by url_key
func (r *ScanRepository) Upsert(ctx context.Context, s *domain.CombinedScanResult) error {
	const q = `
INSERT INTO url_scans
(url_key, url, scan_time, is_malicious, scan_success, virus_total, ml_model, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7::jsonb,$8,$9)
ON CONFLICT (url_key) DO UPDATE SET
 url = EXCLUDED.url,
 scan_time = EXCLUDED.scan_time,
 is_malicious = EXCLUDED.is_malicious,
 scan_success = EXCLUDED.scan_success,
 virus_total = EXCLUDED.virus_total,
 ml_model = EXCLUDED.ml_model,
 updated_at = EXCLUDED.updated_at;`

	vt, ml, err := rows.EncodeResults(s)
	if err != nil {
		return persist.Wrap("encode scan result", err)
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, q,
		domain.Key(s.URL), s.URL, s.ScanTime.UTC(), s.IsMalicious, s.ScanSuccess,
		vt, ml, now, now,
	)
	return persist.Wrap("upsert scan result", err)
}

func (r *ScanRepository) GetByURL(ctx context.Context, url string) (*domain.CombinedScanResult, bool, error) {
	const q = `
SELECT url, scan_time, is_malicious, scan_success, virus_total::text AS virus_total, ml_model::text AS ml_model
FROM url_scans
WHERE url_key=$1
LIMIT 1;`
	var row rows.Scan
	if err := r.db.GetContext(ctx, &row, q, domain.Key(url)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, persist.Wrap("get scan result", err)
	}
	s, err := row.Entity()
	if err != nil {
		return nil, false, persist.Wrap("decode scan result", err)
	}
	return s, true, nil
}

func (r *ScanRepository) ListAll(ctx context.Context) ([]domain.Summary, error) {
	const q = `
SELECT url, scan_time, is_malicious, scan_success, virus_total::text AS virus_total, ml_model::text AS ml_model
FROM url_scans
ORDER BY scan_time DESC, id DESC;`
	var list []rows.Scan
	if err := r.db.SelectContext(ctx, &list, q); err != nil {
		return nil, persist.Wrap("list scan results", err)
	}
	out := make([]domain.Summary, 0, len(list))
	for _, row := range list {
		out = append(out, row.Summary())
	}
	return out, nil
}

func (r *ScanRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM url_scans;`)
	return persist.Wrap("delete scan results", err)
}
