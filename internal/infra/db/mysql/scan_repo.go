package mysql

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

type ScanRepository struct {
	db *sqlx.DB
}

func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Upsert insert/replace every column by url_key
func (r *ScanRepository) Upsert(ctx context.Context, s *domain.CombinedScanResult) error {
	const q = `
INSERT INTO url_scans
(url_key, url, scan_time, is_malicious, scan_success, virus_total, ml_model, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 url=VALUES(url),
 scan_time=VALUES(scan_time),
 is_malicious=VALUES(is_malicious), scan_success=VALUES(scan_success),
 virus_total=VALUES(virus_total), ml_model=VALUES(ml_model),
 updated_at=VALUES(updated_at);
`
	// JSON goes in as text; []byte would be sent with the binary charset
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

// GetByURL by normalized url
func (r *ScanRepository) GetByURL(ctx context.Context, url string) (*domain.CombinedScanResult, bool, error) {
	const q = `
SELECT url, scan_time, is_malicious, scan_success, virus_total, ml_model
FROM url_scans
WHERE url_key=? LIMIT 1;
`
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

// ListAll newest first
func (r *ScanRepository) ListAll(ctx context.Context) ([]domain.Summary, error) {
	const q = `
SELECT url, scan_time, is_malicious, scan_success, virus_total, ml_model
FROM url_scans
ORDER BY scan_time DESC, id DESC;
`
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
