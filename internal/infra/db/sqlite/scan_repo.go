package sqlite

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

// scan_time and the audit columns are unix microseconds, the precision
// MySQL and Postgres keep.
type scanRow struct {
	URL         string         `db:"url"`
	ScanTime    int64          `db:"scan_time"`
	IsMalicious bool           `db:"is_malicious"`
	ScanSuccess bool           `db:"scan_success"`
	VirusTotal  sql.NullString `db:"virus_total"`
	MLModel     sql.NullString `db:"ml_model"`
}

func (r scanRow) toRow() rows.Scan {
	return rows.Scan{
		URL:         r.URL,
		ScanTime:    time.UnixMicro(r.ScanTime),
		IsMalicious: r.IsMalicious,
		ScanSuccess: r.ScanSuccess,
		VirusTotal:  r.VirusTotal,
		MLModel:     r.MLModel,
	}
}

// Upsert insert/replace by url
func (r *ScanRepository) Upsert(ctx context.Context, s *domain.CombinedScanResult) error {
	const q = `
INSERT INTO url_scans
(url_key, url, scan_time, is_malicious, scan_success, virus_total, ml_model, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON CONFLICT(url_key) DO UPDATE SET
 url=excluded.url,
 scan_time=excluded.scan_time,
 is_malicious=excluded.is_malicious,
 scan_success=excluded.scan_success,
 virus_total=excluded.virus_total,
 ml_model=excluded.ml_model,
 updated_at=excluded.updated_at;
`
	vt, ml, err := rows.EncodeResults(s)
	if err != nil {
		return persist.Wrap("encode scan result", err)
	}
	now := time.Now().UTC().UnixMicro()
	_, err = r.db.ExecContext(ctx, q,
		domain.Key(s.URL), s.URL, s.ScanTime.UTC().UnixMicro(), s.IsMalicious, s.ScanSuccess,
		vt, ml, now, now,
	)
	return persist.Wrap("upsert scan result", err)
}

func (r *ScanRepository) GetByURL(ctx context.Context, url string) (*domain.CombinedScanResult, bool, error) {
	const q = `
SELECT url, scan_time, is_malicious, scan_success, virus_total, ml_model
FROM url_scans WHERE url_key=? LIMIT 1;
`
	var row scanRow
	if err := r.db.GetContext(ctx, &row, q, domain.Key(url)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, persist.Wrap("get scan result", err)
	}
	s, err := row.toRow().Entity()
	if err != nil {
		return nil, false, persist.Wrap("decode scan result", err)
	}
	return s, true, nil
}

// ListAll newest first; equal scan times fall back to insertion order.
func (r *ScanRepository) ListAll(ctx context.Context) ([]domain.Summary, error) {
	const q = `
SELECT url, scan_time, is_malicious, scan_success, virus_total, ml_model
FROM url_scans ORDER BY scan_time DESC, id DESC;
`
	var list []scanRow
	if err := r.db.SelectContext(ctx, &list, q); err != nil {
		return nil, persist.Wrap("list scan results", err)
	}
	out := make([]domain.Summary, 0, len(list))
	for _, row := range list {
		out = append(out, row.toRow().Summary())
	}
	return out, nil
}

func (r *ScanRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM url_scans;`)
	return persist.Wrap("delete scan results", err)
}
