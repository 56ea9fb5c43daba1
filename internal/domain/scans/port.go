package scans

import "context"

// Repository port (persistence of combined scan results)
type Repository interface {
	// Upsert inserts r or replaces every field of the record stored under
	// r.URL, atomically per URL.
	Upsert(ctx context.Context, r *CombinedScanResult) error
	// GetByURL reports found=false when nothing is stored under url.
	GetByURL(ctx context.Context, url string) (r *CombinedScanResult, found bool, err error)
	// ListAll returns summaries ordered by scan time, newest first.
	ListAll(ctx context.Context) ([]Summary, error)
	DeleteAll(ctx context.Context) error
}
