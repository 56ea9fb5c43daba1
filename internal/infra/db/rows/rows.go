// Package rows converts scan results to and from the column values shared by
// every SQL backend.
package rows

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bryanwahyu/phishy/internal/domain/apikeys"
	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
)

// APIKeyID is the fixed primary key of the singleton api_keys row.
const APIKeyID = 1

// EncodeResults marshals the optional sub-results into nullable JSON text.
func EncodeResults(r *domain.CombinedScanResult) (virusTotal, mlModel sql.NullString, err error) {
	if r.Reputation != nil {
		b, err := json.Marshal(r.Reputation)
		if err != nil {
			return virusTotal, mlModel, err
		}
		virusTotal = sql.NullString{String: string(b), Valid: true}
	}
	if r.ML != nil {
		b, err := json.Marshal(r.ML)
		if err != nil {
			return virusTotal, mlModel, err
		}
		mlModel = sql.NullString{String: string(b), Valid: true}
	}
	return virusTotal, mlModel, nil
}

// DecodeResults is the inverse of EncodeResults. NULL, empty and JSON null
// columns decode to an absent sub-result.
func DecodeResults(virusTotal, mlModel sql.NullString) (*domain.ReputationResult, *domain.MLResult, error) {
	var (
		rep *domain.ReputationResult
		ml  *domain.MLResult
	)
	if present(virusTotal) {
		rep = new(domain.ReputationResult)
		if err := json.Unmarshal([]byte(virusTotal.String), rep); err != nil {
			return nil, nil, err
		}
	}
	if present(mlModel) {
		ml = new(domain.MLResult)
		if err := json.Unmarshal([]byte(mlModel.String), ml); err != nil {
			return nil, nil, err
		}
	}
	return rep, ml, nil
}

func present(s sql.NullString) bool {
	return s.Valid && s.String != "" && s.String != "null"
}

// Scan is a url_scans row for backends with native timestamp columns.
type Scan struct {
	URL         string         `db:"url"`
	ScanTime    time.Time      `db:"scan_time"`
	IsMalicious bool           `db:"is_malicious"`
	ScanSuccess bool           `db:"scan_success"`
	VirusTotal  sql.NullString `db:"virus_total"`
	MLModel     sql.NullString `db:"ml_model"`
}

func (r Scan) Entity() (*domain.CombinedScanResult, error) {
	rep, ml, err := DecodeResults(r.VirusTotal, r.MLModel)
	if err != nil {
		return nil, err
	}
	return &domain.CombinedScanResult{
		URL:         r.URL,
		ScanTime:    r.ScanTime.UTC(),
		Reputation:  rep,
		ML:          ml,
		IsMalicious: r.IsMalicious,
		ScanSuccess: r.ScanSuccess,
	}, nil
}

func (r Scan) Summary() domain.Summary {
	return domain.Summary{
		URL:           r.URL,
		ScanTime:      r.ScanTime.UTC(),
		IsMalicious:   r.IsMalicious,
		ScanSuccess:   r.ScanSuccess,
		HasReputation: present(r.VirusTotal),
		HasML:         present(r.MLModel),
	}
}

// APIKey is the api_keys row.
type APIKey struct {
	APIKey    string    `db:"api_key"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r APIKey) Record() apikeys.Record {
	return apikeys.Record{APIKey: r.APIKey, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}
