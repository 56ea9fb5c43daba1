package scans

import (
	"errors"
	"time"
)

// ErrEmptyResult rejects a combined result that carries neither sub-result.
var ErrEmptyResult = errors.New("scan result has neither reputation nor ml result")

// ErrScanTimeRange rejects a scan time no backend can store exactly.
var ErrScanTimeRange = errors.New("scanTime must fall within years 1000-9999")

// Storable scan time bounds, those of a MySQL DATETIME.
var (
	MinScanTime = time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxScanTime = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ReputationStats value object (vendor verdict counts)
type ReputationStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

// ReputationResult is the outcome reported by the external reputation service.
type ReputationResult struct {
	URL         string          `json:"url"`
	ScanTime    string          `json:"scanTime"`
	Stats       ReputationStats `json:"stats"`
	IsMalicious bool            `json:"isMalicious"`
	ScanSuccess bool            `json:"scanSuccess"`
	Error       string          `json:"error,omitempty"`
	AnalysisID  string          `json:"analysisId,omitempty"`
}

// MLResult is the local classifier's outcome as recorded by the caller.
type MLResult struct {
	URL         string  `json:"url"`
	ScanTime    string  `json:"scanTime"`
	Prediction  string  `json:"prediction"`
	Confidence  float64 `json:"confidence"`
	IsMalicious bool    `json:"isMalicious"`
	ScanSuccess bool    `json:"scanSuccess"`
	Error       string  `json:"error,omitempty"`
}

// CombinedScanResult is the persisted unit, keyed by URL.
type CombinedScanResult struct {
	URL         string            `json:"url"`
	ScanTime    time.Time         `json:"scanTime"`
	Reputation  *ReputationResult `json:"virusTotal"`
	ML          *MLResult         `json:"mlModel"`
	IsMalicious bool              `json:"isMalicious"`
	ScanSuccess bool              `json:"scanSuccess"`
}

// Validate enforces that at least one sub-result is present and that a
// supplied scan time is storable. A zero ScanTime is left for the caller to
// stamp.
func (r *CombinedScanResult) Validate() error {
	if r.Reputation == nil && r.ML == nil {
		return ErrEmptyResult
	}
	if !r.ScanTime.IsZero() && (r.ScanTime.Before(MinScanTime) || !r.ScanTime.Before(MaxScanTime)) {
		return ErrScanTimeRange
	}
	return nil
}

// Derive recomputes the aggregate flags from the sub-results: malicious if
// either sub-result says so, successful if at least one completed.
func (r *CombinedScanResult) Derive() {
	r.IsMalicious = false
	r.ScanSuccess = false
	if rep := r.Reputation; rep != nil {
		r.IsMalicious = r.IsMalicious || rep.IsMalicious
		r.ScanSuccess = r.ScanSuccess || (rep.ScanSuccess && rep.Error == "")
	}
	if ml := r.ML; ml != nil {
		r.IsMalicious = r.IsMalicious || ml.IsMalicious
		r.ScanSuccess = r.ScanSuccess || (ml.ScanSuccess && ml.Error == "")
	}
}

// Summary is the listing view of a stored result.
type Summary struct {
	URL           string    `json:"url"`
	ScanTime      time.Time `json:"scanTime"`
	IsMalicious   bool      `json:"isMalicious"`
	ScanSuccess   bool      `json:"scanSuccess"`
	HasReputation bool      `json:"hasVirusTotal"`
	HasML         bool      `json:"hasMlModel"`
}
