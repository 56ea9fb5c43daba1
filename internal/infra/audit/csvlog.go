// Package audit appends every classification to per-label CSV files.
package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
)

const (
	PhishingFile = "phishing_urls.csv"
	BenignFile   = "benign_urls.csv"
)

var header = []string{"url", "Type"}

// CSVLog is safe for concurrent use; appends are serialized.
type CSVLog struct {
	dir string
	mu  sync.Mutex
}

// NewCSVLog writes into dir, creating it on first use.
func NewCSVLog(dir string) *CSVLog {
	return &CSVLog{dir: dir}
}

// Record appends url with its capitalized label. A new or empty file gets the
// header row first.
func (l *CSVLog) Record(url string, label classification.Label) error {
	name := BenignFile
	if label == classification.LabelPhishing {
		name = PhishingFile
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("audit dir: %w", err)
	}
	path := filepath.Join(l.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("audit stat %s: %w", name, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write([]string{url, capitalize(string(label))}); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("audit write %s: %w", name, err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Discard drops every record.
type Discard struct{}

func (Discard) Record(string, classification.Label) error { return nil }
