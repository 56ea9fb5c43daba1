package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestCSVLog_SplitsByLabel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	l := NewCSVLog(dir)

	require.NoError(t, l.Record("http://paypal-verify.top/login", classification.LabelPhishing))
	require.NoError(t, l.Record("https://example.com", classification.LabelLegitimate))
	require.NoError(t, l.Record("https://example.org/a,b", classification.LabelLegitimate))

	assert.Equal(t, [][]string{
		{"url", "Type"},
		{"http://paypal-verify.top/login", "Phishing"},
	}, readCSV(t, filepath.Join(dir, PhishingFile)))

	assert.Equal(t, [][]string{
		{"url", "Type"},
		{"https://example.com", "Legitimate"},
		{"https://example.org/a,b", "Legitimate"},
	}, readCSV(t, filepath.Join(dir, BenignFile)))
}

func TestCSVLog_HeaderWrittenOnceAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewCSVLog(dir).Record("a.com", classification.LabelLegitimate))
	require.NoError(t, NewCSVLog(dir).Record("b.com", classification.LabelLegitimate))

	recs := readCSV(t, filepath.Join(dir, BenignFile))
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"url", "Type"}, recs[0])
}

func TestCSVLog_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	l := NewCSVLog(dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Record(fmt.Sprintf("http://%d.example", i), classification.LabelPhishing))
		}(i)
	}
	wg.Wait()

	assert.Len(t, readCSV(t, filepath.Join(dir, PhishingFile)), 21)
}

func TestCSVLog_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := NewCSVLog(file).Record("a.com", classification.LabelPhishing)
	assert.Error(t, err)
}
