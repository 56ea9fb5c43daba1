package scans

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishy/internal/application"
	"github.com/bryanwahyu/phishy/internal/domain/persist"
	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
)

type memRepo struct {
	mu   sync.Mutex
	data map[string]domain.CombinedScanResult
	err  error
}

func newMemRepo() *memRepo { return &memRepo{data: map[string]domain.CombinedScanResult{}} }

func (m *memRepo) Upsert(_ context.Context, r *domain.CombinedScanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return persist.Wrap("upsert", m.err)
	}
	m.data[r.URL] = *r
	return nil
}

func (m *memRepo) GetByURL(_ context.Context, url string) (*domain.CombinedScanResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[url]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (m *memRepo) ListAll(context.Context) ([]domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Summary
	for _, r := range m.data {
		out = append(out, domain.Summary{URL: r.URL, ScanTime: r.ScanTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScanTime.After(out[j].ScanTime) })
	return out, nil
}

func (m *memRepo) DeleteAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return persist.Wrap("delete", m.err)
	}
	m.data = map[string]domain.CombinedScanResult{}
	return nil
}

var now = time.Date(2025, 5, 4, 3, 2, 1, 0, time.UTC)

func newService(repo domain.Repository) *Service {
	return &Service{Repo: repo, Clock: application.FixedClock{T: now}, Log: zerolog.Nop()}
}

func TestSave_NormalizesAndDerives(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)

	saved, err := svc.Save(context.Background(), domain.CombinedScanResult{
		URL:         "Example.COM/Login",
		Reputation:  &domain.ReputationResult{IsMalicious: true, ScanSuccess: true},
		IsMalicious: false,
		ScanSuccess: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/Login", saved.URL)
	assert.True(t, saved.IsMalicious)
	assert.True(t, saved.ScanSuccess)
	assert.Equal(t, now, saved.ScanTime)

	got, found, err := svc.Get(context.Background(), "HTTP://example.com/Login")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, saved, got)
}

func TestSave_KeepsSuppliedScanTime(t *testing.T) {
	svc := newService(newMemRepo())
	at := time.Date(2024, 12, 31, 23, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	saved, err := svc.Save(context.Background(), domain.CombinedScanResult{
		URL:      "example.com",
		ML:       &domain.MLResult{ScanSuccess: true},
		ScanTime: at,
	})
	require.NoError(t, err)
	assert.True(t, saved.ScanTime.Equal(at))
	assert.Equal(t, time.UTC, saved.ScanTime.Location())
}

func TestSave_TruncatesToMicroseconds(t *testing.T) {
	svc := newService(newMemRepo())
	saved, err := svc.Save(context.Background(), domain.CombinedScanResult{
		URL:      "example.com",
		ML:       &domain.MLResult{ScanSuccess: true},
		ScanTime: time.Date(2300, 1, 1, 0, 0, 0, 123456789, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 123456000, saved.ScanTime.Nanosecond())
	assert.Equal(t, 2300, saved.ScanTime.Year())
}

func TestSave_RejectsUnstorableScanTime(t *testing.T) {
	repo := newMemRepo()
	_, err := newService(repo).Save(context.Background(), domain.CombinedScanResult{
		URL:      "example.com",
		ML:       &domain.MLResult{ScanSuccess: true},
		ScanTime: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, domain.ErrScanTimeRange)
	assert.Empty(t, repo.data)
}

func TestSave_RejectsEmptyResult(t *testing.T) {
	repo := newMemRepo()
	_, err := newService(repo).Save(context.Background(), domain.CombinedScanResult{URL: "example.com"})
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Empty(t, repo.data)
}

func TestSave_RejectsBlankURL(t *testing.T) {
	_, err := newService(newMemRepo()).Save(context.Background(), domain.CombinedScanResult{
		URL: "  ",
		ML:  &domain.MLResult{},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
}

func TestSave_FullReplace(t *testing.T) {
	svc := newService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.CombinedScanResult{
		URL:        "example.com",
		Reputation: &domain.ReputationResult{IsMalicious: true, ScanSuccess: true},
		ML:         &domain.MLResult{ScanSuccess: true},
	})
	require.NoError(t, err)
	_, err = svc.Save(ctx, domain.CombinedScanResult{
		URL: "example.com",
		ML:  &domain.MLResult{ScanSuccess: true},
	})
	require.NoError(t, err)

	got, found, err := svc.Get(ctx, "example.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Nil(t, got.Reputation)
	assert.False(t, got.IsMalicious)
}

func TestSave_StorageFailure(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("connection reset")
	_, err := newService(repo).Save(context.Background(), domain.CombinedScanResult{
		URL: "example.com",
		ML:  &domain.MLResult{},
	})
	assert.ErrorIs(t, err, persist.ErrStorage)
}

func TestGet_Miss(t *testing.T) {
	got, found, err := newService(newMemRepo()).Get(context.Background(), "example.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	list, err := newService(newMemRepo()).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestClear(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()
	_, err := svc.Save(ctx, domain.CombinedScanResult{URL: "a.example", ML: &domain.MLResult{}})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	repo.err = errors.New("read only")
	assert.ErrorIs(t, svc.Clear(ctx), persist.ErrStorage)
}
