// Package dbtest holds the behaviour every repository backend must share.
// Each dialect package runs these against its own connection.
package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishy/internal/domain/apikeys"
	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
)

// Sample is a fully populated result. Times are kept to microseconds, the
// finest precision MySQL and Postgres store.
func Sample(url string, at time.Time) *domain.CombinedScanResult {
	return &domain.CombinedScanResult{
		URL:      url,
		ScanTime: at,
		Reputation: &domain.ReputationResult{
			URL:         url,
			ScanTime:    at.Format(time.RFC3339),
			Stats:       domain.ReputationStats{Malicious: 3, Harmless: 60, Undetected: 7},
			IsMalicious: true,
			ScanSuccess: true,
			AnalysisID:  "u-abc-123",
		},
		ML: &domain.MLResult{
			URL:         url,
			ScanTime:    at.Format(time.RFC3339),
			Prediction:  "phishing",
			Confidence:  91.25,
			IsMalicious: true,
			ScanSuccess: true,
		},
		IsMalicious: true,
		ScanSuccess: true,
	}
}

// ScanRepository runs the scan store contract; fresh must return an empty store.
func ScanRepository(t *testing.T, fresh func(t *testing.T) domain.Repository) {
	ctx := context.Background()

	t.Run("upsert is idempotent", func(t *testing.T) {
		repo := fresh(t)
		r := Sample("http://example.com/login", time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC))

		require.NoError(t, repo.Upsert(ctx, r))
		require.NoError(t, repo.Upsert(ctx, r))

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		got, found, err := repo.GetByURL(ctx, r.URL)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, r, got)
	})

	t.Run("overwrite clears absent sub-result", func(t *testing.T) {
		repo := fresh(t)
		at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Upsert(ctx, Sample("http://example.com", at)))

		second := Sample("http://example.com", at.Add(time.Hour))
		second.Reputation = nil
		second.ML.IsMalicious = false
		second.IsMalicious = false
		require.NoError(t, repo.Upsert(ctx, second))

		got, found, err := repo.GetByURL(ctx, "http://example.com")
		require.NoError(t, err)
		require.True(t, found)
		assert.Nil(t, got.Reputation)
		assert.Equal(t, second, got)

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.False(t, list[0].HasReputation)
		assert.True(t, list[0].HasML)
	})

	t.Run("miss", func(t *testing.T) {
		got, found, err := fresh(t).GetByURL(ctx, "http://nowhere.example")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
	})

	t.Run("list newest first", func(t *testing.T) {
		repo := fresh(t)
		t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		t2 := t1.Add(time.Minute)
		t3 := t2.Add(time.Minute)

		require.NoError(t, repo.Upsert(ctx, Sample("http://b.example", t2)))
		require.NoError(t, repo.Upsert(ctx, Sample("http://c.example", t3)))
		require.NoError(t, repo.Upsert(ctx, Sample("http://a.example", t1)))

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "http://c.example", list[0].URL)
		assert.Equal(t, "http://b.example", list[1].URL)
		assert.Equal(t, "http://a.example", list[2].URL)
		assert.True(t, list[0].ScanTime.Equal(t3))
		assert.True(t, list[0].HasReputation)
		assert.True(t, list[0].HasML)
	})

	t.Run("ties by insertion order", func(t *testing.T) {
		repo := fresh(t)
		at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Upsert(ctx, Sample("http://first.example", at)))
		require.NoError(t, repo.Upsert(ctx, Sample("http://second.example", at)))

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "http://second.example", list[0].URL)
		assert.Equal(t, "http://first.example", list[1].URL)
	})

	t.Run("scan times across the storable range", func(t *testing.T) {
		repo := fresh(t)
		early := time.Date(1500, 7, 1, 8, 0, 0, 1000, time.UTC)
		late := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
		edge := domain.MaxScanTime.Add(-time.Microsecond)

		require.NoError(t, repo.Upsert(ctx, Sample("http://early.example", early)))
		require.NoError(t, repo.Upsert(ctx, Sample("http://late.example", late)))
		require.NoError(t, repo.Upsert(ctx, Sample("http://edge.example", edge)))
		require.NoError(t, repo.Upsert(ctx, Sample("http://now.example", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))

		for url, want := range map[string]time.Time{
			"http://early.example": early,
			"http://late.example":  late,
			"http://edge.example":  edge,
		} {
			got, found, err := repo.GetByURL(ctx, url)
			require.NoError(t, err)
			require.True(t, found, url)
			assert.True(t, want.Equal(got.ScanTime), "%s: want %s got %s", url, want, got.ScanTime)
		}

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "http://edge.example", list[0].URL)
		assert.Equal(t, "http://late.example", list[1].URL)
		assert.Equal(t, "http://now.example", list[2].URL)
		assert.Equal(t, "http://early.example", list[3].URL)
	})

	t.Run("delete all twice", func(t *testing.T) {
		repo := fresh(t)
		at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Upsert(ctx, Sample(fmt.Sprintf("http://%d.example", i), at)))
		}

		require.NoError(t, repo.DeleteAll(ctx))
		require.NoError(t, repo.DeleteAll(ctx))

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("concurrent upserts of one url", func(t *testing.T) {
		repo := fresh(t)
		base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, repo.Upsert(ctx, Sample("http://race.example", base.Add(time.Duration(i)*time.Second))))
			}(i)
		}
		wg.Wait()

		list, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

// APIKeyRepository runs the singleton key store contract.
func APIKeyRepository(t *testing.T, fresh func(t *testing.T) apikeys.Repository) {
	ctx := context.Background()
	repo := fresh(t)

	_, found, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Save(ctx, "k"))
	rec, found, err := repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "k", rec.APIKey)
	created := rec.CreatedAt

	require.NoError(t, repo.Save(ctx, "k2"))
	rec, found, err = repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "k2", rec.APIKey)
	assert.True(t, rec.CreatedAt.Equal(created))
	assert.False(t, rec.UpdatedAt.Before(created))
}
