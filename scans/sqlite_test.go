package scans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newRecord(t *testing.T, userID, rawURL string, created time.Time, human, ai int) *ScanRecord {
	t.Helper()
	r := fullReport()
	r.Human.ClarityScore = human
	r.AI.AISEOScore = ai
	rec, err := BuildRecord(userID, rawURL, SectionsOf(r))
	require.NoError(t, err)
	rec.CreatedAt = created
	return rec
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 123456789, time.UTC)

	rec := newRecord(t, "user-1", "https://example.com", now, 80, 60)
	require.NoError(t, store.Create(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	got, err := store.Get(ctx, "user-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	t.Run("other users cannot see it", func(t *testing.T) {
		_, err := store.Get(ctx, "user-2", rec.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, "user-1", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLiteStoreList(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	old := newRecord(t, "user-1", "https://old.example.com", now.Add(-10*24*time.Hour), 95, 95)
	low := newRecord(t, "user-1", "https://low.example.com", now.Add(-2*24*time.Hour), 40, 50)
	fresh := newRecord(t, "user-1", "https://fresh.example.com", now.Add(-time.Hour), 80, 80)
	other := newRecord(t, "user-2", "https://other.example.com", now, 10, 10)
	for _, rec := range []*ScanRecord{old, low, fresh, other} {
		require.NoError(t, store.Create(ctx, rec))
	}

	ids := func(records []*ScanRecord) []string {
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"newest first by default", ListOptions{Now: now}, []string{fresh.ID, low.ID, old.ID}},
		{"by score", ListOptions{SortBy: SortByScore, Now: now}, []string{old.ID, fresh.ID, low.ID}},
		{"recent", ListOptions{Filter: FilterRecent, Now: now}, []string{fresh.ID, low.ID}},
		{"low score", ListOptions{Filter: FilterLowScore, Now: now}, []string{low.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.List(ctx, "user-1", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(records))
		})
	}

	t.Run("empty history", func(t *testing.T) {
		records, err := store.List(ctx, "nobody", ListOptions{})
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("stats", func(t *testing.T) {
		st, err := store.Stats(ctx, "user-1", now)
		require.NoError(t, err)
		assert.Equal(t, 3, st.TotalScans)
		assert.Equal(t, 3, st.UniqueDomains)
		assert.Equal(t, 2, st.RecentScans)
		assert.Equal(t, 6, st.TotalIssues)
		assert.Equal(t, ScoreDistribution{Excellent: 1, Good: 1, NeedsImprovement: 1}, st.ScoreDistribution)
	})
}

func TestSQLiteStoreChecklistAndDelete(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	rec := newRecord(t, "user-1", "https://example.com", time.Now().UTC(), 80, 80)
	require.NoError(t, store.Create(ctx, rec))

	checklist := rec.Checklist
	checklist[0].Checked = true
	updated, err := store.UpdateChecklist(ctx, "user-1", rec.ID, checklist)
	require.NoError(t, err)
	assert.True(t, updated.Checklist[0].Checked)
	assert.False(t, updated.Checklist[1].Checked)

	_, err = store.UpdateChecklist(ctx, "user-2", rec.ID, checklist)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "user-2", rec.ID), ErrNotFound)
	require.NoError(t, store.Delete(ctx, "user-1", rec.ID))
	assert.ErrorIs(t, store.Delete(ctx, "user-1", rec.ID), ErrNotFound)

	_, err = store.Get(ctx, "user-1", rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorePreorders(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	p, err := NewPreorder("Founder@Example.com", "https://example.com", "landing")
	require.NoError(t, err)
	require.NoError(t, store.AddPreorder(ctx, p))
	assert.NotEmpty(t, p.ID)

	again, err := NewPreorder("founder@example.com ", "", "pricing")
	require.NoError(t, err)
	assert.ErrorIs(t, store.AddPreorder(ctx, again), ErrDuplicate)
}
