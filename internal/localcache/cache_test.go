package localcache

import (
	"context"
	"testing"
	"time"

	"github.com/ankon07/medvault-ai-sub000/common/database"
	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache, err := New(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	return cache
}

func TestCache_SaveAndGetAllNewestFirst(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	older := models.Record{ID: "rec-1", CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	newer := models.Record{
		ID:        "rec-2",
		CreatedAt: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
		Analysis: models.Analysis{
			Medications: []models.Medication{{Name: "Amoxicillin", TotalPills: models.IntPtr(10)}},
		},
	}
	require.NoError(t, cache.Save(ctx, older))
	require.NoError(t, cache.Save(ctx, newer))

	records, err := cache.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-2", records[0].ID)
	assert.Equal(t, 10, *records[0].Analysis.Medications[0].TotalPills)
	assert.Equal(t, "rec-1", records[1].ID)
}

func TestCache_SaveIsUpsert(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	rec := models.Record{ID: "rec-1", CreatedAt: time.Now(), ImageRef: "blob://a"}
	require.NoError(t, cache.Save(ctx, rec))
	rec.ImageRef = "blob://b"
	require.NoError(t, cache.Save(ctx, rec))

	records, err := cache.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "blob://b", records[0].ImageRef)
}

func TestCache_UpdateAppliesPatch(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, models.Record{
		ID:        "rec-1",
		CreatedAt: time.Now(),
		Analysis: models.Analysis{
			Medications: []models.Medication{{Name: "Amoxicillin", PillsRemaining: models.IntPtr(10)}},
		},
	}))

	analysis := models.Analysis{Medications: []models.Medication{{Name: "Amoxicillin", PillsRemaining: models.IntPtr(9)}}}
	require.NoError(t, cache.Update(ctx, "rec-1", models.RecordPatch{Analysis: &analysis}))

	records, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, *records[0].Analysis.Medications[0].PillsRemaining)
}

func TestCache_UpdateMissing(t *testing.T) {
	cache := newTestCache(t)

	err := cache.Update(context.Background(), "missing", models.RecordPatch{})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, models.Record{ID: "rec-1", CreatedAt: time.Now()}))
	require.NoError(t, cache.Save(ctx, models.Record{ID: "rec-2", CreatedAt: time.Now()}))

	require.NoError(t, cache.Delete(ctx, "rec-1"))
	require.NoError(t, cache.Delete(ctx, "rec-1"))
	records, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, cache.Clear(ctx))
	records, err = cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCache_CurrentProfile(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	profile, err := cache.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", profile)

	require.NoError(t, cache.SetCurrentProfile(ctx, "profile-1"))
	require.NoError(t, cache.SetCurrentProfile(ctx, "profile-2"))
	profile, err = cache.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "profile-2", profile)

	require.NoError(t, cache.ClearCurrentProfile(ctx))
	profile, err = cache.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", profile)
}
