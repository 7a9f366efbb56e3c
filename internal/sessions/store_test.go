package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/phytopro-backend/pkg/db/dbtest"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s := NewStore(dbtest.Open(t))
	s.now = func() time.Time { return now }
	return s
}

func TestStoreCreateFindDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)
	userID := uuid.New()

	_, err := s.Create(ctx, userID, "tok-1", now.Add(7*24*time.Hour))
	require.NoError(t, err)

	found, err := s.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, userID, found.UserID)

	require.NoError(t, s.Delete(ctx, "tok-1"))
	_, err = s.Find(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "never-existed"))
}

func TestStoreFindTreatsExpiredAsAbsent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	_, err := s.Create(ctx, uuid.New(), "old", now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = s.Create(ctx, uuid.New(), "edge", now)
	require.NoError(t, err)

	_, err = s.Find(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Find(ctx, "edge")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Find(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)
	userID := uuid.New()

	_, err := s.Create(ctx, userID, "expired-a", now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = s.Create(ctx, userID, "expired-b", now.Add(-time.Second))
	require.NoError(t, err)
	_, err = s.Create(ctx, userID, "live", now.Add(time.Hour))
	require.NoError(t, err)

	removed, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, err = s.Find(ctx, "live")
	assert.NoError(t, err)
}
