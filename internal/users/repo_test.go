package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db"
	"github.com/angelmondragon/phytopro-backend/pkg/db/dbtest"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(dbtest.Open(t))

	hash := "argon"
	created, err := r.Create(ctx, CreateUserDTO{Email: "  Jean@Ferme.FR ", Name: "Jean", PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "jean@ferme.fr", created.Email)

	found, err := r.FindByEmail(ctx, "JEAN@ferme.fr")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	byID, err := r.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jean", byID.Name)

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRepositoryDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(dbtest.Open(t))

	_, err := r.Create(ctx, CreateUserDTO{Email: "a@b.fr", Name: "A"})
	require.NoError(t, err)
	_, err = r.Create(ctx, CreateUserDTO{Email: "A@b.fr", Name: "A bis"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryUpdateProfile(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(dbtest.Open(t))

	u, err := r.Create(ctx, CreateUserDTO{Email: "g@oauth.fr", Name: "G"})
	require.NoError(t, err)

	pic := "https://img/g.png"
	require.NoError(t, r.UpdateProfile(ctx, u.ID, "Gaston", &pic))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gaston", got.Name)
	require.NotNil(t, got.Picture)
	assert.Equal(t, pic, *got.Picture)

	_, err = r.FindByEmail(ctx, "missing@x.fr")
	assert.True(t, repo.IsNotFound(err))
}
