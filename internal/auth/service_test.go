package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/phytopro-backend/internal/sessions"
	"github.com/angelmondragon/phytopro-backend/internal/users"
	pkgAuth "github.com/angelmondragon/phytopro-backend/pkg/auth"
	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "phytopro"}

type stubProvider struct {
	session *ProviderSession
	err     error
	calls   int
}

func (s *stubProvider) FetchSession(ctx context.Context, sessionID string) (*ProviderSession, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func buildTestService(t *testing.T, provider *stubProvider) (*service, *sessions.Store) {
	t.Helper()
	conn := dbtest.Open(t)
	store := sessions.NewStore(conn)
	if provider == nil {
		provider = &stubProvider{}
	}
	svc, err := NewService(ServiceParams{
		UserRepo:      users.NewRepository(conn),
		Sessions:      store,
		Provider:      provider,
		JWTConfig:     testJWT,
		SessionConfig: config.SessionConfig{TTL: 7 * 24 * time.Hour},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		},
	})
	require.NoError(t, err)
	return svc.(*service), store
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestRegisterLoginAuthenticateLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := buildTestService(t, nil)

	reg, err := svc.Register(ctx, RegisterRequest{Email: "Marie@Verger.fr", Password: "secret-123", Name: "Marie"})
	require.NoError(t, err)
	assert.Equal(t, "marie@verger.fr", reg.User.Email)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), reg.ExpiresAt, time.Minute)

	claims, err := pkgAuth.ParseSessionToken(testJWT, reg.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	login, err := svc.Login(ctx, LoginRequest{Email: "marie@verger.fr", Password: "secret-123"})
	require.NoError(t, err)
	assert.NotEqual(t, reg.SessionToken, login.SessionToken)

	user, err := svc.Authenticate(ctx, login.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)

	require.NoError(t, svc.Logout(ctx, login.SessionToken))
	_, err = svc.Authenticate(ctx, login.SessionToken)
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, reg.SessionToken)
	require.NoError(t, err, "other sessions stay live")
}

func TestRegisterValidationAndConflict(t *testing.T) {
	ctx := context.Background()
	svc, _ := buildTestService(t, nil)

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.fr", Password: "short", Name: "A"})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.fr", Password: "long-enough", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "A@B.fr", Password: "long-enough", Name: "A"})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := buildTestService(t, &stubProvider{session: &ProviderSession{Email: "oauth@x.fr", Name: "O", SessionToken: "p1"}})

	_, err := svc.Register(ctx, RegisterRequest{Email: "l@x.fr", Password: "password-1", Name: "L"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "l@x.fr", Password: "wrong-password"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@x.fr", Password: "password-1"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.ExchangeSession(ctx, "sid")
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginRequest{Email: "oauth@x.fr", Password: "anything-1"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestExchangeSessionCreatesThenReusesUser(t *testing.T) {
	ctx := context.Background()
	pic := "https://img/e.png"
	provider := &stubProvider{session: &ProviderSession{Email: "Eve@Ferme.fr", Name: "Eve", Picture: &pic, SessionToken: "provider-token"}}
	svc, store := buildTestService(t, provider)

	first, err := svc.ExchangeSession(ctx, "one-time")
	require.NoError(t, err)
	assert.Equal(t, "eve@ferme.fr", first.User.Email)

	claims, err := pkgAuth.ParseSessionToken(testJWT, first.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "provider-token", claims.SessionToken())
	_, err = store.Find(ctx, "provider-token")
	require.NoError(t, err)

	provider.session.Name = "Eve Martin"
	second, err := svc.ExchangeSession(ctx, "one-time-2")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "Eve Martin", second.User.Name)
}

func TestExchangeSessionProviderErrors(t *testing.T) {
	ctx := context.Background()

	svc, _ := buildTestService(t, &stubProvider{err: ErrProviderRejected})
	_, err := svc.ExchangeSession(ctx, "sid")
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	svc, _ = buildTestService(t, &stubProvider{err: errors.New("dial tcp: timeout")})
	_, err = svc.ExchangeSession(ctx, "sid")
	requireCode(t, err, pkgerrors.CodeDependency)

	_, err = svc.ExchangeSession(ctx, "  ")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestAuthenticateRejectsForgedAndExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := buildTestService(t, nil)

	_, err := svc.Authenticate(ctx, "")
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	reg, err := svc.Register(ctx, RegisterRequest{Email: "x@y.fr", Password: "password-1", Name: "X"})
	require.NoError(t, err)

	forged, err := pkgAuth.MintSessionToken(config.JWTConfig{Secret: "other", Issuer: testJWT.Issuer}, time.Now(), pkgAuth.SessionTokenPayload{
		UserID: reg.User.ID, SessionToken: "guess", ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	unknown, err := pkgAuth.MintSessionToken(testJWT, time.Now(), pkgAuth.SessionTokenPayload{
		UserID: reg.User.ID, SessionToken: "not-stored", ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, unknown)
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutIgnoresGarbage(t *testing.T) {
	svc, _ := buildTestService(t, nil)
	assert.NoError(t, svc.Logout(context.Background(), "garbage"))
}
