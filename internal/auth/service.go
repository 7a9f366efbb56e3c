package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/internal/sessions"
	"github.com/angelmondragon/phytopro-backend/internal/users"
	pkgAuth "github.com/angelmondragon/phytopro-backend/pkg/auth"
	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/db"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	minPasswordLength         = 8
	sessionTokenEntropy       = 32
)

// Service defines the behavior needed by the auth controller and middleware.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*SessionResult, error)
	Login(ctx context.Context, req LoginRequest) (*SessionResult, error)
	ExchangeSession(ctx context.Context, sessionID string) (*SessionResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, picture *string) error
}

type sessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.UserSession, error)
	Find(ctx context.Context, token string) (*models.UserSession, error)
	Delete(ctx context.Context, token string) error
}

type identityProvider interface {
	FetchSession(ctx context.Context, sessionID string) (*ProviderSession, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Sessions       sessionStore
	Provider       identityProvider
	JWTConfig      config.JWTConfig
	SessionConfig  config.SessionConfig
	PasswordConfig config.PasswordConfig
}

type service struct {
	users       userRepository
	sessions    sessionStore
	provider    identityProvider
	jwtCfg      config.JWTConfig
	ttl         time.Duration
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	ttl := params.SessionConfig.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &service{
		users:       params.UserRepo,
		sessions:    params.Sessions,
		provider:    params.Provider,
		jwtCfg:      params.JWTConfig,
		ttl:         ttl,
		passwordCfg: params.PasswordConfig,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*SessionResult, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !repo.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:             email,
		Name:              name,
		PasswordHash:      &hash,
		IsProfessional:    req.IsProfessional,
		CertificateNumber: req.CertificateNumber,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return s.openSession(ctx, user, "")
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResult, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.openSession(ctx, user, "")
}

func (s *service) ExchangeSession(ctx context.Context, sessionID string) (*SessionResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required")
	}

	profile, err := s.provider.FetchSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrProviderRejected) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "identity provider unavailable")
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = profile.Email
	}

	user, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if err := s.users.UpdateProfile(ctx, user.ID, name, profile.Picture); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		user.Name = name
		user.Picture = profile.Picture
	case repo.IsNotFound(err):
		user, err = s.users.Create(ctx, users.CreateUserDTO{
			Email:   profile.Email,
			Name:    name,
			Picture: profile.Picture,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if profile.SessionToken != "" {
		if err := s.sessions.Delete(ctx, profile.SessionToken); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace session")
		}
	}
	return s.openSession(ctx, user, profile.SessionToken)
}

func (s *service) Logout(ctx context.Context, token string) error {
	claims, err := pkgAuth.ParseSessionToken(s.jwtCfg, token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionToken()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete session")
	}
	return nil
}

func (s *service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	claims, err := pkgAuth.ParseSessionToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token")
	}

	row, err := s.sessions.Find(ctx, claims.SessionToken())
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup session")
	}
	if row.UserID != claims.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session token")
	}

	user, err := s.users.FindByID(ctx, row.UserID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}

// openSession stores a session for user and wraps it in a signed token. An
// empty opaque value is replaced by a freshly generated one.
func (s *service) openSession(ctx context.Context, user *models.User, opaque string) (*SessionResult, error) {
	if opaque == "" {
		generated, err := security.GenerateSessionToken(sessionTokenEntropy)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate session token")
		}
		opaque = generated
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	if _, err := s.sessions.Create(ctx, user.ID, opaque, expiresAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session")
	}

	token, err := pkgAuth.MintSessionToken(s.jwtCfg, now, pkgAuth.SessionTokenPayload{
		UserID:       user.ID,
		SessionToken: opaque,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	return &SessionResult{
		User:         users.FromModel(user),
		SessionToken: token,
		ExpiresAt:    expiresAt,
	}, nil
}
