package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
)

// ErrNotFound is returned when a token is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store persists login sessions keyed by their opaque token.
type Store struct {
	repo.Base
	now func() time.Time
}

// NewStore builds a session store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{Base: repo.NewBase(db), now: func() time.Time { return time.Now().UTC() }}
}

// Create records a new session for userID expiring at expiresAt.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.UserSession, error) {
	if token == "" {
		return nil, errors.New("session token required")
	}
	row := &models.UserSession{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    expiresAt.UTC(),
	}
	if err := s.DB(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Find returns the live session for token; expired rows are treated as absent.
func (s *Store) Find(ctx context.Context, token string) (*models.UserSession, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var row models.UserSession
	err := s.DB(ctx).
		Where("session_token = ? AND expires_at > ?", token, s.now()).
		First(&row).Error
	if repo.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes the session identified by token. Unknown tokens are ignored.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.DB(ctx).Where("session_token = ?", token).Delete(&models.UserSession{}).Error
}

// DeleteExpired purges sessions that expired before now and reports how many went.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.DB(ctx).Where("expires_at <= ?", s.now()).Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}
