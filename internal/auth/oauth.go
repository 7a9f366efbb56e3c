package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/phytopro-backend/pkg/config"
)

const sessionIDHeader = "X-Session-ID"

// ErrProviderRejected means the provider did not recognise the session id.
var ErrProviderRejected = errors.New("identity provider rejected session")

// ProviderSession is the profile returned by the identity provider.
type ProviderSession struct {
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Picture      *string `json:"picture"`
	SessionToken string  `json:"session_token"`
}

// ProviderClient calls the third-party session-data endpoint.
type ProviderClient struct {
	url      string
	http     *http.Client
	attempts uint64
	backoff  time.Duration
}

// NewProviderClient builds a client for cfg.SessionDataURL.
func NewProviderClient(cfg config.OAuthConfig) (*ProviderClient, error) {
	if strings.TrimSpace(cfg.SessionDataURL) == "" {
		return nil, fmt.Errorf("oauth session data url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProviderClient{
		url:      cfg.SessionDataURL,
		http:     &http.Client{Timeout: timeout},
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}, nil
}

// FetchSession exchanges sessionID for the user's profile. Server errors and
// transport failures are retried; a 4xx answer is final.
func (c *ProviderClient) FetchSession(ctx context.Context, sessionID string) (*ProviderSession, error) {
	backoff := retry.WithMaxRetries(c.attempts-1, retry.NewExponential(c.backoff))

	var out *ProviderSession
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		session, err := c.fetchOnce(ctx, sessionID)
		if err != nil {
			return err
		}
		out = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProviderClient) fetchOnce(ctx context.Context, sessionID string) (*ProviderSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(sessionIDHeader, sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("call identity provider: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retry.RetryableError(fmt.Errorf("identity provider status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, ErrProviderRejected
	}

	var session ProviderSession
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode identity provider response: %w", err)
	}
	if strings.TrimSpace(session.Email) == "" {
		return nil, fmt.Errorf("identity provider response missing email")
	}
	return &session, nil
}
