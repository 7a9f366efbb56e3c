package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/phytopro-backend/pkg/config"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *ProviderClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewProviderClient(config.OAuthConfig{SessionDataURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	client.backoff = time.Millisecond
	return client
}

func TestProviderClientFetchSession(t *testing.T) {
	client := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sess-123", r.Header.Get("X-Session-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"paul@vigne.fr","name":"Paul","picture":"https://img/p.png","session_token":"prov-tok"}`))
	})

	got, err := client.FetchSession(context.Background(), "sess-123")
	require.NoError(t, err)
	assert.Equal(t, "paul@vigne.fr", got.Email)
	assert.Equal(t, "prov-tok", got.SessionToken)
	require.NotNil(t, got.Picture)
}

func TestProviderClientRejectedIsFinal(t *testing.T) {
	var calls int32
	client := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchSession(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrProviderRejected)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestProviderClientRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"email":"r@x.fr","name":"R","session_token":"t"}`))
	})

	got, err := client.FetchSession(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, "r@x.fr", got.Email)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestNewProviderClientRequiresURL(t *testing.T) {
	_, err := NewProviderClient(config.OAuthConfig{})
	assert.Error(t, err)
}
