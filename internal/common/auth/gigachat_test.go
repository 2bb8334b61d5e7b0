package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolead-bot/internal/common/config"
	"autolead-bot/internal/common/logger"
)

func testConfig(authURL string) config.GigaChatConfig {
	return config.GigaChatConfig{
		AuthURL:   authURL,
		AuthKey:   "dGVzdDp0ZXN0",
		Scope:     "GIGACHAT_API_PERS",
		Timeout:   5 * time.Second,
		VerifySSL: true,
	}
}

func TestTokenManager_FetchesToken(t *testing.T) {
	var gotAuth, gotRqUID, gotScope string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRqUID = r.Header.Get("RqUID")
		require.NoError(t, r.ParseForm())
		gotScope = r.PostForm.Get("scope")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":1800}`))
	}))
	defer server.Close()

	m := NewTokenManager(testConfig(server.URL), logger.NewNoOpLogger())

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, "Basic dGVzdDp0ZXN0", gotAuth)
	assert.NotEmpty(t, gotRqUID)
	assert.Equal(t, "GIGACHAT_API_PERS", gotScope)
}

func TestTokenManager_CachesUntilExpiry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"access_token":"tok-1","expires_in":1800}`))
	}))
	defer server.Close()

	m := NewTokenManager(testConfig(server.URL), logger.NewNoOpLogger())
	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// advance past expires_in minus the slack window
	now = now.Add(30 * time.Minute)
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTokenManager_Invalidate(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"access_token":"tok","expires_in":1800}`))
	}))
	defer server.Close()

	m := NewTokenManager(testConfig(server.URL), logger.NewNoOpLogger())

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	m.Invalidate()
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTokenManager_ErrorStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	m := NewTokenManager(cfg, logger.NewNoOpLogger())
	m.retryWait = 0

	_, err := m.Token(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 1, calls, "credential errors are not retried")
}

func TestTokenManager_RetriesRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"access_token":"tok","expires_in":1800}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 2
	m := NewTokenManager(cfg, logger.NewNoOpLogger())
	m.retryWait = 0

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, 2, calls)
}

func TestTokenManager_MissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_in":1800}`))
	}))
	defer server.Close()

	m := NewTokenManager(testConfig(server.URL), logger.NewNoOpLogger())

	_, err := m.Token(context.Background())
	assert.Error(t, err)
}
