package auth

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"autolead-bot/internal/common/config"
	"autolead-bot/internal/common/logger"
	"autolead-bot/internal/common/metrics"
)

// TokenManager fetches and caches GigaChat OAuth access tokens.
// Tokens are reused until shortly before expiry; concurrent callers
// share a single refresh.
type TokenManager struct {
	cfg    config.GigaChatConfig
	client *http.Client
	log    logger.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now       func() time.Time
	retryWait time.Duration
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix millis
	ExpiresIn   int64  `json:"expires_in"` // seconds, some deployments return this instead
}

// expirySlack is subtracted from the token lifetime so a token is never
// used in the last minute before the issuer invalidates it.
const expirySlack = 60 * time.Second

func NewTokenManager(cfg config.GigaChatConfig, log logger.Logger) *TokenManager {
	transport := &http.Transport{}
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &TokenManager{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log:       log,
		now:       time.Now,
		retryWait: 2 * time.Second,
	}
}

// Token returns a valid access token, refreshing it when the cached one
// is missing or about to expire.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, nil
	}

	token, expiresAt, err := m.fetchTokenWithRetry(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	m.token = token
	m.expiresAt = expiresAt
	m.log.Debug("access token refreshed", map[string]interface{}{
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	return m.token, nil
}

// Invalidate drops the cached token so the next Token call refreshes.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
}

// fetchTokenWithRetry retries transient OAuth failures (rate limits, server
// errors) with linear backoff. Credential errors are not retried.
func (m *TokenManager) fetchTokenWithRetry(ctx context.Context) (string, time.Time, error) {
	var (
		token     string
		expiresAt time.Time
		err       error
	)
	for attempt := 0; ; attempt++ {
		token, expiresAt, err = m.fetchToken(ctx)
		if err == nil || !isRetryableStatus(err) || attempt >= m.cfg.MaxRetries {
			return token, expiresAt, err
		}
		wait := time.Duration(attempt+1) * m.retryWait
		m.log.Warn("token request failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"wait":    wait.String(),
		})
		select {
		case <-ctx.Done():
			return "", time.Time{}, ctx.Err()
		case <-time.After(wait):
		}
	}
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryableStatus(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

func (m *TokenManager) fetchToken(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("scope", m.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	req.Header.Set("Authorization", "Basic "+m.cfg.AuthKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", time.Time{}, &retryableError{err: statusErr}
		}
		return "", time.Time{}, statusErr
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response contained no access_token")
	}

	var expiresAt time.Time
	switch {
	case tr.ExpiresAt > 0:
		expiresAt = time.UnixMilli(tr.ExpiresAt)
	case tr.ExpiresIn > 0:
		expiresAt = m.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		// issuer gave no lifetime, assume a short one
		expiresAt = m.now().Add(5 * time.Minute)
	}

	return tr.AccessToken, expiresAt.Add(-expirySlack), nil
}
