// Package classifier turns free user text into a structured
// ClassificationResult via the GigaChat completion API. All failures are
// absorbed here: callers always get a usable result, at worst the
// low-confidence fallback.
package classifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"autolead-bot/internal/common/config"
	commonerrors "autolead-bot/internal/common/errors"
	"autolead-bot/internal/common/logger"
	"autolead-bot/internal/common/metrics"
	"autolead-bot/internal/models"
)

// TokenProvider supplies a valid access token for the completion API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type Classifier struct {
	cfg    config.GigaChatConfig
	tokens TokenProvider
	client *http.Client
	log    logger.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func New(cfg config.GigaChatConfig, tokens TokenProvider, log logger.Logger) *Classifier {
	transport := &http.Transport{}
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Classifier{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log: log,
	}
}

// Classify sends the user text to the completion API and parses the reply.
// It never returns an error: any failure is logged and degrades to
// {intent: other, confidence: low}.
func (c *Classifier) Classify(ctx context.Context, text string) models.ClassificationResult {
	start := time.Now()

	result, err := c.classify(ctx, text)
	outcome := "success"
	if err != nil {
		outcome = "fallback"
		c.log.WithError(err).Warn("classification failed, using fallback", map[string]interface{}{
			"text_length": len(text),
		})
		result = models.FallbackClassification()
	}

	metrics.ClassificationsTotal.WithLabelValues(string(result.Intent), outcome).Inc()
	metrics.ClassificationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return result
}

func (c *Classifier) classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return models.ClassificationResult{}, commonerrors.New(
			commonerrors.ErrCodeTokenRequestFailed, "Failed to obtain access token", err.Error(), true)
	}

	raw, err := c.complete(ctx, token, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.ClassificationResult{}, commonerrors.New(
				commonerrors.ErrCodeCompletionTimeout, "Completion request timed out", err.Error(), true)
		}
		return models.ClassificationResult{}, commonerrors.NewCompletionError(err.Error())
	}

	jsonText, err := ExtractJSON(raw)
	if err != nil {
		return models.ClassificationResult{}, commonerrors.New(
			commonerrors.ErrCodeResponseNotJSON, "Completion reply contained no JSON", truncate(raw, 200), false)
	}

	result, err := ParseClassification(jsonText)
	if err != nil {
		return models.ClassificationResult{}, commonerrors.New(
			commonerrors.ErrCodeResponseSchemaFailed, "Completion reply failed schema validation", err.Error(), false)
	}

	c.log.Debug("text classified", map[string]interface{}{
		"intent":     string(result.Intent),
		"confidence": string(result.Confidence),
	})
	return result, nil
}

func (c *Classifier) complete(ctx context.Context, token, text string) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.1,
		MaxTokens:   800,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
