package rating

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/types"
)

// ClientConfig configures the HTTP rating client.
type ClientConfig struct {
	URL            string
	APIKey         string
	RequestTimeout time.Duration
	MaxElapsed     time.Duration
}

// Client posts the vehicle record to the rating service and decodes the
// scores it returns.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  *logger.Logger
}

func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 25 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 45 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout},
		log:  log.Component("rating-client"),
	}
}

// Rate retries transport errors and 5xx responses with exponential backoff.
// 4xx responses and in-band error payloads fail immediately.
func (c *Client) Rate(ctx context.Context, rec types.VehicleRecord) (types.Ratings, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("RATING_API_URL not configured")
	}

	data, err := json.Marshal(map[string]any{"vehicle": rec})
	if err != nil {
		return nil, fmt.Errorf("encode rating request: %w", err)
	}

	log := c.log.With("vin", rec.Vehicle.VIN)
	var out types.Ratings
	var lastErr error

	op := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.URL, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("rating request failed")
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("read rating response: %w", err)
			log.WithError(err).Warn("rating response truncated")
			return lastErr
		}
		log.WithField("http_status", resp.StatusCode).Debug("rating raw:\n" + string(body))

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("rating server error: status %d", resp.StatusCode)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("rating request rejected: status %d", resp.StatusCode)
			return backoff.Permanent(lastErr)
		}

		parsed, err := decodeRatings(body)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		if err := CheckPayload(parsed); err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		out = parsed
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.cfg.MaxElapsed

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("rate %s: %w", rec.Vehicle.VIN, lastErr)
	}
	return out, nil
}

// decodeRatings accepts either a bare JSON object or an OpenAI-style
// completion whose first choice carries the object as text. Completion text
// that holds no object is kept verbatim under "rawText".
func decodeRatings(body []byte) (types.Ratings, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		if fallback := extractJSON(string(body)); fallback != "" {
			var r types.Ratings
			if err := json.Unmarshal([]byte(fallback), &r); err == nil {
				return r, nil
			}
		}
		return nil, fmt.Errorf("no JSON object in rating response")
	}

	content, ok := choiceContent(obj)
	if !ok {
		return types.Ratings(obj), nil
	}
	if inner := extractJSON(content); inner != "" {
		var r types.Ratings
		if err := json.Unmarshal([]byte(inner), &r); err == nil {
			return r, nil
		}
	}
	return types.Ratings{"rawText": strings.TrimSpace(content)}, nil
}

// choiceContent reads choices[0].message.content.
func choiceContent(obj map[string]any) (string, bool) {
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return "", false
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return "", false
	}
	content, ok := msg["content"].(string)
	return content, ok
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// Markdown fences are stripped first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, r := range []string{"```json", "```", "`"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
