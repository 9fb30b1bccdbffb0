// Package translate looks up translations through the Google Translate v2
// REST API with a pluggable cache in front of it.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ci-events/notify-server/internal/domain/common/errorz"
)

const (
	endpoint   = "https://translation.googleapis.com/language/translate/v2"
	sourceLang = "he"
)

type cache interface {
	Get(ctx context.Context, text, targetLang string) (string, error)
	Set(ctx context.Context, text, targetLang, translated string) error
}

type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
	cache    cache
}

func NewClient(apiKey string, cache cache) (*Client, error) {
	if apiKey == "" {
		return nil, errorz.MissingAPIKey
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		cache:    cache,
	}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Source string `json:"source"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate returns the text translated to targetLang, consulting the cache
// first. Cache read failures fall through to the API; cache write failures
// are ignored since the translation itself succeeded.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if cached, err := c.cache.Get(ctx, text, targetLang); err == nil && cached != "" {
		return cached, nil
	}

	body, err := json.Marshal(translateRequest{
		Q:      text,
		Target: targetLang,
		Source: sourceLang,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translate request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("translate request failed: status %d: %s", resp.StatusCode, errBody)
	}

	var parsed translateResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}
	if len(parsed.Data.Translations) == 0 {
		return "", fmt.Errorf("translate response contains no translations")
	}

	translated := parsed.Data.Translations[0].TranslatedText
	_ = c.cache.Set(ctx, text, targetLang, translated)

	return translated, nil
}
