// Package translate provides a LibreTranslate client for rendering
// explanations in non-default languages.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Translator renders text in a target language. Callers treat failures as
// non-fatal and fall back to the untranslated text.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
}

// Client calls a LibreTranslate-compatible endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a translation client.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate renders text in the target language.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if sourceLang == "" {
		sourceLang = "en"
	}
	if targetLang == sourceLang {
		return text, nil
	}

	body, err := json.Marshal(translateRequest{Q: text, Source: sourceLang, Target: targetLang})
	if err != nil {
		return "", fmt.Errorf("failed to encode translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation service returned status %d", resp.StatusCode)
	}

	var data translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}
	return data.TranslatedText, nil
}
