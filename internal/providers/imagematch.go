// Package providers provides the reverse image match client.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/factchecker/veridex/internal/config"
	"github.com/factchecker/veridex/internal/models"
)

// ImageMatchClient queries a reverse-image lookup service by image
// fingerprint. Matches against the officially-trusted source set are emitted
// as true verdicts; other matches are emitted as unverifiable so the
// reconciler never upgrades them.
type ImageMatchClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	trusted    map[string]bool
}

// NewImageMatchClient creates a new image match client.
func NewImageMatchClient(cfg config.ImageMatchConfig) *ImageMatchClient {
	trusted := make(map[string]bool, len(cfg.TrustedSources))
	for _, name := range cfg.TrustedSources {
		trusted[name] = true
	}
	return &ImageMatchClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		trusted:    trusted,
	}
}

// Name returns the source name.
func (c *ImageMatchClient) Name() string {
	return "ImageMatch"
}

// Kind returns the provider class.
func (c *ImageMatchClient) Kind() models.ProviderKind {
	return models.ProviderImageMatch
}

// Available returns whether the service is configured.
func (c *ImageMatchClient) Available() bool {
	return c.baseURL != ""
}

type imageMatchResponse struct {
	Matches []struct {
		URL    string `json:"url"`
		Title  string `json:"title"`
		Source string `json:"source"`
	} `json:"matches"`
}

// Query looks up prior matches for an image fingerprint. The claim descriptor
// for image claims is the fingerprint itself.
func (c *ImageMatchClient) Query(ctx context.Context, claim string, category models.Category, language string) ([]models.EvidenceUnit, error) {
	params := url.Values{}
	params.Set("hash", claim)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image match failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image match returned status %d", resp.StatusCode)
	}

	var data imageMatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode image match response: %w", err)
	}

	var units []models.EvidenceUnit
	for _, m := range data.Matches {
		verdict := models.VerdictUnverifiable
		explanation := "Image found but not from official sources"
		if c.trusted[m.Source] {
			verdict = models.VerdictTrue
			explanation = "Image matches official records"
		}
		units = append(units, models.EvidenceUnit{
			Verdict:     verdict,
			Explanation: explanation,
			SourceURL:   m.URL,
			SourceName:  m.Source,
			Provider:    models.ProviderImageMatch,
		})
	}
	return units, nil
}
