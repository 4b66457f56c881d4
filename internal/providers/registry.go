// Package providers provides the public fact-check registry client.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/factchecker/veridex/internal/config"
	"github.com/factchecker/veridex/internal/models"
)

// RegistryClient queries a public fact-check registry exposing the
// claims:search API shape (Fact Check Tools).
type RegistryClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewRegistryClient creates a new registry client.
func NewRegistryClient(cfg config.RegistryConfig) *RegistryClient {
	return &RegistryClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// Name returns the source name.
func (c *RegistryClient) Name() string {
	return "FactCheckRegistry"
}

// Kind returns the provider class.
func (c *RegistryClient) Kind() models.ProviderKind {
	return models.ProviderRegistry
}

// Available returns whether the client is configured with an API key.
func (c *RegistryClient) Available() bool {
	return c.baseURL != "" && c.apiKey != ""
}

type registrySearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// Query searches the registry for published claim reviews.
func (c *RegistryClient) Query(ctx context.Context, claim string, category models.Category, language string) ([]models.EvidenceUnit, error) {
	params := url.Values{}
	params.Set("query", claim)
	params.Set("languageCode", mapLanguageCode(language))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var data registrySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	var units []models.EvidenceUnit
	for _, cl := range data.Claims {
		if len(cl.ClaimReview) == 0 {
			continue
		}
		review := cl.ClaimReview[0]
		explanation := review.Title
		if explanation == "" {
			explanation = "Verified by fact-checkers"
		}
		sourceName := review.Publisher.Name
		if sourceName == "" {
			sourceName = review.Publisher.Site
		}
		units = append(units, models.EvidenceUnit{
			Verdict:     normalizeRating(review.TextualRating),
			Explanation: explanation,
			SourceURL:   review.URL,
			SourceName:  sourceName,
			Provider:    models.ProviderRegistry,
		})
	}
	return units, nil
}

// normalizeRating maps a publisher's free-form textual rating onto the
// four-way verdict enum.
func normalizeRating(rating string) models.Verdict {
	r := strings.ToLower(strings.TrimSpace(rating))
	switch {
	case strings.Contains(r, "mislead"), strings.Contains(r, "partly"), strings.Contains(r, "mixture"):
		return models.VerdictMisleading
	case strings.Contains(r, "false"), strings.Contains(r, "untrue"), strings.Contains(r, "incorrect"), strings.Contains(r, "pants on fire"):
		return models.VerdictFalse
	case strings.Contains(r, "true"), strings.Contains(r, "correct"), strings.Contains(r, "accurate"):
		return models.VerdictTrue
	default:
		return models.VerdictUnverifiable
	}
}

// mapLanguageCode maps service language codes to registry locale codes.
func mapLanguageCode(lang string) string {
	mappings := map[string]string{
		"en": "en-US",
		"ha": "ha-NG",
		"yo": "yo-NG",
		"ig": "ig-NG",
	}
	if code, ok := mappings[lang]; ok {
		return code
	}
	return "en-US"
}
