// Package providers provides the official-source registry client.
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

// OfficialSourceClient queries one configured official source (e.g. a public
// health agency's claim-match endpoint). Each configured source becomes its
// own provider so sources are queried concurrently and fail independently.
type OfficialSourceClient struct {
	httpClient *http.Client
	name       string
	siteURL    string
	category   models.Category
	language   string
	endpoint   string
	authMethod string
	apiKey     string
}

// NewOfficialSourceClients builds one client per configured official source.
func NewOfficialSourceClients(sources []config.OfficialSourceConfig) []*OfficialSourceClient {
	clients := make([]*OfficialSourceClient, 0, len(sources))
	for _, src := range sources {
		clients = append(clients, &OfficialSourceClient{
			httpClient: &http.Client{Timeout: 10 * time.Second},
			name:       src.Name,
			siteURL:    src.URL,
			category:   models.Category(src.Category),
			language:   src.Language,
			endpoint:   src.APIEndpoint,
			authMethod: src.AuthMethod,
			apiKey:     src.APIKey,
		})
	}
	return clients
}

// Name returns the source name.
func (c *OfficialSourceClient) Name() string {
	return c.name
}

// Kind returns the provider class.
func (c *OfficialSourceClient) Kind() models.ProviderKind {
	return models.ProviderOfficial
}

// Available returns whether the source has a queryable endpoint.
func (c *OfficialSourceClient) Available() bool {
	return c.endpoint != ""
}

type officialMatchResponse struct {
	Matches []struct {
		Verdict     string `json:"verdict"`
		Explanation string `json:"explanation"`
		URL         string `json:"url"`
	} `json:"matches"`
}

// Query asks the official source for claim matches. Sources registered for a
// different category or language contribute nothing.
func (c *OfficialSourceClient) Query(ctx context.Context, claim string, category models.Category, language string) ([]models.EvidenceUnit, error) {
	if c.category != category || c.language != language {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", claim)

	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.authMethod == "api_key" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("official source %s failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("official source %s returned status %d", c.name, resp.StatusCode)
	}

	var data officialMatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode official source response: %w", err)
	}

	var units []models.EvidenceUnit
	for _, m := range data.Matches {
		verdict := models.Verdict(m.Verdict)
		if !models.ValidVerdict(verdict) {
			continue
		}
		explanation := m.Explanation
		if explanation == "" {
			explanation = "Verified by official sources"
		}
		sourceURL := m.URL
		if sourceURL == "" {
			sourceURL = c.siteURL
		}
		units = append(units, models.EvidenceUnit{
			Verdict:     verdict,
			Explanation: explanation,
			SourceURL:   sourceURL,
			SourceName:  c.name,
			Provider:    models.ProviderOfficial,
		})
	}
	return units, nil
}
