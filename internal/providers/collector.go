package providers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/factchecker/veridex/internal/models"
	"github.com/rs/zerolog/log"
)

// Collector fans a claim out to all configured providers concurrently. Each
// provider runs under its own deadline and fails independently; a provider
// that errors, times out or finds nothing contributes zero units. Output
// ordering is provider-priority then intra-provider order, never completion
// order, so concurrent scheduling cannot change the reconciled result.
type Collector struct {
	providers []Provider
	timeout   time.Duration
}

// NewCollector creates a collector over the available providers. Providers
// are ordered official-source, then registry, then image-match; ties keep
// configuration order.
func NewCollector(timeout time.Duration, providers ...Provider) *Collector {
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Available() {
			available = append(available, p)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Kind().Priority() < available[j].Kind().Priority()
	})
	return &Collector{providers: available, timeout: timeout}
}

// HasProviders returns whether any providers are configured.
func (c *Collector) HasProviders() bool {
	return len(c.providers) > 0
}

// Collect queries every provider and returns the concatenated evidence units
// in priority order. An empty result is a valid outcome, not an error.
//
// Provider calls are detached from the caller's cancellation: once dispatched
// they run to their own deadline, since provider side effects (quota) are not
// undoable.
func (c *Collector) Collect(ctx context.Context, claim string, category models.Category, language string) []models.EvidenceUnit {
	if len(c.providers) == 0 {
		return nil
	}

	results := make([][]models.EvidenceUnit, len(c.providers))
	var wg sync.WaitGroup

	for i, p := range c.providers {
		wg.Add(1)
		go func(idx int, prov Provider) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
			defer cancel()

			units, err := prov.Query(pctx, claim, category, language)
			if err != nil {
				log.Warn().Err(err).Str("provider", prov.Name()).Msg("Provider query failed, continuing without it")
				return
			}
			results[idx] = units
		}(i, p)
	}

	wg.Wait()

	var all []models.EvidenceUnit
	for _, units := range results {
		all = append(all, units...)
	}
	return all
}
