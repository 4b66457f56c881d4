// Package reconcile merges evidence units from multiple providers into a
// single verdict with an explanation, source list and confidence score.
//
// The algorithm is deterministic: official-source units strictly dominate
// registry units, which dominate image matches; within the considered subset
// the majority verdict wins, and a tie resolves to the verdict whose first
// occurrence comes earliest in collection order.
package reconcile

import (
	"github.com/factchecker/veridex/internal/models"
)

// Confidence baselines per evidence class and the per-corroborating-unit
// increment. Official corroboration always scores at least as high as
// registry-only corroboration for the same unit count.
const (
	officialBaseline     = 0.50
	registryBaseline     = 0.40
	trustedImageBaseline = 0.90
	untrustedImageScore  = 0.40
	corroborationStep    = 0.10
)

// UnverifiableExplanation is the terminal explanation when no provider could
// contribute evidence.
const UnverifiableExplanation = "Could not verify with available sources"

// Result is the outcome of reconciling an evidence set.
type Result struct {
	Verdict         models.Verdict
	Explanation     string
	Sources         []models.Source
	ConfidenceScore float64
	Method          models.VerificationMethod
}

// Reconcile merges the evidence units, which must be in collection order
// (provider priority, then intra-provider order).
func Reconcile(units []models.EvidenceUnit) Result {
	if official := filterKind(units, models.ProviderOfficial); len(official) > 0 {
		res := majority(official, officialBaseline)
		res.Method = models.MethodOfficial
		return res
	}

	if registry := filterKind(units, models.ProviderRegistry); len(registry) > 0 {
		res := majority(registry, registryBaseline)
		res.Method = models.MethodAutomated
		return res
	}

	if images := filterKind(units, models.ProviderImageMatch); len(images) > 0 {
		return reconcileImages(images)
	}

	return Result{
		Verdict:         models.VerdictUnverifiable,
		Explanation:     UnverifiableExplanation,
		Sources:         []models.Source{},
		ConfidenceScore: 0,
		Method:          models.MethodAutomated,
	}
}

// majority picks the most frequent verdict within the subset. Ties resolve to
// the verdict seen first in collection order, never a random pick.
func majority(units []models.EvidenceUnit, baseline float64) Result {
	counts := make(map[models.Verdict]int)
	var order []models.Verdict
	for _, u := range units {
		if counts[u.Verdict] == 0 {
			order = append(order, u.Verdict)
		}
		counts[u.Verdict]++
	}

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	var winner models.Verdict
	for _, v := range order {
		if counts[v] == max {
			winner = v
			break
		}
	}

	var agreeing []models.EvidenceUnit
	for _, u := range units {
		if u.Verdict == winner {
			agreeing = append(agreeing, u)
		}
	}

	return Result{
		Verdict:         winner,
		Explanation:     agreeing[0].Explanation,
		Sources:         dedupSources(agreeing),
		ConfidenceScore: confidence(baseline, len(agreeing)),
	}
}

// reconcileImages applies the trusted-source rule: any match from the
// officially-trusted set yields a true verdict at high confidence; matches
// from elsewhere alone cannot verify a claim.
func reconcileImages(units []models.EvidenceUnit) Result {
	var trusted []models.EvidenceUnit
	for _, u := range units {
		if u.Verdict == models.VerdictTrue {
			trusted = append(trusted, u)
		}
	}

	if len(trusted) > 0 {
		return Result{
			Verdict:         models.VerdictTrue,
			Explanation:     trusted[0].Explanation,
			Sources:         dedupSources(trusted),
			ConfidenceScore: confidence(trustedImageBaseline, len(trusted)),
			Method:          models.MethodAutomated,
		}
	}

	return Result{
		Verdict:         models.VerdictUnverifiable,
		Explanation:     units[0].Explanation,
		Sources:         dedupSources(units),
		ConfidenceScore: untrustedImageScore,
		Method:          models.MethodAutomated,
	}
}

// confidence grows monotonically with corroborating-unit count, capped at 1.0.
func confidence(baseline float64, corroborating int) float64 {
	score := baseline + corroborationStep*float64(corroborating-1)
	if score > 1.0 {
		return 1.0
	}
	return score
}

func filterKind(units []models.EvidenceUnit, kind models.ProviderKind) []models.EvidenceUnit {
	var out []models.EvidenceUnit
	for _, u := range units {
		if u.Provider == kind {
			out = append(out, u)
		}
	}
	return out
}

// dedupSources extracts the source of every unit, dropping duplicate URLs
// while preserving order.
func dedupSources(units []models.EvidenceUnit) []models.Source {
	seen := make(map[string]bool, len(units))
	sources := make([]models.Source, 0, len(units))
	for _, u := range units {
		if u.SourceURL == "" || seen[u.SourceURL] {
			continue
		}
		seen[u.SourceURL] = true
		sources = append(sources, models.Source{
			Name: u.SourceName,
			URL:  u.SourceURL,
			Type: string(u.Provider),
		})
	}
	return sources
}
