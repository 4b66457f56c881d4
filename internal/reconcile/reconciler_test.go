package reconcile

import (
	"testing"

	"github.com/factchecker/veridex/internal/models"
	"github.com/stretchr/testify/assert"
)

func official(verdict models.Verdict, explanation, url, name string) models.EvidenceUnit {
	return models.EvidenceUnit{
		Verdict: verdict, Explanation: explanation, SourceURL: url, SourceName: name,
		Provider: models.ProviderOfficial,
	}
}

func registry(verdict models.Verdict, explanation, url, name string) models.EvidenceUnit {
	return models.EvidenceUnit{
		Verdict: verdict, Explanation: explanation, SourceURL: url, SourceName: name,
		Provider: models.ProviderRegistry,
	}
}

func imageMatch(verdict models.Verdict, explanation, url, name string) models.EvidenceUnit {
	return models.EvidenceUnit{
		Verdict: verdict, Explanation: explanation, SourceURL: url, SourceName: name,
		Provider: models.ProviderImageMatch,
	}
}

func TestReconcileEmpty(t *testing.T) {
	res := Reconcile(nil)

	assert.Equal(t, models.VerdictUnverifiable, res.Verdict)
	assert.Equal(t, UnverifiableExplanation, res.Explanation)
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0.0, res.ConfidenceScore)
	assert.Equal(t, models.MethodAutomated, res.Method)
}

func TestReconcileOfficialDominatesRegistry(t *testing.T) {
	// One official source and one registry source agree; only the official
	// unit is considered, so its URL is the only source and the confidence
	// stays at the single-unit baseline.
	units := []models.EvidenceUnit{
		official(models.VerdictTrue, "Verified by NCDC", "https://ncdc.gov.ng/claims/1", "NCDC"),
		registry(models.VerdictTrue, "Rated true", "https://factcheck.example/2", "Checker"),
	}

	res := Reconcile(units)

	assert.Equal(t, models.VerdictTrue, res.Verdict)
	assert.Equal(t, "Verified by NCDC", res.Explanation)
	assert.Equal(t, []models.Source{{Name: "NCDC", URL: "https://ncdc.gov.ng/claims/1", Type: "official-source"}}, res.Sources)
	assert.Equal(t, 0.50, res.ConfidenceScore)
	assert.Equal(t, models.MethodOfficial, res.Method)
}

func TestReconcileMajorityWins(t *testing.T) {
	units := []models.EvidenceUnit{
		official(models.VerdictFalse, "Debunked", "https://a.example", "A"),
		official(models.VerdictTrue, "Confirmed", "https://b.example", "B"),
		official(models.VerdictFalse, "Also debunked", "https://c.example", "C"),
	}

	res := Reconcile(units)

	assert.Equal(t, models.VerdictFalse, res.Verdict)
	assert.Equal(t, "Debunked", res.Explanation)
	assert.Len(t, res.Sources, 2)
	// Two corroborating units: baseline + one increment.
	assert.InDelta(t, 0.60, res.ConfidenceScore, 1e-9)
}

func TestReconcileMajorityOrderIndependent(t *testing.T) {
	// A clear majority must win regardless of unit order.
	a := official(models.VerdictFalse, "x", "https://a.example", "A")
	b := official(models.VerdictFalse, "y", "https://b.example", "B")
	c := official(models.VerdictTrue, "z", "https://c.example", "C")

	for _, perm := range [][]models.EvidenceUnit{
		{a, b, c}, {a, c, b}, {c, a, b}, {c, b, a}, {b, c, a}, {b, a, c},
	} {
		res := Reconcile(perm)
		assert.Equal(t, models.VerdictFalse, res.Verdict)
	}
}

func TestReconcileTieBreakByCollectionOrder(t *testing.T) {
	units := []models.EvidenceUnit{
		official(models.VerdictMisleading, "first", "https://a.example", "A"),
		official(models.VerdictTrue, "second", "https://b.example", "B"),
	}

	// Equal counts: the verdict seen first in collection order wins.
	res := Reconcile(units)
	assert.Equal(t, models.VerdictMisleading, res.Verdict)

	reversed := Reconcile([]models.EvidenceUnit{units[1], units[0]})
	assert.Equal(t, models.VerdictTrue, reversed.Verdict)
}

func TestReconcileRegistryOnlyLowerBaseline(t *testing.T) {
	res := Reconcile([]models.EvidenceUnit{
		registry(models.VerdictMisleading, "Missing context", "https://factcheck.example/9", "Checker"),
	})

	assert.Equal(t, models.VerdictMisleading, res.Verdict)
	assert.Equal(t, models.MethodAutomated, res.Method)
	assert.InDelta(t, 0.40, res.ConfidenceScore, 1e-9)

	// Official corroboration never scores below registry-only corroboration
	// for the same unit count.
	officialRes := Reconcile([]models.EvidenceUnit{
		official(models.VerdictMisleading, "Missing context", "https://ncdc.gov.ng/c", "NCDC"),
	})
	assert.GreaterOrEqual(t, officialRes.ConfidenceScore, res.ConfidenceScore)
}

func TestReconcileConfidenceCapped(t *testing.T) {
	var units []models.EvidenceUnit
	for i := 0; i < 10; i++ {
		units = append(units, official(models.VerdictTrue, "ok", "https://src.example/"+string(rune('a'+i)), "S"))
	}

	res := Reconcile(units)
	assert.Equal(t, 1.0, res.ConfidenceScore)
}

func TestReconcileSourcesDeduplicated(t *testing.T) {
	units := []models.EvidenceUnit{
		official(models.VerdictTrue, "first", "https://dup.example", "A"),
		official(models.VerdictTrue, "second", "https://dup.example", "A"),
		official(models.VerdictTrue, "third", "https://other.example", "B"),
	}

	res := Reconcile(units)

	assert.Equal(t, []models.Source{
		{Name: "A", URL: "https://dup.example", Type: "official-source"},
		{Name: "B", URL: "https://other.example", Type: "official-source"},
	}, res.Sources)
	// Corroboration counts units, not deduplicated sources.
	assert.InDelta(t, 0.70, res.ConfidenceScore, 1e-9)
}

func TestReconcileDisagreeingUnitsExcludedFromSources(t *testing.T) {
	units := []models.EvidenceUnit{
		registry(models.VerdictFalse, "no", "https://a.example", "A"),
		registry(models.VerdictFalse, "nope", "https://b.example", "B"),
		registry(models.VerdictTrue, "yes", "https://c.example", "C"),
	}

	res := Reconcile(units)

	assert.Equal(t, models.VerdictFalse, res.Verdict)
	for _, s := range res.Sources {
		assert.NotEqual(t, "https://c.example", s.URL)
	}
}

func TestReconcileTrustedImageMatch(t *testing.T) {
	units := []models.EvidenceUnit{
		imageMatch(models.VerdictUnverifiable, "Image found but not from official sources", "https://blog.example/img", "SomeBlog"),
		imageMatch(models.VerdictTrue, "Image matches official records", "https://ncdc.gov.ng/img", "NCDC"),
	}

	res := Reconcile(units)

	assert.Equal(t, models.VerdictTrue, res.Verdict)
	assert.Equal(t, "Image matches official records", res.Explanation)
	assert.GreaterOrEqual(t, res.ConfidenceScore, 0.9)
	assert.Equal(t, []models.Source{{Name: "NCDC", URL: "https://ncdc.gov.ng/img", Type: "image-match"}}, res.Sources)
}

func TestReconcileUntrustedImageMatchStaysUnverifiable(t *testing.T) {
	units := []models.EvidenceUnit{
		imageMatch(models.VerdictUnverifiable, "Image found but not from official sources", "https://blog.example/img", "SomeBlog"),
	}

	res := Reconcile(units)

	assert.Equal(t, models.VerdictUnverifiable, res.Verdict)
	assert.Equal(t, "Image found but not from official sources", res.Explanation)
	assert.InDelta(t, 0.40, res.ConfidenceScore, 1e-9)
	assert.Len(t, res.Sources, 1)
}

func TestReconcileRegistryDominatesImageMatch(t *testing.T) {
	units := []models.EvidenceUnit{
		registry(models.VerdictFalse, "Rated false", "https://factcheck.example/3", "Checker"),
		imageMatch(models.VerdictTrue, "Image matches official records", "https://ncdc.gov.ng/img", "NCDC"),
	}

	res := Reconcile(units)

	assert.Equal(t, models.VerdictFalse, res.Verdict)
	assert.Equal(t, "Rated false", res.Explanation)
}
