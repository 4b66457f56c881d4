// Package verify provides the evidence aggregation engine and the
// verification lifecycle.
package verify

import (
	"context"
	"time"

	"github.com/factchecker/veridex/internal/cache"
	"github.com/factchecker/veridex/internal/database"
	"github.com/factchecker/veridex/internal/fingerprint"
	"github.com/factchecker/veridex/internal/models"
	"github.com/factchecker/veridex/internal/providers"
	"github.com/factchecker/veridex/internal/reconcile"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Engine orchestrates claim verification: fingerprint, cache lookup, evidence
// collection, reconciliation, persistence, cache write.
type Engine struct {
	collector *providers.Collector
	cache     *cache.VerificationCache
	store     database.Store
}

// NewEngine creates an engine over explicitly constructed dependencies.
func NewEngine(collector *providers.Collector, vcache *cache.VerificationCache, store database.Store) *Engine {
	if !collector.HasProviders() {
		log.Warn().Msg("No evidence providers configured - all claims will resolve unverifiable")
	}
	return &Engine{
		collector: collector,
		cache:     vcache,
		store:     store,
	}
}

// VerifyText verifies a textual claim and returns its verification.
func (e *Engine) VerifyText(ctx context.Context, text string, category models.Category, language string) (*models.Claim, *models.Verification, error) {
	claim := &models.Claim{
		ID:        uuid.New().String(),
		Text:      text,
		Category:  category,
		Language:  language,
		Status:    models.ClaimStatusPending,
		CreatedAt: time.Now(),
	}
	return e.verify(ctx, claim, text, fingerprint.Text(text))
}

// VerifyImage verifies an image claim on its raw bytes. The image fingerprint
// doubles as the claim descriptor passed to image-match providers.
func (e *Engine) VerifyImage(ctx context.Context, image []byte, category models.Category, language string) (*models.Claim, *models.Verification, error) {
	fp := fingerprint.Bytes(image)
	claim := &models.Claim{
		ID:        uuid.New().String(),
		ImageHash: fp,
		Category:  category,
		Language:  language,
		Status:    models.ClaimStatusPending,
		CreatedAt: time.Now(),
	}
	return e.verify(ctx, claim, fp, fp)
}

func (e *Engine) verify(ctx context.Context, claim *models.Claim, descriptor, fp string) (*models.Claim, *models.Verification, error) {
	if err := e.store.CreateClaim(ctx, claim); err != nil {
		return nil, nil, err
	}

	if cached := e.cache.Lookup(ctx, fp, claim.Language); cached != nil {
		log.Info().Str("claim_id", claim.ID).Str("verification_id", cached.ID).Msg("Returning cached verification")
		e.setClaimStatus(ctx, claim, cached.Verdict)
		return claim, cached, nil
	}

	units := e.collector.Collect(ctx, descriptor, claim.Category, claim.Language)
	log.Info().Str("claim_id", claim.ID).Int("evidence_units", len(units)).Msg("Evidence collected")

	res := reconcile.Reconcile(units)

	now := time.Now()
	v := &models.Verification{
		ID:              uuid.New().String(),
		ClaimID:         claim.ID,
		Method:          res.Method,
		Verdict:         res.Verdict,
		ConfidenceScore: res.ConfidenceScore,
		Explanation:     res.Explanation,
		Sources:         res.Sources,
		ReviewStatus:    models.ReviewApproved,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Conflicts are surfaced, not overwritten: a concurrent writer for the
	// same claim won the race and callers may re-fetch its result.
	if err := e.store.CreateVerification(ctx, v); err != nil {
		return nil, nil, err
	}

	e.setClaimStatus(ctx, claim, v.Verdict)
	e.cache.Store(ctx, fp, v, claim.Language)

	log.Info().
		Str("claim_id", claim.ID).
		Str("verdict", string(v.Verdict)).
		Float64("confidence", v.ConfidenceScore).
		Int("sources", len(v.Sources)).
		Msg("Verification complete")

	return claim, v, nil
}

func (e *Engine) setClaimStatus(ctx context.Context, claim *models.Claim, verdict models.Verdict) {
	status := models.ClaimStatusVerified
	if verdict == models.VerdictUnverifiable {
		status = models.ClaimStatusUnverifiable
	}
	claim.Status = status
	if err := e.store.UpdateClaimStatus(ctx, claim.ID, status); err != nil {
		log.Error().Err(err).Str("claim_id", claim.ID).Msg("Failed to update claim status")
	}
}
