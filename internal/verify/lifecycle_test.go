package verify

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factchecker/veridex/internal/errs"
	"github.com/factchecker/veridex/internal/models"
)

func seedVerification(t *testing.T, store *fakeStore, verifiedBy string) *models.Verification {
	t.Helper()
	ctx := context.Background()

	claim := &models.Claim{
		ID:       uuid.New().String(),
		Text:     "salt water cures malaria",
		Category: models.CategoryHealth,
		Language: "en",
		Status:   models.ClaimStatusPending,
	}
	require.NoError(t, store.CreateClaim(ctx, claim))

	v := &models.Verification{
		ID:              uuid.New().String(),
		ClaimID:         claim.ID,
		Method:          models.MethodAutomated,
		Verdict:         models.VerdictFalse,
		ConfidenceScore: 0.5,
		Explanation:     "Debunked by WHO",
		Sources:         []models.Source{{Name: "WHO", URL: "https://who.int/x", Type: "official"}},
		ReviewStatus:    models.ReviewApproved,
		VerifiedBy:      verifiedBy,
	}
	require.NoError(t, store.CreateVerification(ctx, v))
	return v
}

func TestDisputeNonexistent(t *testing.T) {
	lc := NewLifecycle(newFakeStore())

	_, err := lc.Dispute(context.Background(), "no-such-id", "this verdict contradicts the primary source")
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestDisputeReasonTooShort(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.Dispute(context.Background(), v.ID, "bad call!")
	assert.True(t, errs.Is(err, errs.ValidationFailed))

	// padding with whitespace does not help
	_, err = lc.Dispute(context.Background(), v.ID, "  short    ")
	assert.True(t, errs.Is(err, errs.ValidationFailed))
}

func TestDisputeSetsPendingReview(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	reason := strings.Repeat("x", MinDisputeReasonLen)
	got, err := lc.Dispute(context.Background(), v.ID, reason)
	require.NoError(t, err)
	assert.True(t, got.IsDisputed)
	assert.Equal(t, reason, got.DisputeReason)
	assert.Equal(t, models.ReviewPending, got.ReviewStatus)

	stored, err := store.GetVerification(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDisputed)
}

func TestDisputeAlreadyDisputed(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.Dispute(context.Background(), v.ID, "the cited source has been retracted")
	require.NoError(t, err)

	_, err = lc.Dispute(context.Background(), v.ID, "another attempt while review is pending")
	assert.True(t, errs.Is(err, errs.InvalidState))
}

func TestReviewRequiresAdmin(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.Dispute(context.Background(), v.ID, "the cited source has been retracted")
	require.NoError(t, err)

	for _, outcome := range []models.ReviewStatus{models.ReviewApproved, models.ReviewRejected} {
		_, err = lc.ReviewDispute(context.Background(), v.ID, outcome, "user-1", false)
		assert.True(t, errs.Is(err, errs.Unauthorized), "outcome %s", outcome)
	}

	// denied reviews leave the dispute untouched
	stored, err := store.GetVerification(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDisputed)
	assert.Equal(t, models.ReviewPending, stored.ReviewStatus)
}

func TestReviewApprovedClearsDispute(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.Dispute(context.Background(), v.ID, "the cited source has been retracted")
	require.NoError(t, err)

	got, err := lc.ReviewDispute(context.Background(), v.ID, models.ReviewApproved, "admin-1", true)
	require.NoError(t, err)
	assert.False(t, got.IsDisputed)
	assert.Empty(t, got.DisputeReason)
	assert.Equal(t, models.ReviewApproved, got.ReviewStatus)
	assert.Equal(t, "admin-1", got.ReviewedBy)
}

func TestReviewRejectedKeepsFlagged(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.Dispute(context.Background(), v.ID, "the cited source has been retracted")
	require.NoError(t, err)

	got, err := lc.ReviewDispute(context.Background(), v.ID, models.ReviewRejected, "admin-1", true)
	require.NoError(t, err)
	assert.True(t, got.IsDisputed)
	assert.Equal(t, models.ReviewRejected, got.ReviewStatus)

	// a rejected dispute may be raised again
	got, err = lc.Dispute(context.Background(), v.ID, "new evidence published after the review")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, got.ReviewStatus)
}

func TestReviewNotDisputed(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.ReviewDispute(context.Background(), v.ID, models.ReviewApproved, "admin-1", true)
	assert.True(t, errs.Is(err, errs.InvalidState))
}

func TestReviewInvalidOutcome(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.Dispute(context.Background(), v.ID, "the cited source has been retracted")
	require.NoError(t, err)

	_, err = lc.ReviewDispute(context.Background(), v.ID, models.ReviewPending, "admin-1", true)
	assert.True(t, errs.Is(err, errs.ValidationFailed))
}

func TestCreateManualVerification(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	claim := &models.Claim{ID: uuid.New().String(), Text: "claim", Category: models.CategoryPolitics, Language: "en"}
	require.NoError(t, store.CreateClaim(ctx, claim))
	lc := NewLifecycle(store)

	v := &models.Verification{
		ClaimID:         claim.ID,
		Method:          models.MethodHuman,
		Verdict:         models.VerdictMisleading,
		ConfidenceScore: 0.8,
		Explanation:     "Partially accurate but missing context",
	}
	got, err := lc.Create(ctx, v, "fact-checker-7")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "fact-checker-7", got.VerifiedBy)
	assert.Equal(t, models.ReviewApproved, got.ReviewStatus)
	assert.False(t, got.IsDisputed)
}

func TestCreateValidation(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	claim := &models.Claim{ID: uuid.New().String(), Text: "claim", Category: models.CategoryHealth, Language: "en"}
	require.NoError(t, store.CreateClaim(ctx, claim))
	lc := NewLifecycle(store)

	tests := []struct {
		name     string
		v        *models.Verification
		verifier string
		kind     errs.Kind
	}{
		{
			name: "missing claim",
			v:    &models.Verification{ClaimID: "nope", Verdict: models.VerdictTrue, ConfidenceScore: 0.5, Explanation: "x"},
			kind: errs.NotFound,
		},
		{
			name: "invalid verdict",
			v:    &models.Verification{ClaimID: claim.ID, Verdict: "maybe", ConfidenceScore: 0.5, Explanation: "x"},
			kind: errs.ValidationFailed,
		},
		{
			name: "empty explanation",
			v:    &models.Verification{ClaimID: claim.ID, Verdict: models.VerdictTrue, ConfidenceScore: 0.5, Explanation: "   "},
			kind: errs.ValidationFailed,
		},
		{
			name: "confidence out of range",
			v:    &models.Verification{ClaimID: claim.ID, Verdict: models.VerdictTrue, ConfidenceScore: 1.5, Explanation: "x"},
			kind: errs.ValidationFailed,
		},
		{
			name: "human method without verifier",
			v:    &models.Verification{ClaimID: claim.ID, Method: models.MethodHuman, Verdict: models.VerdictTrue, ConfidenceScore: 0.5, Explanation: "x"},
			kind: errs.ValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lc.Create(ctx, tt.v, tt.verifier)
			assert.True(t, errs.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestCreateSecondVerificationConflicts(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	second := &models.Verification{
		ClaimID:         v.ClaimID,
		Verdict:         models.VerdictTrue,
		ConfidenceScore: 0.6,
		Explanation:     "contrary finding",
	}
	_, err := lc.Create(context.Background(), second, "")
	assert.True(t, errs.Is(err, errs.Conflict))
}

func TestUpdateAuthorization(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "fact-checker-7")
	lc := NewLifecycle(store)
	ctx := context.Background()
	patch := map[string]any{"explanation": "Revised after new reporting"}

	_, err := lc.Update(ctx, v.ID, patch, "someone-else", false)
	assert.True(t, errs.Is(err, errs.Unauthorized))

	got, err := lc.Update(ctx, v.ID, patch, "fact-checker-7", false)
	require.NoError(t, err)
	assert.Equal(t, "Revised after new reporting", got.Explanation)

	got, err = lc.Update(ctx, v.ID, map[string]any{"confidence_score": 0.9}, "admin", true)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.ConfidenceScore)
}

func TestUpdateImmutableFields(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)
	ctx := context.Background()

	for _, field := range []string{"verification_method", "claim_id", "verified_by"} {
		_, err := lc.Update(ctx, v.ID, map[string]any{field: "other"}, "admin", true)
		assert.True(t, errs.Is(err, errs.ValidationFailed), "field %s", field)
	}

	// a rejected patch changes nothing
	stored, err := store.GetVerification(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ClaimID, stored.ClaimID)
	assert.Equal(t, models.MethodAutomated, stored.Method)
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	_, err := lc.Update(context.Background(), v.ID, map[string]any{"review_status": "approved"}, "admin", true)
	assert.True(t, errs.Is(err, errs.ValidationFailed))
}

func TestUpdateSources(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)

	// sources arrive as decoded JSON, not typed structs
	patch := map[string]any{
		"sources": []any{
			map[string]any{"name": "NCDC", "url": "https://ncdc.gov.ng/a", "type": "official"},
		},
	}
	got, err := lc.Update(context.Background(), v.ID, patch, "admin", true)
	require.NoError(t, err)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "NCDC", got.Sources[0].Name)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)
	ctx := context.Background()

	err := lc.Delete(ctx, v.ID, false)
	assert.True(t, errs.Is(err, errs.Unauthorized))

	require.NoError(t, lc.Delete(ctx, v.ID, true))
	_, err = lc.Get(ctx, v.ID)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestDeleteRemovesCacheEntries(t *testing.T) {
	store := newFakeStore()
	v := seedVerification(t, store, "")
	lc := NewLifecycle(store)
	ctx := context.Background()

	require.NoError(t, store.UpsertCacheEntry(ctx, "fp-1", v.ID, "en"))
	require.NoError(t, lc.Delete(ctx, v.ID, true))

	entry, err := store.GetCacheEntry(ctx, "fp-1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}
