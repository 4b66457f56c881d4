package verify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/factchecker/veridex/internal/database"
	"github.com/factchecker/veridex/internal/errs"
	"github.com/factchecker/veridex/internal/models"
	"github.com/google/uuid"
)

// MinDisputeReasonLen is the minimum length of a dispute reason.
const MinDisputeReasonLen = 10

// Lifecycle governs a verification's dispute and review workflow after
// creation. Verifications start approved; only a dispute moves them to
// pending review, and only an admin resolves the review.
type Lifecycle struct {
	store database.Store
}

// NewLifecycle creates a lifecycle service.
func NewLifecycle(store database.Store) *Lifecycle {
	return &Lifecycle{store: store}
}

// Get returns a verification by id.
func (l *Lifecycle) Get(ctx context.Context, id string) (*models.Verification, error) {
	v, err := l.store.GetVerification(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errs.NotFoundf("verification not found with id %s", id)
	}
	return v, nil
}

// GetByClaim returns the verification belonging to a claim.
func (l *Lifecycle) GetByClaim(ctx context.Context, claimID string) (*models.Verification, error) {
	claim, err := l.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, errs.NotFoundf("claim not found with id %s", claimID)
	}
	return l.store.GetVerificationByClaim(ctx, claimID)
}

// Create records a manually produced verification (human, partner or
// official). The claim must exist and must not already have one.
func (l *Lifecycle) Create(ctx context.Context, v *models.Verification, verifierID string) (*models.Verification, error) {
	claim, err := l.store.GetClaim(ctx, v.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, errs.NotFoundf("claim not found with id %s", v.ClaimID)
	}

	if !models.ValidVerdict(v.Verdict) {
		return nil, errs.Validationf("invalid verdict: %s", v.Verdict)
	}
	if strings.TrimSpace(v.Explanation) == "" {
		return nil, errs.Validationf("explanation is required")
	}
	if v.ConfidenceScore < 0 || v.ConfidenceScore > 1 {
		return nil, errs.Validationf("confidence score must be between 0 and 1")
	}
	if v.Method == "" {
		v.Method = models.MethodAutomated
	}
	if v.Method == models.MethodHuman {
		if verifierID == "" {
			return nil, errs.Validationf("human verifications require a verifier")
		}
		v.VerifiedBy = verifierID
	}

	now := time.Now()
	v.ID = uuid.New().String()
	v.ReviewStatus = models.ReviewApproved
	v.IsDisputed = false
	v.DisputeReason = ""
	v.CreatedAt = now
	v.UpdatedAt = now

	if err := l.store.CreateVerification(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Dispute challenges a verification. The reason must carry enough substance
// to review. A dispute whose review was rejected may be raised again.
func (l *Lifecycle) Dispute(ctx context.Context, id, reason string) (*models.Verification, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < MinDisputeReasonLen {
		return nil, errs.Validationf("dispute reason must be at least %d characters", MinDisputeReasonLen)
	}

	v, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.IsDisputed && v.ReviewStatus != models.ReviewRejected {
		return nil, errs.InvalidStatef("verification %s is already disputed", id)
	}

	v.IsDisputed = true
	v.DisputeReason = reason
	v.ReviewStatus = models.ReviewPending
	v.UpdatedAt = time.Now()

	if err := l.store.UpdateVerification(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReviewDispute resolves a disputed verification. Only admins review. An
// approved review clears the dispute; a rejected one leaves the verification
// flagged with reviewStatus rejected.
func (l *Lifecycle) ReviewDispute(ctx context.Context, id string, outcome models.ReviewStatus, reviewerID string, isAdmin bool) (*models.Verification, error) {
	v, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		return nil, errs.Unauthorizedf("not authorized to review disputes")
	}
	if !v.IsDisputed {
		return nil, errs.InvalidStatef("verification %s is not disputed", id)
	}
	if outcome != models.ReviewApproved && outcome != models.ReviewRejected {
		return nil, errs.Validationf("review outcome must be approved or rejected")
	}

	if outcome == models.ReviewApproved {
		v.IsDisputed = false
		v.DisputeReason = ""
		v.ReviewStatus = models.ReviewApproved
	} else {
		v.ReviewStatus = models.ReviewRejected
	}
	v.ReviewedBy = reviewerID
	v.UpdatedAt = time.Now()

	if err := l.store.UpdateVerification(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// immutableFields may never appear in an update patch.
var immutableFields = map[string]bool{
	"verification_method": true,
	"claim_id":            true,
	"verified_by":         true,
}

// Update applies a partial update. Only the original verifier or an admin may
// update, and immutable fields are rejected outright rather than stripped.
func (l *Lifecycle) Update(ctx context.Context, id string, patch map[string]any, callerID string, isAdmin bool) (*models.Verification, error) {
	v, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && (v.VerifiedBy == "" || v.VerifiedBy != callerID) {
		return nil, errs.Unauthorizedf("not authorized to update this verification")
	}

	for field, value := range patch {
		if immutableFields[field] {
			return nil, errs.Validationf("field %s is immutable", field)
		}
		switch field {
		case "verdict":
			s, ok := value.(string)
			if !ok || !models.ValidVerdict(models.Verdict(s)) {
				return nil, errs.Validationf("invalid verdict")
			}
			v.Verdict = models.Verdict(s)
		case "confidence_score":
			f, ok := value.(float64)
			if !ok || f < 0 || f > 1 {
				return nil, errs.Validationf("confidence score must be between 0 and 1")
			}
			v.ConfidenceScore = f
		case "explanation":
			s, ok := value.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, errs.Validationf("explanation must be a non-empty string")
			}
			v.Explanation = s
		case "sources":
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, errs.Validationf("invalid sources")
			}
			var sources []models.Source
			if err := json.Unmarshal(raw, &sources); err != nil {
				return nil, errs.Validationf("invalid sources")
			}
			v.Sources = sources
		default:
			return nil, errs.Validationf("unknown field: %s", field)
		}
	}

	v.UpdatedAt = time.Now()
	if err := l.store.UpdateVerification(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Delete removes a verification. Admin only; the store also invalidates any
// cache entry referencing it.
func (l *Lifecycle) Delete(ctx context.Context, id string, isAdmin bool) error {
	if _, err := l.Get(ctx, id); err != nil {
		return err
	}
	if !isAdmin {
		return errs.Unauthorizedf("not authorized to delete this verification")
	}
	return l.store.DeleteVerification(ctx, id)
}

// Recent returns the newest verifications.
func (l *Lifecycle) Recent(ctx context.Context, limit, offset int) ([]*models.Verification, error) {
	return l.store.ListRecentVerifications(ctx, limit, offset)
}

// Stats returns aggregate counts by verdict and method.
func (l *Lifecycle) Stats(ctx context.Context) (*models.VerificationStats, error) {
	return l.store.VerificationStats(ctx)
}
