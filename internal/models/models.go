// Package models defines the core data structures used throughout the application.
package models

import (
	"time"
)

// Verdict is the four-way outcome of a fact check.
type Verdict string

const (
	VerdictTrue         Verdict = "true"
	VerdictFalse        Verdict = "false"
	VerdictMisleading   Verdict = "misleading"
	VerdictUnverifiable Verdict = "unverifiable"
)

// ValidVerdict reports whether v is one of the known verdict values.
func ValidVerdict(v Verdict) bool {
	switch v {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverifiable:
		return true
	}
	return false
}

// Category classifies a claim into a closed set of verification domains.
type Category string

const (
	CategoryHealth   Category = "health"
	CategorySecurity Category = "security"
	CategoryPolitics Category = "politics"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryHealth, CategorySecurity, CategoryPolitics:
		return true
	}
	return false
}

// ClaimStatus is derived from the claim's verification outcome.
type ClaimStatus string

const (
	ClaimStatusPending      ClaimStatus = "pending"
	ClaimStatusVerified     ClaimStatus = "verified"
	ClaimStatusUnverifiable ClaimStatus = "unverifiable"
)

// ProviderKind identifies the class of evidence provider a unit came from.
type ProviderKind string

const (
	ProviderOfficial   ProviderKind = "official-source"
	ProviderRegistry   ProviderKind = "registry"
	ProviderImageMatch ProviderKind = "image-match"
)

// Priority returns the reconciliation rank of the provider kind; lower wins.
// Official sources dominate registries, which dominate image matches.
func (k ProviderKind) Priority() int {
	switch k {
	case ProviderOfficial:
		return 0
	case ProviderRegistry:
		return 1
	case ProviderImageMatch:
		return 2
	}
	return 3
}

// VerificationMethod records how a verification was produced.
type VerificationMethod string

const (
	MethodAutomated VerificationMethod = "automated"
	MethodHuman     VerificationMethod = "human"
	MethodPartner   VerificationMethod = "partner"
	MethodOfficial  VerificationMethod = "official"
)

// ReviewStatus is the dispute-review state of a verification.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Claim represents a user-submitted factual claim, textual or image-based.
type Claim struct {
	ID        string      `json:"id"`
	Text      string      `json:"text,omitempty"`
	ImageHash string      `json:"image_hash,omitempty"`
	Category  Category    `json:"category"`
	Language  string      `json:"language"`
	Status    ClaimStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// EvidenceUnit is one provider's verdict contribution for a claim. It is
// transient: produced by a provider call and consumed whole by reconciliation.
type EvidenceUnit struct {
	Verdict     Verdict      `json:"verdict"`
	Explanation string       `json:"explanation"`
	SourceURL   string       `json:"source_url"`
	SourceName  string       `json:"source_name"`
	Provider    ProviderKind `json:"provider"`
}

// Source is a corroborating reference attached to a verification.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Verification is the durable result of reconciling evidence for a claim.
// At most one verification exists per claim.
type Verification struct {
	ID              string             `json:"id"`
	ClaimID         string             `json:"claim_id"`
	Method          VerificationMethod `json:"verification_method"`
	Verdict         Verdict            `json:"verdict"`
	ConfidenceScore float64            `json:"confidence_score"`
	Explanation     string             `json:"explanation"`
	Sources         []Source           `json:"sources"`
	IsDisputed      bool               `json:"is_disputed"`
	DisputeReason   string             `json:"dispute_reason,omitempty"`
	ReviewStatus    ReviewStatus       `json:"review_status"`
	ReviewedBy      string             `json:"reviewed_by,omitempty"`
	VerifiedBy      string             `json:"verified_by,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CacheEntry maps a content fingerprint to a previously computed verification
// and tracks access recency for external eviction policies.
type CacheEntry struct {
	Fingerprint        string    `json:"fingerprint"`
	VerificationID     string    `json:"verification_id"`
	LastAccessedAt     time.Time `json:"last_accessed_at"`
	AccessCount        int64     `json:"access_count"`
	LanguagesAvailable []string  `json:"languages_available"`
}

// VerdictStat aggregates verification counts and confidence per verdict.
type VerdictStat struct {
	Verdict       Verdict `json:"verdict"`
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// MethodStat aggregates verification counts per method.
type MethodStat struct {
	Method VerificationMethod `json:"method"`
	Count  int64              `json:"count"`
}

// VerificationStats is the statistics payload for reporting endpoints.
type VerificationStats struct {
	ByVerdict []VerdictStat `json:"by_verdict"`
	ByMethod  []MethodStat  `json:"by_method"`
}

// APIKey represents an API key for authentication. Admin keys may review
// disputes and delete verifications.
type APIKey struct {
	ID                string     `json:"id"`
	KeyHash           string     `json:"-"` // Never expose
	Name              string     `json:"name"`
	IsAdmin           bool       `json:"is_admin"`
	RequestsPerMinute int        `json:"requests_per_minute"`
	CreatedAt         time.Time  `json:"created_at"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
}

// AuditLog represents an API request audit entry.
type AuditLog struct {
	ID           string    `json:"id"`
	APIKeyID     string    `json:"api_key_id"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	RequestSize  int64     `json:"request_size"`
	ResponseCode int       `json:"response_code"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// SubmitClaimRequest is the request body for claim submission.
type SubmitClaimRequest struct {
	Text     string   `json:"text,omitempty"`
	Image    string   `json:"image,omitempty"` // base64-encoded raw bytes
	Category Category `json:"category"`
	Language string   `json:"language,omitempty"`
}

// DisputeRequest is the request body for disputing a verification.
type DisputeRequest struct {
	Reason string `json:"reason"`
}

// ReviewRequest is the request body for reviewing a disputed verification.
type ReviewRequest struct {
	Outcome ReviewStatus `json:"outcome"`
}
