// Package database provides the data access layer.
package database

import (
	"context"
	"time"

	"github.com/factchecker/veridex/internal/models"
)

// Store defines the interface for data persistence.
type Store interface {
	// Claims
	CreateClaim(ctx context.Context, claim *models.Claim) error
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	UpdateClaimStatus(ctx context.Context, id string, status models.ClaimStatus) error

	// Verifications. CreateVerification is atomic create-if-absent keyed by
	// claim id; a second create for the same claim fails, it never overwrites.
	CreateVerification(ctx context.Context, v *models.Verification) error
	GetVerification(ctx context.Context, id string) (*models.Verification, error)
	GetVerificationByClaim(ctx context.Context, claimID string) (*models.Verification, error)
	UpdateVerification(ctx context.Context, v *models.Verification) error
	DeleteVerification(ctx context.Context, id string) error
	ListRecentVerifications(ctx context.Context, limit, offset int) ([]*models.Verification, error)
	VerificationStats(ctx context.Context) (*models.VerificationStats, error)

	// Cache entries
	GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error)
	TouchCacheEntry(ctx context.Context, fingerprint, language string) (*models.CacheEntry, error)
	UpsertCacheEntry(ctx context.Context, fingerprint, verificationID, language string) error

	// API Keys
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string, t time.Time) error
	DeleteAPIKey(ctx context.Context, id string) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)

	// Audit logs
	LogRequest(ctx context.Context, log *models.AuditLog) error
	GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// Lifecycle
	Close() error
	Migrate() error
}
