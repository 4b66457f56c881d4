// Package providers implements evidence collection from external providers.
package providers

import (
	"context"

	"github.com/factchecker/veridex/internal/models"
)

// Provider defines the interface for evidence providers. A provider returns
// zero or more evidence units for a claim descriptor, or an error; it must not
// block past the deadline on the context it is given.
type Provider interface {
	// Query returns evidence units for the claim. For image claims the
	// descriptor is the image fingerprint.
	Query(ctx context.Context, claim string, category models.Category, language string) ([]models.EvidenceUnit, error)

	// Kind returns the provider class used for reconciliation priority.
	Kind() models.ProviderKind

	// Name returns the provider name for logging.
	Name() string

	// Available returns whether this provider is properly configured.
	Available() bool
}
