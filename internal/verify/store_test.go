package verify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/factchecker/veridex/internal/errs"
	"github.com/factchecker/veridex/internal/models"
)

// fakeStore is an in-memory Store for tests. It honors the same contracts as
// the SQLite store: create-if-absent per claim, nil on not-found, upsert on
// cache entries.
type fakeStore struct {
	mu            sync.Mutex
	claims        map[string]*models.Claim
	verifications map[string]*models.Verification
	byClaim       map[string]string
	entries       map[string]*models.CacheEntry
	failCache     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		claims:        make(map[string]*models.Claim),
		verifications: make(map[string]*models.Verification),
		byClaim:       make(map[string]string),
		entries:       make(map[string]*models.CacheEntry),
	}
}

func (s *fakeStore) CreateClaim(ctx context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *claim
	s.claims[claim.ID] = &c
	return nil
}

func (s *fakeStore) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.claims[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateClaimStatus(ctx context.Context, id string, status models.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.claims[id]; ok {
		c.Status = status
	}
	return nil
}

func (s *fakeStore) CreateVerification(ctx context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byClaim[v.ClaimID]; exists {
		return errs.Conflictf("claim %s already has a verification", v.ClaimID)
	}
	copied := *v
	s.verifications[v.ID] = &copied
	s.byClaim[v.ClaimID] = v.ID
	return nil
}

func (s *fakeStore) GetVerification(ctx context.Context, id string) (*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.verifications[id]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) GetVerificationByClaim(ctx context.Context, claimID string) (*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byClaim[claimID]; ok {
		copied := *s.verifications[id]
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateVerification(ctx context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verifications[v.ID]; !ok {
		return errors.New("verification not found")
	}
	copied := *v
	s.verifications[v.ID] = &copied
	return nil
}

func (s *fakeStore) DeleteVerification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.verifications[id]; ok {
		delete(s.byClaim, v.ClaimID)
		delete(s.verifications, id)
	}
	for fp, e := range s.entries {
		if e.VerificationID == id {
			delete(s.entries, fp)
		}
	}
	return nil
}

func (s *fakeStore) ListRecentVerifications(ctx context.Context, limit, offset int) ([]*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Verification
	for _, v := range s.verifications {
		copied := *v
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeStore) VerificationStats(ctx context.Context) (*models.VerificationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	verdictCounts := make(map[models.Verdict]int64)
	methodCounts := make(map[models.VerificationMethod]int64)
	for _, v := range s.verifications {
		verdictCounts[v.Verdict]++
		methodCounts[v.Method]++
	}
	stats := &models.VerificationStats{}
	for verdict, n := range verdictCounts {
		stats.ByVerdict = append(stats.ByVerdict, models.VerdictStat{Verdict: verdict, Count: n})
	}
	for method, n := range methodCounts {
		stats.ByMethod = append(stats.ByMethod, models.MethodStat{Method: method, Count: n})
	}
	return stats, nil
}

func (s *fakeStore) GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCache {
		return nil, errors.New("cache store unavailable")
	}
	if e, ok := s.entries[fingerprint]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) TouchCacheEntry(ctx context.Context, fingerprint, language string) (*models.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCache {
		return nil, errors.New("cache store unavailable")
	}
	e, ok := s.entries[fingerprint]
	if !ok {
		return nil, nil
	}
	e.AccessCount++
	e.LastAccessedAt = time.Now()
	found := false
	for _, l := range e.LanguagesAvailable {
		if l == language {
			found = true
		}
	}
	if language != "" && !found {
		e.LanguagesAvailable = append(e.LanguagesAvailable, language)
	}
	copied := *e
	return &copied, nil
}

func (s *fakeStore) UpsertCacheEntry(ctx context.Context, fingerprint, verificationID, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCache {
		return errors.New("cache store unavailable")
	}
	if e, ok := s.entries[fingerprint]; ok {
		e.AccessCount++
		e.LastAccessedAt = time.Now()
		return nil
	}
	s.entries[fingerprint] = &models.CacheEntry{
		Fingerprint:        fingerprint,
		VerificationID:     verificationID,
		LastAccessedAt:     time.Now(),
		AccessCount:        1,
		LanguagesAvailable: []string{language},
	}
	return nil
}

func (s *fakeStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error { return nil }
func (s *fakeStore) GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	return nil, nil
}
func (s *fakeStore) UpdateAPIKeyLastUsed(ctx context.Context, id string, t time.Time) error {
	return nil
}
func (s *fakeStore) DeleteAPIKey(ctx context.Context, id string) error          { return nil }
func (s *fakeStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)  { return nil, nil }
func (s *fakeStore) LogRequest(ctx context.Context, log *models.AuditLog) error { return nil }
func (s *fakeStore) GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}
func (s *fakeStore) Close() error   { return nil }
func (s *fakeStore) Migrate() error { return nil }
