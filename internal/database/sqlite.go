// Package database provides SQLite implementation of the Store interface.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/factchecker/veridex/internal/errs"
	"github.com/factchecker/veridex/internal/models"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS claims (
			id TEXT PRIMARY KEY,
			text TEXT,
			image_hash TEXT,
			category TEXT NOT NULL,
			language TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_category_status ON claims(category, status)`,
		`CREATE TABLE IF NOT EXISTS verifications (
			id TEXT PRIMARY KEY,
			claim_id TEXT NOT NULL UNIQUE,
			method TEXT NOT NULL,
			verdict TEXT NOT NULL,
			confidence_score REAL NOT NULL,
			explanation TEXT NOT NULL,
			sources TEXT NOT NULL,
			is_disputed INTEGER NOT NULL DEFAULT 0,
			dispute_reason TEXT,
			review_status TEXT NOT NULL,
			reviewed_by TEXT,
			verified_by TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (claim_id) REFERENCES claims(id)
		)`,
		`CREATE TABLE IF NOT EXISTS cache_entries (
			fingerprint TEXT PRIMARY KEY,
			verification_id TEXT NOT NULL,
			last_accessed_at DATETIME NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 1,
			languages_available TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_last_accessed ON cache_entries(last_accessed_at)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			key_hash TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			requests_per_minute INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			last_used_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			api_key_id TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			request_size INTEGER NOT NULL,
			response_code INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateClaim stores a new claim.
func (s *SQLiteStore) CreateClaim(ctx context.Context, claim *models.Claim) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (id, text, image_hash, category, language, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		claim.ID, claim.Text, claim.ImageHash, claim.Category, claim.Language,
		claim.Status, claim.CreatedAt,
	)
	return err
}

// GetClaim retrieves a claim by ID.
func (s *SQLiteStore) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, image_hash, category, language, status, created_at
		FROM claims WHERE id = ?`, id)

	var c models.Claim
	err := row.Scan(&c.ID, &c.Text, &c.ImageHash, &c.Category, &c.Language, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateClaimStatus updates the derived status of a claim.
func (s *SQLiteStore) UpdateClaimStatus(ctx context.Context, id string, status models.ClaimStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE claims SET status = ? WHERE id = ?`, status, id)
	return err
}

// CreateVerification stores a verification. The UNIQUE constraint on claim_id
// makes the check-and-create atomic; a duplicate surfaces as a Conflict.
func (s *SQLiteStore) CreateVerification(ctx context.Context, v *models.Verification) error {
	sourcesJSON, _ := json.Marshal(v.Sources)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, claim_id, method, verdict, confidence_score, explanation,
			sources, is_disputed, dispute_reason, review_status, reviewed_by, verified_by,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ClaimID, v.Method, v.Verdict, v.ConfidenceScore, v.Explanation,
		string(sourcesJSON), v.IsDisputed, v.DisputeReason, v.ReviewStatus,
		v.ReviewedBy, v.VerifiedBy, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return errs.Conflictf("claim %s already has a verification", v.ClaimID)
		}
		return err
	}
	return nil
}

const verificationColumns = `id, claim_id, method, verdict, confidence_score, explanation,
	sources, is_disputed, dispute_reason, review_status, reviewed_by, verified_by,
	created_at, updated_at`

func scanVerification(row interface{ Scan(...any) error }) (*models.Verification, error) {
	var v models.Verification
	var sourcesJSON string
	var disputeReason, reviewedBy, verifiedBy sql.NullString
	err := row.Scan(&v.ID, &v.ClaimID, &v.Method, &v.Verdict, &v.ConfidenceScore,
		&v.Explanation, &sourcesJSON, &v.IsDisputed, &disputeReason, &v.ReviewStatus,
		&reviewedBy, &verifiedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(sourcesJSON), &v.Sources)
	v.DisputeReason = disputeReason.String
	v.ReviewedBy = reviewedBy.String
	v.VerifiedBy = verifiedBy.String
	return &v, nil
}

// GetVerification retrieves a verification by ID.
func (s *SQLiteStore) GetVerification(ctx context.Context, id string) (*models.Verification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE id = ?`, id)
	v, err := scanVerification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetVerificationByClaim retrieves the verification for a claim.
func (s *SQLiteStore) GetVerificationByClaim(ctx context.Context, claimID string) (*models.Verification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE claim_id = ?`, claimID)
	v, err := scanVerification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVerification persists the mutable fields of a verification.
func (s *SQLiteStore) UpdateVerification(ctx context.Context, v *models.Verification) error {
	sourcesJSON, _ := json.Marshal(v.Sources)
	_, err := s.db.ExecContext(ctx, `
		UPDATE verifications
		SET verdict = ?, confidence_score = ?, explanation = ?, sources = ?,
			is_disputed = ?, dispute_reason = ?, review_status = ?, reviewed_by = ?,
			updated_at = ?
		WHERE id = ?`,
		v.Verdict, v.ConfidenceScore, v.Explanation, string(sourcesJSON),
		v.IsDisputed, v.DisputeReason, v.ReviewStatus, v.ReviewedBy,
		v.UpdatedAt, v.ID,
	)
	return err
}

// DeleteVerification removes a verification and any cache entries pointing at
// it, so the cache never returns a dangling reference.
func (s *SQLiteStore) DeleteVerification(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE verification_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM verifications WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRecentVerifications returns paginated verifications, newest first.
func (s *SQLiteStore) ListRecentVerifications(ctx context.Context, limit, offset int) ([]*models.Verification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// VerificationStats returns counts and average confidence grouped by verdict,
// and counts grouped by method.
func (s *SQLiteStore) VerificationStats(ctx context.Context) (*models.VerificationStats, error) {
	stats := &models.VerificationStats{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT verdict, COUNT(*), AVG(confidence_score)
		FROM verifications GROUP BY verdict ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st models.VerdictStat
		if err := rows.Scan(&st.Verdict, &st.Count, &st.AvgConfidence); err != nil {
			return nil, err
		}
		stats.ByVerdict = append(stats.ByVerdict, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	methodRows, err := s.db.QueryContext(ctx, `
		SELECT method, COUNT(*)
		FROM verifications GROUP BY method ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer methodRows.Close()
	for methodRows.Next() {
		var st models.MethodStat
		if err := methodRows.Scan(&st.Method, &st.Count); err != nil {
			return nil, err
		}
		stats.ByMethod = append(stats.ByMethod, st)
	}
	return stats, methodRows.Err()
}

// GetCacheEntry retrieves a cache entry without touching access metadata.
func (s *SQLiteStore) GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, verification_id, last_accessed_at, access_count, languages_available
		FROM cache_entries WHERE fingerprint = ?`, fingerprint)
	return scanCacheEntry(row)
}

func scanCacheEntry(row *sql.Row) (*models.CacheEntry, error) {
	var e models.CacheEntry
	var langsJSON string
	err := row.Scan(&e.Fingerprint, &e.VerificationID, &e.LastAccessedAt, &e.AccessCount, &langsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(langsJSON), &e.LanguagesAvailable)
	return &e, nil
}

// TouchCacheEntry bumps access metadata for a hit and records the requested
// language. Returns nil when no entry exists for the fingerprint.
func (s *SQLiteStore) TouchCacheEntry(ctx context.Context, fingerprint, language string) (*models.CacheEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT fingerprint, verification_id, last_accessed_at, access_count, languages_available
		FROM cache_entries WHERE fingerprint = ?`, fingerprint)

	var e models.CacheEntry
	var langsJSON string
	err = row.Scan(&e.Fingerprint, &e.VerificationID, &e.LastAccessedAt, &e.AccessCount, &langsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(langsJSON), &e.LanguagesAvailable)

	e.AccessCount++
	e.LastAccessedAt = time.Now()
	if language != "" && !containsString(e.LanguagesAvailable, language) {
		e.LanguagesAvailable = append(e.LanguagesAvailable, language)
	}

	updatedLangs, _ := json.Marshal(e.LanguagesAvailable)
	if _, err := tx.ExecContext(ctx, `
		UPDATE cache_entries
		SET access_count = ?, last_accessed_at = ?, languages_available = ?
		WHERE fingerprint = ?`,
		e.AccessCount, e.LastAccessedAt, string(updatedLangs), fingerprint); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertCacheEntry records a freshly computed verification for a fingerprint.
// Concurrent writers for the same fingerprint must not duplicate the entry, so
// a conflict degrades to an access-metadata bump on the existing row.
func (s *SQLiteStore) UpsertCacheEntry(ctx context.Context, fingerprint, verificationID, language string) error {
	langsJSON, _ := json.Marshal([]string{language})
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (fingerprint, verification_id, last_accessed_at, access_count, languages_available)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			access_count = cache_entries.access_count + 1,
			last_accessed_at = excluded.last_accessed_at`,
		fingerprint, verificationID, time.Now(), string(langsJSON),
	)
	return err
}

// CreateAPIKey stores a new API key.
func (s *SQLiteStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, key_hash, name, is_admin, requests_per_minute, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		key.ID, key.KeyHash, key.Name, key.IsAdmin, key.RequestsPerMinute, key.CreatedAt)
	return err
}

// GetAPIKeyByHash retrieves an API key by its hash.
func (s *SQLiteStore) GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, key_hash, name, is_admin, requests_per_minute, created_at, last_used_at
		FROM api_keys WHERE key_hash = ?`, hash)

	var key models.APIKey
	err := row.Scan(&key.ID, &key.KeyHash, &key.Name, &key.IsAdmin,
		&key.RequestsPerMinute, &key.CreatedAt, &key.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateAPIKeyLastUsed updates the last used timestamp.
func (s *SQLiteStore) UpdateAPIKeyLastUsed(ctx context.Context, id string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, t, id)
	return err
}

// DeleteAPIKey removes an API key.
func (s *SQLiteStore) DeleteAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	return err
}

// ListAPIKeys returns all API keys.
func (s *SQLiteStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_admin, requests_per_minute, created_at, last_used_at
		FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.IsAdmin, &k.RequestsPerMinute,
			&k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, err
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// LogRequest stores an audit log entry.
func (s *SQLiteStore) LogRequest(ctx context.Context, log *models.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, api_key_id, endpoint, method, request_size, response_code, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.APIKeyID, log.Endpoint, log.Method, log.RequestSize,
		log.ResponseCode, log.DurationMs, log.Timestamp)
	return err
}

// GetAuditLogs returns paginated audit logs.
func (s *SQLiteStore) GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, api_key_id, endpoint, method, request_size, response_code, duration_ms, timestamp
		FROM audit_logs ORDER BY timestamp DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.APIKeyID, &l.Endpoint, &l.Method,
			&l.RequestSize, &l.ResponseCode, &l.DurationMs, &l.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
