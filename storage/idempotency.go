package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roomboss-cli/booking"
)

const DefaultIdempotencyTTL = 24 * time.Hour

func ensureIdempotencySchema(db *sql.DB) error {
	createTable := `
CREATE TABLE IF NOT EXISTS booking_idempotency (
  key_hash TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  result TEXT,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);`
	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("create idempotency table: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_idempotency_expires ON booking_idempotency(expires_at);"); err != nil {
		return fmt.Errorf("create idempotency index: %w", err)
	}
	return nil
}

// SQLiteDedup keeps submission outcomes in the ledger database. Keys are
// stored hashed.
type SQLiteDedup struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteDedup(db *sql.DB, ttl time.Duration) *SQLiteDedup {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &SQLiteDedup{db: db, ttl: ttl, now: time.Now}
}

func (d *SQLiteDedup) Lookup(ctx context.Context, key string) (booking.DedupRecord, bool, error) {
	var status string
	var result sql.NullString
	var expiresAt string
	err := d.db.QueryRowContext(ctx,
		"SELECT status, result, expires_at FROM booking_idempotency WHERE key_hash = ?",
		hashKey(key),
	).Scan(&status, &result, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.DedupRecord{}, false, nil
	}
	if err != nil {
		return booking.DedupRecord{}, false, fmt.Errorf("lookup idempotency key: %w", err)
	}

	expires, err := time.Parse(time.RFC3339, expiresAt)
	if err == nil && d.now().UTC().After(expires) {
		return booking.DedupRecord{}, false, nil
	}

	record := booking.DedupRecord{Status: booking.DedupStatus(status)}
	if result.Valid && result.String != "" {
		var stored booking.Result
		if err := json.Unmarshal([]byte(result.String), &stored); err != nil {
			return booking.DedupRecord{}, false, fmt.Errorf("decode stored result: %w", err)
		}
		record.Result = &stored
	}
	return record, true, nil
}

func (d *SQLiteDedup) Save(ctx context.Context, key string, record booking.DedupRecord) error {
	var result sql.NullString
	if record.Result != nil {
		payload, err := json.Marshal(record.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		result = sql.NullString{String: string(payload), Valid: true}
	}

	now := d.now().UTC()
	_, err := d.db.ExecContext(ctx, `
INSERT INTO booking_idempotency (key_hash, status, result, created_at, expires_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key_hash) DO UPDATE SET status = excluded.status, result = excluded.result;`,
		hashKey(key),
		string(record.Status),
		result,
		now.Format(time.RFC3339),
		now.Add(d.ttl).Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired deletes records past their expiry and returns how many went.
func (d *SQLiteDedup) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		"DELETE FROM booking_idempotency WHERE expires_at < ?",
		d.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
