// Package safety persists the alert and risk-log audit trail written for
// concerning chat messages.
package safety

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxExcerptRunes bounds alert excerpts and risk-log indicators.
const MaxExcerptRunes = 240

// StatusNew is the initial alert status; review happens elsewhere.
const StatusNew = "new"

// ErrNilDB is returned when a store is used without a database handle.
var ErrNilDB = errors.New("safety: database is nil")

// Alert is one reviewer-facing flag for a concerning message.
type Alert struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	RiskLevel string    `json:"riskLevel"`
	IsHeavy   bool      `json:"isHeavy"`
	Excerpt   string    `json:"excerpt"`
	FullText  string    `json:"fullText"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// RiskLogEntry is an append-only audit record.
type RiskLogEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	RiskLevel   string    `json:"riskLevel"`
	RiskScore   int       `json:"riskScore"`
	RiskType    string    `json:"riskType"`
	Indicator   string    `json:"indicator"`
	ActionTaken string    `json:"actionTaken"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// AlertStore writes alerts.
type AlertStore struct {
	db *sql.DB
}

// NewAlertStore creates a new alert store.
func NewAlertStore(db *sql.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Create inserts a new alert. The excerpt is derived from FullText when empty
// and always capped, and status is forced to "new".
func (s *AlertStore) Create(ctx context.Context, alert Alert) (*Alert, error) {
	if s == nil || s.db == nil {
		return nil, ErrNilDB
	}
	if alert.Excerpt == "" {
		alert.Excerpt = alert.FullText
	}
	alert.Excerpt = Truncate(alert.Excerpt, MaxExcerptRunes)
	alert.Status = StatusNew
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO alerts (user_id, risk_level, is_heavy, excerpt, full_text, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		alert.UserID,
		alert.RiskLevel,
		alert.IsHeavy,
		alert.Excerpt,
		alert.FullText,
		alert.Status,
		alert.CreatedAt,
	).Scan(&alert.ID)
	if err != nil {
		return nil, fmt.Errorf("safety: failed to create alert: %w", err)
	}
	return &alert, nil
}

// RiskLogStore appends risk-log entries.
type RiskLogStore struct {
	db *sql.DB
}

// NewRiskLogStore creates a new risk-log store.
func NewRiskLogStore(db *sql.DB) *RiskLogStore {
	return &RiskLogStore{db: db}
}

var riskLogSchema = []string{
	`CREATE TABLE IF NOT EXISTS risk_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		risk_level TEXT NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE risk_logs ADD COLUMN IF NOT EXISTS risk_score INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE risk_logs ADD COLUMN IF NOT EXISTS risk_type TEXT NOT NULL DEFAULT 'other'`,
	`ALTER TABLE risk_logs ADD COLUMN IF NOT EXISTS indicator TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE risk_logs ADD COLUMN IF NOT EXISTS action_taken TEXT NOT NULL DEFAULT ''`,
	`CREATE INDEX IF NOT EXISTS risk_logs_user_detected_idx ON risk_logs (user_id, detected_at DESC)`,
}

// EnsureSchema brings risk_logs up to the current column set. Every statement
// is idempotent.
func (s *RiskLogStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNilDB
	}
	for _, stmt := range riskLogSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("safety: ensure risk_logs schema: %w", err)
		}
	}
	return nil
}

// Append writes one entry. Entries are never updated or deleted here.
func (s *RiskLogStore) Append(ctx context.Context, entry RiskLogEntry) (*RiskLogEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNilDB
	}
	entry.Indicator = Truncate(entry.Indicator, MaxExcerptRunes)
	if entry.DetectedAt.IsZero() {
		entry.DetectedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO risk_logs (user_id, risk_level, risk_score, risk_type, indicator, action_taken, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.RiskLevel,
		entry.RiskScore,
		entry.RiskType,
		entry.Indicator,
		entry.ActionTaken,
		entry.DetectedAt,
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("safety: failed to append risk log: %w", err)
	}
	return &entry, nil
}
