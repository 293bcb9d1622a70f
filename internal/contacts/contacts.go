// Package contacts owns the single active emergency-team contact.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no contact is active.
var ErrNotFound = errors.New("contacts: no active emergency contact")

// ErrInvalidContact is returned when a contact has no way to be reached.
var ErrInvalidContact = errors.New("contacts: name and at least one of email or phone are required")

// EmergencyContact is the on-call team surfaced in crisis replies and alert emails.
type EmergencyContact struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Region   string `json:"region,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Normalize trims every field and upper-cases the region.
func (c EmergencyContact) Normalize() EmergencyContact {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Region = strings.ToUpper(strings.TrimSpace(c.Region))
	return c
}

// Validate checks the contact can actually be reached.
func (c EmergencyContact) Validate() error {
	c = c.Normalize()
	if c.Name == "" || (c.Email == "" && c.Phone == "") {
		return ErrInvalidContact
	}
	return nil
}

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store reads and writes emergency_contacts. At most one row is active,
// enforced by a partial unique index on is_active.
type Store struct {
	db db
}

// NewStore wraps a pgx pool.
func NewStore(pool db) *Store {
	if pool == nil {
		panic("contacts: pgx pool required")
	}
	return &Store{db: pool}
}

const selectActive = `
	SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(region, ''), is_active
	FROM emergency_contacts
	WHERE is_active = TRUE
	LIMIT 1
`

// Active returns the active contact or ErrNotFound.
func (s *Store) Active(ctx context.Context) (*EmergencyContact, error) {
	var c EmergencyContact
	err := s.db.QueryRow(ctx, selectActive).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Region, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("contacts: load active contact: %w", err)
	}
	return &c, nil
}

// SeedDefault inserts c as the active contact unless one already exists, then
// returns whichever contact won.
func (s *Store) SeedDefault(ctx context.Context, c EmergencyContact) (*EmergencyContact, error) {
	c = c.Normalize()
	query := `
		INSERT INTO emergency_contacts (name, email, phone, region, is_active)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), TRUE)
		ON CONFLICT DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, c.Name, c.Email, c.Phone, c.Region); err != nil {
		return nil, fmt.Errorf("contacts: seed default contact: %w", err)
	}
	return s.Active(ctx)
}

// Replace deactivates the current contact and activates c in one transaction.
func (s *Store) Replace(ctx context.Context, c EmergencyContact) (*EmergencyContact, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("contacts: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE emergency_contacts SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`); err != nil {
		return nil, fmt.Errorf("contacts: deactivate current contact: %w", err)
	}

	insert := `
		INSERT INTO emergency_contacts (name, email, phone, region, is_active)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), TRUE)
		RETURNING id
	`
	if err := tx.QueryRow(ctx, insert, c.Name, c.Email, c.Phone, c.Region).Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("contacts: insert contact: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("contacts: commit: %w", err)
	}
	c.IsActive = true
	return &c, nil
}
