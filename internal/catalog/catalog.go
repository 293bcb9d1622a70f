// Package catalog reads the clinic staff and article records used to ground
// chat replies.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultPageSize bounds every catalog read.
const DefaultPageSize = 50

// StaffRecord is a clinician listed in the clinic directory.
type StaffRecord struct {
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	YearsExperience int     `json:"years_experience"`
	Fee             float64 `json:"fee"`
	Bio             string  `json:"bio"`
}

// SearchText concatenates the fields scored for relevance.
func (s StaffRecord) SearchText() string {
	return strings.ToLower(s.Name + " " + s.Specialty + " " + s.Bio)
}

// ArticleRecord is an educational resource.
type ArticleRecord struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// SearchText concatenates the fields scored for relevance.
func (a ArticleRecord) SearchText() string {
	return strings.ToLower(a.Title + " " + a.Category + " " + a.Description)
}

// Store is the read-only catalog collaborator.
type Store interface {
	ListStaff(ctx context.Context, limit int) ([]StaffRecord, error)
	ListArticles(ctx context.Context, limit int) ([]ArticleRecord, error)
}

// ErrNilPool is returned when the store is built without a database handle.
var ErrNilPool = errors.New("catalog: database pool is nil")

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore reads the catalog tables through a pgx pool.
type PostgresStore struct {
	db querier
}

// NewPostgresStore wraps a pgx pool (or any compatible querier, e.g. pgxmock).
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListStaff returns active clinicians in directory order.
func (s *PostgresStore) ListStaff(ctx context.Context, limit int) ([]StaffRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrNilPool
	}
	query := `
		SELECT name, specialty, years_experience, fee, bio
		FROM clinic_staff
		WHERE is_active = TRUE
		ORDER BY id
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("catalog: list staff failed: %w", err)
	}
	defer rows.Close()

	var staff []StaffRecord
	for rows.Next() {
		var rec StaffRecord
		if err := rows.Scan(&rec.Name, &rec.Specialty, &rec.YearsExperience, &rec.Fee, &rec.Bio); err != nil {
			return nil, fmt.Errorf("catalog: scan staff failed: %w", err)
		}
		staff = append(staff, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate staff failed: %w", err)
	}
	return staff, nil
}

// ListArticles returns published articles, newest first.
func (s *PostgresStore) ListArticles(ctx context.Context, limit int) ([]ArticleRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrNilPool
	}
	query := `
		SELECT title, category, description
		FROM articles
		WHERE is_published = TRUE
		ORDER BY published_at DESC NULLS LAST, id
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("catalog: list articles failed: %w", err)
	}
	defer rows.Close()

	var articles []ArticleRecord
	for rows.Next() {
		var rec ArticleRecord
		if err := rows.Scan(&rec.Title, &rec.Category, &rec.Description); err != nil {
			return nil, fmt.Errorf("catalog: scan article failed: %w", err)
		}
		articles = append(articles, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate articles failed: %w", err)
	}
	return articles, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultPageSize*4 {
		return DefaultPageSize
	}
	return limit
}
