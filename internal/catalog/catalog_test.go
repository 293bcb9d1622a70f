package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreListStaff(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT name, specialty, years_experience, fee, bio").
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"name", "specialty", "years_experience", "fee", "bio"}).
			AddRow("Dr. Ana Ruiz", "Anxiety disorders", 12, 150.0, "CBT for panic and anxiety").
			AddRow("Dr. Sam Lee", "Sleep medicine", 8, 120.0, "Insomnia care"))

	store := NewPostgresStore(mock)
	staff, err := store.ListStaff(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Dr. Ana Ruiz", staff[0].Name)
	assert.Equal(t, 12, staff[0].YearsExperience)
	assert.Contains(t, staff[1].SearchText(), "insomnia")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreListArticlesClampsLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT title, category, description").
		WithArgs(DefaultPageSize).
		WillReturnRows(pgxmock.NewRows([]string{"title", "category", "description"}).
			AddRow("Sleep hygiene basics", "Sleep", "Simple habits for better rest"))

	store := NewPostgresStore(mock)
	articles, err := store.ListArticles(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Sleep", articles[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWrapsQueryErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT name").WillReturnError(errors.New("connection reset"))

	_, err = NewPostgresStore(mock).ListStaff(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: list staff failed")
}

func TestNilStore(t *testing.T) {
	var store *PostgresStore
	_, err := store.ListArticles(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNilPool)
}

type countingStore struct {
	staffCalls   int
	articleCalls int
	err          error
}

func (c *countingStore) ListStaff(context.Context, int) ([]StaffRecord, error) {
	c.staffCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []StaffRecord{{Name: "Dr. Ana Ruiz", Specialty: "Anxiety"}}, nil
}

func (c *countingStore) ListArticles(context.Context, int) ([]ArticleRecord, error) {
	c.articleCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []ArticleRecord{{Title: "Grounding techniques", Category: "Anxiety"}}, nil
}

func TestCachedStoreReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	next := &countingStore{}
	cached := NewCachedStore(next, client, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		staff, err := cached.ListStaff(ctx, 20)
		require.NoError(t, err)
		require.Len(t, staff, 1)
		articles, err := cached.ListArticles(ctx, 20)
		require.NoError(t, err)
		require.Len(t, articles, 1)
	}
	assert.Equal(t, 1, next.staffCalls)
	assert.Equal(t, 1, next.articleCalls)
	assert.True(t, mr.Exists("catalog:staff:20"))

	mr.FastForward(2 * time.Minute)
	_, err := cached.ListStaff(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, next.staffCalls)
}

func TestCachedStoreInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	next := &countingStore{}
	cached := NewCachedStore(next, client, time.Minute, nil)
	ctx := context.Background()

	_, err := cached.ListArticles(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx))
	assert.False(t, mr.Exists("catalog:articles:10"))

	_, err = cached.ListArticles(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, next.articleCalls)
}

func TestCachedStoreFallsThroughWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	next := &countingStore{}
	cached := NewCachedStore(next, client, time.Minute, nil)
	staff, err := cached.ListStaff(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, staff, 1)
}

func TestCachedStorePropagatesStoreErrors(t *testing.T) {
	next := &countingStore{err: errors.New("db down")}
	cached := NewCachedStore(next, nil, 0, nil)
	_, err := cached.ListStaff(context.Background(), 10)
	assert.EqualError(t, err, "db down")
}
