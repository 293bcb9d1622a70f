package safety

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "short", Truncate("short", 240))
	assert.Equal(t, "héll", Truncate("héllo", 4))

	long := strings.Repeat("ü", 300)
	got := Truncate(long, MaxExcerptRunes)
	assert.Equal(t, MaxExcerptRunes, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestAlertStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	text := strings.Repeat("a", 300)
	mock.ExpectQuery("INSERT INTO alerts").
		WithArgs(int64(42), "critical", true, strings.Repeat("a", 240), text, "new", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	alert, err := NewAlertStore(db).Create(context.Background(), Alert{
		UserID:    42,
		RiskLevel: "critical",
		IsHeavy:   true,
		FullText:  text,
		Status:    "reviewed",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), alert.ID)
	assert.Equal(t, StatusNew, alert.Status)
	assert.Len(t, alert.Excerpt, 240)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertStore_CreateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO alerts").WillReturnError(errors.New("disk full"))

	_, err = NewAlertStore(db).Create(context.Background(), Alert{UserID: 1, FullText: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "safety: failed to create alert")
}

func TestRiskLogStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO risk_logs").
		WithArgs(int64(7), "medium", 6, "crisis", "I feel hopeless lately", "Supportive response provided", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	entry, err := NewRiskLogStore(db).Append(context.Background(), RiskLogEntry{
		UserID:      7,
		RiskLevel:   "medium",
		RiskScore:   6,
		RiskType:    "crisis",
		Indicator:   "I feel hopeless lately",
		ActionTaken: "Supportive response provided",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.ID)
	assert.False(t, entry.DetectedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskLogStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS risk_logs").WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < 4; i++ {
		mock.ExpectExec("ALTER TABLE risk_logs ADD COLUMN IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewRiskLogStore(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskLogStore_EnsureSchemaStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS risk_logs").WillReturnError(errors.New("permission denied"))

	err = NewRiskLogStore(db).EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilStores(t *testing.T) {
	var alerts *AlertStore
	_, err := alerts.Create(context.Background(), Alert{})
	assert.ErrorIs(t, err, ErrNilDB)

	logs := NewRiskLogStore(nil)
	assert.ErrorIs(t, logs.EnsureSchema(context.Background()), ErrNilDB)
}
