package implementation_test

import (
	"context"
	"regexp"
	"testing"

	"tarot-oracle-be/internal/repository/implementation"
	"tarot-oracle-be/pkg/oracle/memory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testUserID = "0b6f3c1e-8a2d-4f7e-9c51-2d4e6f8a0b1c"

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestGetReadingPermissions(t *testing.T) {
	query := regexp.QuoteMeta("SELECT get_user_reading_permissions($1::uuid) AS permissions")

	t.Run("jsonb document", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectQuery(query).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"permissions"}).
				AddRow([]byte(`{"can_see_future":true,"is_premium":false}`)))

		perms, err := implementation.NewOracleRepository(db).GetReadingPermissions(context.Background(), testUserID)
		require.NoError(t, err)
		assert.True(t, perms.CanSeeFuture)
		assert.False(t, perms.IsPremium)
		assert.True(t, perms.SeesFuture())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("premium only", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectQuery(query).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"permissions"}).
				AddRow(`{"can_see_future":false,"is_premium":true}`))

		perms, err := implementation.NewOracleRepository(db).GetReadingPermissions(context.Background(), testUserID)
		require.NoError(t, err)
		assert.True(t, perms.SeesFuture())
	})

	t.Run("null result means no entitlement", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectQuery(query).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"permissions"}).AddRow(nil))

		perms, err := implementation.NewOracleRepository(db).GetReadingPermissions(context.Background(), testUserID)
		require.NoError(t, err)
		assert.False(t, perms.SeesFuture())
	})

	t.Run("malformed document", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectQuery(query).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"permissions"}).AddRow(`{"can_see_future":`))

		_, err := implementation.NewOracleRepository(db).GetReadingPermissions(context.Background(), testUserID)
		assert.ErrorContains(t, err, "decode reading permissions")
	})
}

func TestGetMemoryContext(t *testing.T) {
	query := regexp.QuoteMeta("SELECT get_user_memory_context($1::uuid)")

	db, mock := mockDB(t)
	mock.ExpectQuery(query).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"get_user_memory_context"}).AddRow("Trabaja como enfermera."))

	text, err := implementation.NewOracleRepository(db).GetMemoryContext(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, "Trabaja como enfermera.", text)

	mock.ExpectQuery(query).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"get_user_memory_context"}).AddRow(nil))

	text, err = implementation.NewOracleRepository(db).GetMemoryContext(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMemoryEntry(t *testing.T) {
	entry := memory.Entry{
		Category:   memory.Preference,
		Key:        "tono",
		Value:      "prefiere respuestas directas",
		Confidence: 0.8,
		Layer:      memory.LayerIdentity,
	}

	t.Run("chat conversation keeps the source chat", func(t *testing.T) {
		db, mock := mockDB(t)
		chatID := "6f1c2a9e-52c1-4f4a-9b3e-1d2c3b4a5f60"
		mock.ExpectExec(`SELECT save_memory_entry\(`).
			WithArgs(testUserID, "preference", "tono", "prefiere respuestas directas", 0.8, "identity", chatID, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := implementation.NewOracleRepository(db).SaveMemoryEntry(context.Background(), testUserID, chatID, entry)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("anonymous conversation has no source chat", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectExec(`SELECT save_memory_entry\(`).
			WithArgs(testUserID, "preference", "tono", "prefiere respuestas directas", 0.8, "identity", nil, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := implementation.NewOracleRepository(db).SaveMemoryEntry(context.Background(), testUserID, "conv-local-1", entry)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
