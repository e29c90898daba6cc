package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fincore/customer/internal/domain/customer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockCommandRepository creates a GormCommandRepository with a mocked SQL connection
func newMockCommandRepository(t *testing.T) (*GormCommandRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewGormCommandRepository(gormDB), mock, mockDB
}

func TestGormCommandRepository_Append(t *testing.T) {
	t.Run("assigns the next position", func(t *testing.T) {
		repo, mock, mockDB := newMockCommandRepository(t)
		defer mockDB.Close()

		cmd := customer.NewCommand(uuid.New(), uuid.New(), customer.ActionActivate, "operator", "")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), 0\) FROM "customer_commands" WHERE customer_id = \$1`).
			WithArgs(cmd.CustomerID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))
		mock.ExpectExec(`INSERT INTO "customer_commands"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		position, err := repo.Append(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 3, position)
		assert.Equal(t, 3, cmd.Position)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries with a fresh position after losing the race", func(t *testing.T) {
		repo, mock, mockDB := newMockCommandRepository(t)
		defer mockDB.Close()

		cmd := customer.NewCommand(uuid.New(), uuid.New(), customer.ActionLock, "operator", "fraud review")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), 0\) FROM "customer_commands"`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))
		mock.ExpectExec(`INSERT INTO "customer_commands"`).
			WillReturnError(gorm.ErrDuplicatedKey)
		mock.ExpectRollback()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), 0\) FROM "customer_commands"`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5))
		mock.ExpectExec(`INSERT INTO "customer_commands"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		position, err := repo.Append(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 6, position)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates non-conflict errors without retrying", func(t *testing.T) {
		repo, mock, mockDB := newMockCommandRepository(t)
		defer mockDB.Close()

		cmd := customer.NewCommand(uuid.New(), uuid.New(), customer.ActionClose, "operator", "")
		dbErr := errors.New("connection reset")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), 0\) FROM "customer_commands"`).
			WillReturnError(dbErr)
		mock.ExpectRollback()

		_, err := repo.Append(context.Background(), cmd)

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCommandRepository_History(t *testing.T) {
	t.Run("returns commands oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockCommandRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		customerID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "customer_id", "position", "action", "created_by"}).
			AddRow(uuid.New(), tenantID, customerID, 1, "ACTIVATE", "operator").
			AddRow(uuid.New(), tenantID, customerID, 2, "LOCK", "auditor").
			AddRow(uuid.New(), tenantID, customerID, 3, "UNLOCK", "auditor")

		mock.ExpectQuery(`SELECT \* FROM "customer_commands" WHERE tenant_id = \$1 AND customer_id = \$2 ORDER BY position ASC`).
			WithArgs(tenantID, customerID).
			WillReturnRows(rows)

		history, err := repo.History(context.Background(), tenantID, customerID)

		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, customer.ActionActivate, history[0].Action)
		assert.Equal(t, 1, history[0].Position)
		assert.Equal(t, 3, history[2].Position)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty history for unknown customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCommandRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customer_commands"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "position", "action"}))

		history, err := repo.History(context.Background(), tenantID, customerID)

		require.NoError(t, err)
		assert.Empty(t, history)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
