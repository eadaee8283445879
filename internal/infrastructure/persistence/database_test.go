package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	configapp "github.com/carconfig/backend/internal/application/configuration"
	"github.com/carconfig/backend/internal/domain/inventory"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	db, err := wrap(gormDB, config.DriverPostgres)
	require.NoError(t, err)
	return db, mock, mockDB
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverMemory}, nil)
	assert.ErrorContains(t, err, "unsupported relational driver")
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	db, err := wrap(gormDB, config.DriverPostgres)
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, db.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats := db.Stats()
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestGormLedger_AdjustMany_LocksRowsInIDOrder(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","availability" FROM "accessories" WHERE id IN \(\$1,\$2\) ORDER BY id FOR UPDATE`).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "availability"}).AddRow(3, 1).AddRow(7, 0))
	mock.ExpectExec(`UPDATE "accessories" SET "availability"=availability \+ \$1 WHERE id = \$2 AND availability \+ \$3 >= 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "accessories" SET "availability"=availability \+ \$1 WHERE id = \$2 AND availability \+ \$3 >= 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ledger := NewGormLedger(db.DB)
	err := ledger.AdjustMany(context.Background(), []inventory.Adjustment{
		inventory.Release(7),
		inventory.Reserve(3),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_AdjustMany_RejectsWithoutWriting(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","availability" FROM "accessories" WHERE id IN \(\$1,\$2\) ORDER BY id FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "availability"}).AddRow(1, 0).AddRow(2, 4))
	mock.ExpectRollback()

	ledger := NewGormLedger(db.DB)
	err := ledger.AdjustMany(context.Background(), []inventory.Adjustment{inventory.Reserve(1), inventory.Reserve(2)})

	var insufficient *inventory.InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, []int64{1}, insufficient.AccessoryIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_AdjustMany_GuardedUpdateLosesRace(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","availability" FROM "accessories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "availability"}).AddRow(5, 1))
	mock.ExpectExec(`UPDATE "accessories" SET "availability"=availability`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewGormLedger(db.DB).Adjust(context.Background(), 5, -1)
	assert.ErrorIs(t, err, inventory.ErrInsufficientAvailability)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_AdjustMany_UnknownAccessory(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","availability" FROM "accessories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "availability"}))
	mock.ExpectRollback()

	err := NewGormLedger(db.DB).Adjust(context.Background(), 99, -1)
	assert.ErrorIs(t, err, inventory.ErrUnknownAccessory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_ZeroNetBatchTouchesNothing(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	err := NewGormLedger(db.DB).AdjustMany(context.Background(), []inventory.Adjustment{
		inventory.Reserve(1),
		inventory.Release(1),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_LockForUpdate(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "is_good_client", "has_car_configuration"}).
			AddRow(4, "dave@example.com", "Dave", "hash", false, true))

	user, err := NewGormUserRepository(db.DB).LockForUpdate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.ID)
	assert.True(t, user.HasCarConfiguration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUnitOfWork_RollsBackOnError(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	uow := NewGormUnitOfWork(db.DB)
	err := uow.Execute(context.Background(), func(repos configapp.TransactionalRepositories) error {
		_, err := repos.Users().LockForUpdate(context.Background(), 1)
		return err
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
