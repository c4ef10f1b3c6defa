package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"seatline/internal/events"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestLockEventUsesRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1 .*FOR UPDATE`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "max_tickets", "max_seatings"}).
			AddRow(id.String(), "Recital", 4, 0))

	event, err := repo.LockEvent(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, 4, event.MaxTickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockEventNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.LockEvent(context.Background(), id)

	assert.ErrorIs(t, err, events.ErrEventNotFound)
}

func TestLockTimeoutMapsToBusy(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "could not obtain lock"})

	_, err := repo.LockEvent(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrClaimBusy)
}

func TestAddSeatUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "reservation_seats"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_event_seat\""})
	mock.ExpectRollback()

	err := repo.AddSeat(context.Background(), &ReservationSeat{
		ReservationID: uuid.New(),
		SeatID:        uuid.New(),
		EventID:       uuid.New(),
	})

	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReleasesSeatsFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "reservation_seats" WHERE reservation_id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "reservations" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	released, err := repo.Delete(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, int64(3), released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSealRejectsFinishedRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations" SET .* WHERE id = \$\d+ AND finished = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Seal(context.Background(), id, "ABCDEF0123", time.Now())

	assert.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.Transaction(context.Background(), func(tx Repository) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimLookupsTakeRowLocks(t *testing.T) {
	eventID, seatID, ownerID := uuid.New(), uuid.New(), uuid.New()

	t.Run("seat holder", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "reservation_seats" WHERE event_id = \$1 AND seat_id = \$2 .*FOR UPDATE`).
			WithArgs(eventID, seatID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "seat_id", "event_id", "position"}))

		holder, err := repo.FindSeatHolder(context.Background(), eventID, seatID)

		require.NoError(t, err)
		assert.Nil(t, holder)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open session", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE owner_id = \$1 AND event_id = \$2 AND finished = \$3 ORDER BY updated_at DESC .*FOR UPDATE`).
			WithArgs(ownerID, eventID, false, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "event_id", "finished"}))

		session, err := repo.FindOpenSession(context.Background(), ownerID, eventID)

		require.NoError(t, err)
		assert.Nil(t, session)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lapsed sessions of the event", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRepository(db)
		cutoff := time.Now().Add(-20 * time.Minute)

		mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE event_id = \$1 AND finished = \$2 AND updated_at < \$3 ORDER BY updated_at ASC FOR UPDATE`).
			WithArgs(eventID, false, cutoff).
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "event_id", "finished"}))

		stale, err := repo.ListStaleOnEvent(context.Background(), eventID, cutoff)

		require.NoError(t, err)
		assert.Empty(t, stale)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
