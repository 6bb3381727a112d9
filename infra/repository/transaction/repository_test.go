package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	domaintx "github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return &repository{db: db}, mock
}

func TestClaimPending_SingleConditionalUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	id, operator := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.ClaimPending(context.Background(), id, operator, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimPending_LostRace(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.ClaimPending(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "zero rows affected means the claim was lost")
}

func TestReleaseClaim_RequiresOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.ReleaseClaim(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseExpired_CountsResets(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.ReleaseExpired(context.Background(), time.Now().Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestGet_MissingRowIsNil(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	read, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, read)
}

func TestMapUpdateDTOToModel_ClearClaimNullsBothColumns(t *testing.T) {
	status := string(domaintx.StatusPending)
	updates := mapUpdateDTOToModel(dto.TransactionUpdate{
		Status:     &status,
		ClearClaim: true,
	})
	assert.Equal(t, status, updates["status"])
	v, present := updates["claimed_by"]
	assert.True(t, present)
	assert.Nil(t, v)
	v, present = updates["claimed_at"]
	assert.True(t, present)
	assert.Nil(t, v)
}
