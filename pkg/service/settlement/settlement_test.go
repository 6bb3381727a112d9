package settlement_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/infra/eventbus"
	"github.com/obmenka/settlement/internal/fixtures/memstore"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/obmenka/settlement/pkg/events"
	"github.com/obmenka/settlement/pkg/repository"
	"github.com/obmenka/settlement/pkg/service/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPolicy scripts the validation outcome.
type stubPolicy struct {
	valid bool
	err   error
}

func (p stubPolicy) Validate(context.Context, string) (bool, error) {
	return p.valid, p.err
}

func newService(t *testing.T, policy settlement.ReceiptPolicy) (*settlement.Service, *memstore.Store, *eventbus.MemoryEventBus) {
	t.Helper()
	store := memstore.New()
	bus := eventbus.NewWithMemory(slog.Default())
	return settlement.NewService(store, policy, bus, slog.Default()), store, bus
}

// seedClaimed stores a VERIFICATION transaction held by operator.
// 50 USDT at rate 82, commission 0.78% -> charge 49.61 USDT / 4068.02 RUB.
func seedClaimed(store *memstore.Store, operator uuid.UUID) dto.TransactionRead {
	now := time.Now().UTC()
	read := dto.TransactionRead{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		AmountRUB:    410000,
		AmountUSDT:   5000,
		ChargeRUB:    406802,
		ChargeUSDT:   4961,
		ExchangeRate: "82",
		Status:       string(transaction.StatusVerification),
		ClaimedBy:    &operator,
		ClaimedAt:    &now,
		CreatedAt:    now,
	}
	store.Seed(read)
	return read
}

func TestAccept_CreditsAndActivates(t *testing.T) {
	operator := uuid.New()
	svc, store, bus := newService(t, nil)
	tx := seedClaimed(store, operator)

	read, err := svc.Accept(context.Background(), tx.ID, operator, "receipt-blob")
	require.NoError(t, err)
	assert.Equal(t, string(transaction.StatusActive), read.Status)
	assert.Nil(t, read.ClaimedBy)
	assert.NotNil(t, read.ConfirmedAt)

	bal := store.Balance(tx.UserID)
	assert.Equal(t, int64(4961), bal.USDT)
	assert.Equal(t, int64(406802), bal.RUB)
	assert.Equal(t, 1, store.EntryCount())

	require.Len(t, bus.Published(), 1)
	settled, ok := bus.Published()[0].(events.TransactionSettled)
	require.True(t, ok)
	assert.Equal(t, int64(4961), settled.ChargeUSDT)
}

func TestAccept_RetryAfterSettlementIsAlreadySettled(t *testing.T) {
	operator := uuid.New()
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, operator)

	_, err := svc.Accept(context.Background(), tx.ID, operator, "receipt-blob")
	require.NoError(t, err)

	// blind retry after e.g. a dropped response
	read, err := svc.Accept(context.Background(), tx.ID, operator, "receipt-blob")
	require.ErrorIs(t, err, domain.ErrAlreadySettled)
	require.NotNil(t, read)
	assert.Equal(t, string(transaction.StatusActive), read.Status)

	// the credit happened exactly once
	bal := store.Balance(tx.UserID)
	assert.Equal(t, int64(4961), bal.USDT)
	assert.Equal(t, 1, store.EntryCount())
}

func TestAccept_EmptyReceipt(t *testing.T) {
	operator := uuid.New()
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, operator)

	_, err := svc.Accept(context.Background(), tx.ID, operator, "")
	require.ErrorIs(t, err, domain.ErrEmptyReceipt)

	cur, _ := store.Transaction(tx.ID)
	assert.Equal(t, string(transaction.StatusVerification), cur.Status)
	assert.Equal(t, 0, store.EntryCount())
}

func TestAccept_RequiresOwnership(t *testing.T) {
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, uuid.New())

	_, err := svc.Accept(context.Background(), tx.ID, uuid.New(), "receipt-blob")
	require.ErrorIs(t, err, domain.ErrNotOwner)
	assert.Equal(t, 0, store.EntryCount())
}

func TestAccept_InvalidReceiptCancelsWithoutCredit(t *testing.T) {
	operator := uuid.New()
	svc, store, bus := newService(t, stubPolicy{valid: false})
	tx := seedClaimed(store, operator)

	read, err := svc.Accept(context.Background(), tx.ID, operator, "forged-blob")
	require.NoError(t, err)
	assert.Equal(t, string(transaction.StatusCancelled), read.Status)
	assert.Equal(t, settlement.CancelReasonInvalidReceipt, read.Reason)
	assert.Nil(t, read.ClaimedBy)

	assert.Equal(t, int64(0), store.Balance(tx.UserID).USDT)
	assert.Equal(t, 0, store.EntryCount())

	require.Len(t, bus.Published(), 1)
	cancelled, ok := bus.Published()[0].(events.TransactionCancelled)
	require.True(t, ok)
	assert.Equal(t, settlement.CancelReasonInvalidReceipt, cancelled.Reason)
}

func TestAccept_ValidationErrorRollsBack(t *testing.T) {
	operator := uuid.New()
	svc, store, bus := newService(t, stubPolicy{err: fmt.Errorf("verifier unreachable")})
	tx := seedClaimed(store, operator)

	_, err := svc.Accept(context.Background(), tx.ID, operator, "receipt-blob")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrWrongState)

	// the attempt left no trace: still claimed, still VERIFICATION
	cur, _ := store.Transaction(tx.ID)
	assert.Equal(t, string(transaction.StatusVerification), cur.Status)
	require.NotNil(t, cur.ClaimedBy)
	assert.Equal(t, operator, *cur.ClaimedBy)
	assert.Equal(t, 0, store.EntryCount())
	assert.Empty(t, bus.Published())

	// and the retry can still settle
	read, err := svc.Accept(context.Background(), tx.ID, operator, "receipt-blob")
	require.NoError(t, err)
	assert.Equal(t, string(transaction.StatusActive), read.Status)
}

func TestReject_CancelsWithoutCredit(t *testing.T) {
	operator := uuid.New()
	svc, store, bus := newService(t, nil)
	tx := seedClaimed(store, operator)

	read, err := svc.Reject(context.Background(), tx.ID, operator, "amount mismatch", "")
	require.NoError(t, err)
	assert.Equal(t, string(transaction.StatusCancelled), read.Status)
	assert.Equal(t, "amount mismatch", read.Reason)
	assert.Nil(t, read.ClaimedBy)

	assert.Equal(t, int64(0), store.Balance(tx.UserID).RUB)
	assert.Equal(t, 0, store.EntryCount())
	require.Len(t, bus.Published(), 1)
}

func TestReject_EmptyReason(t *testing.T) {
	operator := uuid.New()
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, operator)

	_, err := svc.Reject(context.Background(), tx.ID, operator, "", "")
	require.ErrorIs(t, err, domain.ErrEmptyReason)

	cur, _ := store.Transaction(tx.ID)
	assert.Equal(t, string(transaction.StatusVerification), cur.Status)
}

func TestReject_AfterSettlementIsAlreadySettled(t *testing.T) {
	operator := uuid.New()
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, operator)

	_, err := svc.Accept(context.Background(), tx.ID, operator, "receipt-blob")
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), tx.ID, operator, "changed my mind", "")
	require.ErrorIs(t, err, domain.ErrAlreadySettled)
	assert.Equal(t, int64(4961), store.Balance(tx.UserID).USDT)
}

func TestReject_StoresEvidence(t *testing.T) {
	operator := uuid.New()
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, operator)

	_, err := svc.Reject(context.Background(), tx.ID, operator, "forged receipt", "suspicious-blob")
	require.NoError(t, err)

	err = store.Do(context.Background(), func(uow repository.UnitOfWork) error {
		receipts, err := uow.ReceiptRepository()
		if err != nil {
			return err
		}
		rows, err := receipts.ListByTransaction(context.Background(), tx.ID)
		if err != nil {
			return err
		}
		require.Len(t, rows, 1)
		assert.Equal(t, "suspicious-blob", rows[0].Blob)
		return nil
	})
	require.NoError(t, err)
}

func TestArchive_MovesActiveToHistory(t *testing.T) {
	operator := uuid.New()
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, operator)

	_, err := svc.Accept(context.Background(), tx.ID, operator, "receipt-blob")
	require.NoError(t, err)

	read, err := svc.Archive(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, string(transaction.StatusHistory), read.Status)

	// archival never touches the balance
	assert.Equal(t, 1, store.EntryCount())
}

func TestArchive_RejectsNonActive(t *testing.T) {
	svc, store, _ := newService(t, nil)
	tx := seedClaimed(store, uuid.New())

	_, err := svc.Archive(context.Background(), tx.ID)
	require.ErrorIs(t, err, domain.ErrWrongState)
}

func TestAccept_NotFound(t *testing.T) {
	svc, _, _ := newService(t, nil)
	_, err := svc.Accept(context.Background(), uuid.New(), uuid.New(), "receipt-blob")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
