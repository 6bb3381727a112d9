package submission_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/infra/eventbus"
	"github.com/obmenka/settlement/internal/fixtures/memstore"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/events"
	"github.com/obmenka/settlement/pkg/provider"
	"github.com/obmenka/settlement/pkg/service/submission"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRate struct{}

func (failingRate) Rate(context.Context) (decimal.Decimal, error) {
	return decimal.Decimal{}, fmt.Errorf("quote source down")
}

func newService(t *testing.T, commissionPercent float64) (*submission.Service, *memstore.Store, *eventbus.MemoryEventBus) {
	t.Helper()
	store := memstore.New()
	bus := eventbus.NewWithMemory(slog.Default())
	rates := provider.NewStaticRate(decimal.NewFromInt(82))
	return submission.NewService(store, rates, commissionPercent, bus, slog.Default()), store, bus
}

func mustUSDT(t *testing.T, amount float64) money.Money {
	t.Helper()
	m, err := money.New(amount, money.USDT)
	require.NoError(t, err)
	return m
}

func TestSubmit_SnapshotsRateAndCommission(t *testing.T) {
	svc, store, bus := newService(t, 0.78)
	user := uuid.New()

	read, err := svc.Submit(context.Background(), user, mustUSDT(t, 50))
	require.NoError(t, err)
	assert.Equal(t, string(transaction.StatusPending), read.Status)
	assert.Equal(t, user, read.UserID)

	// 50 USDT at 82 RUB/USDT, 0.78% commission
	assert.Equal(t, int64(5000), read.AmountUSDT)
	assert.Equal(t, int64(410000), read.AmountRUB)
	assert.Equal(t, int64(4961), read.ChargeUSDT)  // 49.61
	assert.Equal(t, int64(406802), read.ChargeRUB) // 4068.02
	assert.Equal(t, "82", read.ExchangeRate)

	// submission never touches the balance
	assert.Equal(t, 0, store.EntryCount())

	require.Len(t, bus.Published(), 1)
	submitted, ok := bus.Published()[0].(events.TransactionSubmitted)
	require.True(t, ok)
	assert.Equal(t, read.ID, submitted.TransactionID)
}

func TestSubmit_RoundsChargeHalfUp(t *testing.T) {
	// 33.33 USDT less 0.78% = 33.070026, rounds to 33.07
	svc, _, _ := newService(t, 0.78)

	read, err := svc.Submit(context.Background(), uuid.New(), mustUSDT(t, 33.33))
	require.NoError(t, err)
	assert.Equal(t, int64(3307), read.ChargeUSDT)
}

func TestSubmit_ZeroCommission(t *testing.T) {
	svc, _, _ := newService(t, 0)

	read, err := svc.Submit(context.Background(), uuid.New(), mustUSDT(t, 50))
	require.NoError(t, err)
	assert.Equal(t, read.AmountUSDT, read.ChargeUSDT)
	assert.Equal(t, read.AmountRUB, read.ChargeRUB)
}

func TestSubmit_RejectsFiatSide(t *testing.T) {
	svc, _, _ := newService(t, 0.78)

	rub, err := money.New(100, money.RUB)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), uuid.New(), rub)
	require.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestSubmit_RateProviderFailure(t *testing.T) {
	store := memstore.New()
	bus := eventbus.NewWithMemory(slog.Default())
	svc := submission.NewService(store, failingRate{}, 0.78, bus, slog.Default())

	_, err := svc.Submit(context.Background(), uuid.New(), mustUSDT(t, 50))
	require.Error(t, err)
	assert.Empty(t, bus.Published())
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newService(t, 0.78)
	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPending_OldestFirst(t *testing.T) {
	svc, _, _ := newService(t, 0.78)

	first, err := svc.Submit(context.Background(), uuid.New(), mustUSDT(t, 10))
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), uuid.New(), mustUSDT(t, 20))
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}

func TestListByUser(t *testing.T) {
	svc, _, _ := newService(t, 0.78)
	user := uuid.New()

	_, err := svc.Submit(context.Background(), user, mustUSDT(t, 10))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), uuid.New(), mustUSDT(t, 20))
	require.NoError(t, err)

	mine, err := svc.ListByUser(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, user, mine[0].UserID)
}
