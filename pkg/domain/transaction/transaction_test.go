package transaction_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, amount float64, code money.Code) money.Money {
	t.Helper()
	m, err := money.New(amount, code)
	require.NoError(t, err)
	return m
}

func TestNew_CreatesPendingTransaction(t *testing.T) {
	userID := uuid.New()
	tx, err := transaction.New(
		userID,
		mustMoney(t, 4100, money.RUB),
		mustMoney(t, 50, money.USDT),
		mustMoney(t, 4068.02, money.RUB),
		mustMoney(t, 49.61, money.USDT),
		decimal.RequireFromString("82.0"),
	)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, tx.Status)
	assert.Equal(t, userID, tx.UserID)
	assert.Nil(t, tx.ClaimedBy)
	assert.Nil(t, tx.ConfirmedAt)
	assert.NotEqual(t, uuid.Nil, tx.ID)
}

func TestNew_RejectsChargeAboveAmount(t *testing.T) {
	_, err := transaction.New(
		uuid.New(),
		mustMoney(t, 4100, money.RUB),
		mustMoney(t, 50, money.USDT),
		mustMoney(t, 4100.01, money.RUB),
		mustMoney(t, 49.61, money.USDT),
		decimal.RequireFromString("82.0"),
	)
	require.Error(t, err)
}

func TestNew_RejectsNonPositiveRate(t *testing.T) {
	_, err := transaction.New(
		uuid.New(),
		mustMoney(t, 4100, money.RUB),
		mustMoney(t, 50, money.USDT),
		mustMoney(t, 4068.02, money.RUB),
		mustMoney(t, 49.61, money.USDT),
		decimal.Zero,
	)
	require.Error(t, err)
}

func TestIsClaimedBy(t *testing.T) {
	op := uuid.New()
	tx := &transaction.Transaction{}
	assert.False(t, tx.IsClaimedBy(op))
	tx.ClaimedBy = &op
	assert.True(t, tx.IsClaimedBy(op))
	assert.False(t, tx.IsClaimedBy(uuid.New()))
}

func TestReceipt_VerifiedAndFakeAreExclusive(t *testing.T) {
	r, err := transaction.NewReceipt(uuid.New(), uuid.New(), "receipt.png")
	require.NoError(t, err)

	r.MarkVerified()
	assert.True(t, r.IsVerified)
	assert.False(t, r.IsFake)

	r.MarkFake()
	assert.True(t, r.IsFake)
	assert.False(t, r.IsVerified)
}

func TestNewReceipt_RequiresBlob(t *testing.T) {
	_, err := transaction.NewReceipt(uuid.New(), uuid.New(), "")
	require.Error(t, err)
}
