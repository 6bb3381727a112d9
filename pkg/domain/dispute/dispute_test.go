package dispute_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain/dispute"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usdt(t *testing.T, amount float64) money.Money {
	t.Helper()
	m, err := money.New(amount, money.USDT)
	require.NoError(t, err)
	return m
}

func TestNew_StartsPendingAck(t *testing.T) {
	d, err := dispute.New(uuid.New(), usdt(t, 49.61), usdt(t, 45.00), "short payment")
	require.NoError(t, err)
	assert.Equal(t, dispute.StatePendingAck, d.State)
	assert.False(t, d.Acknowledged())
	assert.True(t, d.IsOpen())
}

func TestNew_Validation(t *testing.T) {
	txID := uuid.New()

	_, err := dispute.New(txID, usdt(t, 49.61), usdt(t, 45.00), "")
	require.Error(t, err, "empty reason")

	rub, _ := money.New(100, money.RUB)
	_, err = dispute.New(txID, usdt(t, 49.61), rub, "currency mix")
	assert.ErrorIs(t, err, money.ErrMismatchedCurrencies)

	_, err = dispute.New(txID, usdt(t, 49.61), usdt(t, 49.61), "no change")
	require.Error(t, err, "proposal equal to original")
}

func TestDelta_CanBeNegativeOrPositive(t *testing.T) {
	d, err := dispute.New(uuid.New(), usdt(t, 49.61), usdt(t, 45.00), "short payment")
	require.NoError(t, err)
	assert.Equal(t, int64(-461), d.Delta().Amount())

	// increases beyond the settled amount are allowed
	up, err := dispute.New(uuid.New(), usdt(t, 49.61), usdt(t, 60.00), "underpaid credit")
	require.NoError(t, err)
	assert.Equal(t, int64(1039), up.Delta().Amount())
}

func TestAcknowledged_RequiresBothParties(t *testing.T) {
	d, err := dispute.New(uuid.New(), usdt(t, 49.61), usdt(t, 45.00), "short payment")
	require.NoError(t, err)

	d.SenderAck = true
	assert.False(t, d.Acknowledged())
	d.RecipientAck = true
	assert.True(t, d.Acknowledged())
}
