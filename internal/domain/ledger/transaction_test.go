package ledger

import (
	"testing"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T) *client.B2CClient {
	t.Helper()
	c, err := client.NewB2CClient(uuid.New(), client.B2CProfile{
		Name:           "Rahim Uddin",
		Email:          "rahim@example.com",
		PassportNumber: "BX0001",
		Destination:    "Kuwait",
	}, client.ClientTypeSaudiKuwait, "", decimal.NewFromInt(1000), decimal.NewFromInt(200))
	require.NoError(t, err)
	return c
}

func TestNewTransaction(t *testing.T) {
	account := newAccount(t)
	date := time.Date(2024, 2, 10, 18, 30, 0, 0, time.UTC)

	t.Run("snapshots client fields", func(t *testing.T) {
		tx, err := NewTransaction(account, date, decimal.NewFromInt(300), decimal.Zero, " first ")

		require.NoError(t, err)
		assert.Equal(t, account.ID, tx.ClientID)
		assert.Equal(t, client.CategoryB2C, tx.ClientCategory)
		assert.Equal(t, "Rahim Uddin", tx.ClientName)
		assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), tx.Date)
		assert.Equal(t, "first", tx.Notes)
		assert.True(t, tx.Net().Equal(decimal.NewFromInt(300)))
	})

	t.Run("net may be negative", func(t *testing.T) {
		tx, err := NewTransaction(account, date, decimal.Zero, decimal.NewFromInt(40), "")

		require.NoError(t, err)
		assert.True(t, tx.Net().Equal(decimal.NewFromInt(-40)))
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := NewTransaction(account, date, decimal.NewFromInt(-1), decimal.Zero, "")
		assert.ErrorContains(t, err, "received_amount")

		_, err = NewTransaction(account, date, decimal.Zero, decimal.NewFromInt(-1), "")
		assert.ErrorContains(t, err, "refund_amount")
	})

	t.Run("rejects zero date", func(t *testing.T) {
		_, err := NewTransaction(account, time.Time{}, decimal.Zero, decimal.Zero, "")
		assert.ErrorContains(t, err, "date")
	})

	t.Run("rejects nil account", func(t *testing.T) {
		_, err := NewTransaction(nil, date, decimal.Zero, decimal.Zero, "")
		assert.Error(t, err)
	})
}

func TestTransaction_Amend(t *testing.T) {
	account := newAccount(t)

	t.Run("returns net delta", func(t *testing.T) {
		tx, err := NewTransaction(account, time.Now(), decimal.NewFromInt(300), decimal.Zero, "")
		require.NoError(t, err)

		refund := decimal.NewFromInt(50)
		delta, err := tx.Amend(Amendment{RefundAmount: &refund})

		require.NoError(t, err)
		assert.True(t, delta.Equal(decimal.NewFromInt(-50)))
		assert.True(t, tx.ReceivedAmount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, 1, tx.GetVersion())
	})

	t.Run("invalid patch leaves transaction unchanged", func(t *testing.T) {
		tx, err := NewTransaction(account, time.Now(), decimal.NewFromInt(300), decimal.Zero, "n")
		require.NoError(t, err)

		received := decimal.NewFromInt(-5)
		notes := "changed"
		_, err = tx.Amend(Amendment{ReceivedAmount: &received, Notes: &notes})

		assert.Error(t, err)
		assert.True(t, tx.ReceivedAmount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, "n", tx.Notes)
	})

	t.Run("updates date and notes", func(t *testing.T) {
		tx, err := NewTransaction(account, time.Now(), decimal.NewFromInt(1), decimal.Zero, "")
		require.NoError(t, err)
		date := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
		notes := "bank transfer"

		delta, err := tx.Amend(Amendment{Date: &date, Notes: &notes})

		require.NoError(t, err)
		assert.True(t, delta.IsZero())
		assert.Equal(t, date, tx.Date)
		assert.Equal(t, "bank transfer", tx.Notes)
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	_, err = ParseDate("01/06/2024")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}
