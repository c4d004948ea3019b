package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-transfers/internal/model"
)

func TestLedger_Transfer(t *testing.T) {
	txns := NewLedger("alice").
		Transfer("checking", "savings", "250.00", Day(time.March, 3), Day(time.March, 4)).
		Add("checking", "-12.50", Day(time.March, 5), "Coffee").
		Build()

	require.Len(t, txns, 3)
	assert.Equal(t, "tx-1", txns[0].ID)
	assert.True(t, txns[0].IsOutgoing())
	assert.True(t, txns[1].IsIncoming())
	assert.Equal(t, "savings", txns[1].AccountID)
	assert.True(t, txns[0].CreatedAt.Before(txns[1].CreatedAt))
}

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t, NewLedger("alice").
		Transfer("checking", "savings", "100", Day(time.January, 2), Day(time.January, 2)).
		Build())

	txn := db.MustGet("alice", "tx-2")
	assert.Equal(t, "savings", txn.AccountID)

	all := db.Uncategorized("alice", model.DayRange(Day(time.January, 1), Day(time.January, 31)))
	assert.Len(t, all, 2)
}
