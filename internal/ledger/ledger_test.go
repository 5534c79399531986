package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

func record(i int) domain.TradeRecord {
	return domain.TradeRecord{
		ID:     fmt.Sprintf("trade-%03d", i),
		Action: domain.ActionBuy,
		Venue:  "okx",
		Mode:   domain.ModeSimulation,
	}
}

func TestLedger(t *testing.T) {
	t.Run("recent returns newest in insertion order", func(t *testing.T) {
		l := New(100)
		for i := 0; i < 15; i++ {
			l.Append(record(i))
		}
		got := l.Recent(10)
		require.Len(t, got, 10)
		assert.Equal(t, "trade-005", got[0].ID)
		assert.Equal(t, "trade-014", got[9].ID)
	})

	t.Run("recent on empty ledger", func(t *testing.T) {
		l := New(100)
		assert.Empty(t, l.Recent(10))
		assert.Zero(t, l.Len())
	})

	t.Run("recent beyond length returns all", func(t *testing.T) {
		l := New(100)
		l.Append(record(0))
		l.Append(record(1))
		got := l.Recent(50)
		require.Len(t, got, 2)
		assert.Equal(t, "trade-000", got[0].ID)
	})

	t.Run("cap evicts oldest", func(t *testing.T) {
		l := New(5)
		for i := 0; i < 8; i++ {
			l.Append(record(i))
		}
		assert.Equal(t, 5, l.Len())
		got := l.Recent(5)
		assert.Equal(t, "trade-003", got[0].ID)
		assert.Equal(t, "trade-007", got[4].ID)
	})

	t.Run("non-positive cap uses default", func(t *testing.T) {
		l := New(0)
		for i := 0; i < DefaultMaxRecords+10; i++ {
			l.Append(record(i))
		}
		assert.Equal(t, DefaultMaxRecords, l.Len())
	})

	t.Run("recent copies are independent", func(t *testing.T) {
		l := New(100)
		l.Append(record(0))
		got := l.Recent(1)
		got[0].ID = "mutated"
		assert.Equal(t, "trade-000", l.Recent(1)[0].ID)
	})
}
