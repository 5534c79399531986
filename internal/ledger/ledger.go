// Package ledger keeps an in-memory, append-only record of executed trades.
package ledger

import (
	"sync"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// DefaultMaxRecords bounds a ledger when no explicit cap is given.
const DefaultMaxRecords = 1000

// Ledger is a bounded append-only trade log. When the cap is reached the
// oldest records are dropped; insertion order is preserved throughout.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.TradeRecord
	max     int
}

// New creates a ledger retaining at most max records. A non-positive max
// falls back to DefaultMaxRecords.
func New(max int) *Ledger {
	if max <= 0 {
		max = DefaultMaxRecords
	}
	return &Ledger{max: max}
}

// Append adds a record, evicting the oldest entries past the retention cap.
func (l *Ledger) Append(rec domain.TradeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	if len(l.records) > l.max {
		overflow := len(l.records) - l.max
		l.records = append(l.records[:0], l.records[overflow:]...)
	}
}

// Recent returns a copy of the most recent n records in insertion order.
// It returns all records when n exceeds the ledger length and an empty slice
// when the ledger is empty or n is non-positive.
func (l *Ledger) Recent(n int) []domain.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return []domain.TradeRecord{}
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	out := make([]domain.TradeRecord, n)
	copy(out, l.records[len(l.records)-n:])
	return out
}

// Len reports the number of retained records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

var _ domain.TradeLedger = (*Ledger)(nil)
