package domain

// TradeLedger is the append-only store of executed (or simulated) legs.
// Insertion order is the only ordering; bounded retention may drop the oldest
// records but must preserve the relative order of what remains.
type TradeLedger interface {
	// Append adds one record. Records are never edited or removed except by
	// the retention policy.
	Append(record TradeRecord)

	// Recent returns the last n records in insertion order. It returns an
	// empty slice, not an error, when the ledger holds fewer than n.
	Recent(n int) []TradeRecord

	// Len returns the number of currently retained records.
	Len() int
}
