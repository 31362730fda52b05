package sdk

import "time"

// LedgerInterval is the nominal close time of one ledger.
const LedgerInterval = 5 * time.Second

// LedgersPerDay is 24h expressed in ledgers.
const LedgersPerDay uint32 = uint32(24 * time.Hour / LedgerInterval)

// MinTemporaryLease is the lease a temporary entry receives when it is first
// written without an explicit extension.
const MinTemporaryLease uint32 = 16

// Clock reports the current ledger sequence.
type Clock interface {
	Ledger() uint32
}

// WallClock derives the ledger sequence from wall time.
type WallClock struct {
	Now func() time.Time
}

// Ledger returns unix time divided into LedgerInterval buckets.
func (c WallClock) Ledger() uint32 {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return uint32(now().Unix() / int64(LedgerInterval/time.Second))
}

// LedgersFor converts a duration to ledgers, rounding up.
func LedgersFor(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	n := d / LedgerInterval
	if d%LedgerInterval != 0 {
		n++
	}
	return uint32(n)
}
