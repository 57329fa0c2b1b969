package guard

import (
	"sync"
	"time"
)

// ReplayLedger tracks consumed payment signatures for a bounded window so
// a signed assertion cannot be replayed while its challenge is still
// fresh. The window is keyed by signature rather than challenge nonce:
// the nonce is round-tripped but not part of the signed schema, so only
// the signature itself is bound to what the signer agreed to. Entries are
// pruned once they outlive the window; nothing is persisted.
type ReplayLedger struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

// NewReplayLedger creates a ledger with the given retention window.
func NewReplayLedger(window time.Duration) *ReplayLedger {
	return &ReplayLedger{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Consume marks a signature as used. It returns false when it was already
// consumed within the retention window.
func (l *ReplayLedger) Consume(signature string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if _, used := l.seen[signature]; used {
		return false
	}

	l.seen[signature] = now
	return true
}

// prune drops entries older than the window. A signature that old is
// rejected by the timestamp check anyway, so forgetting it is safe.
func (l *ReplayLedger) prune(now time.Time) {
	for signature, usedAt := range l.seen {
		if now.Sub(usedAt) > l.window {
			delete(l.seen, signature)
		}
	}
}
