package storage

import (
	"sync"
	"sync/atomic"
	"time"
)

// expiry holds the retention settings and cleanup cadence shared by the
// persistent stores.
type expiry struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	cleanupMu   sync.Mutex
	lastCleanup atomic.Int64
}

func newExpiry(opts Options) *expiry {
	e := &expiry{
		ttl:             opts.RecordTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	e.lastCleanup.Store(time.Now().Unix())
	return e
}

// maybeCleanup runs purge at most once per cleanup interval.
func (e *expiry) maybeCleanup(now time.Time, purge func(time.Time) error) error {
	if now.Sub(time.Unix(e.lastCleanup.Load(), 0)) < e.cleanupInterval {
		return nil
	}

	e.cleanupMu.Lock()
	defer e.cleanupMu.Unlock()

	if now.Sub(time.Unix(e.lastCleanup.Load(), 0)) < e.cleanupInterval {
		return nil
	}
	if err := purge(now); err != nil {
		return err
	}
	e.lastCleanup.Store(now.Unix())
	return nil
}
