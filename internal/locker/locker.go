package locker

import (
	"context"
	"sync"
	"time"

	"github.com/marketpay/marketpay/internal/config"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/logger"
	"github.com/marketpay/marketpay/internal/types"
)

// Lease is proof of holding a key. Release requires the matching token, so
// only the caller that acquired a key can free it; a stale lease is a no-op.
type Lease struct {
	Key       string
	Token     string
	ExpiresAt time.Time
}

// Locker grants mutually exclusive access to a logical key (a shop id) for
// the duration of a payment-mutating operation.
//
// The lock is process-local and in-memory. A horizontally scaled deployment
// must replace this with a distributed mutex (e.g. a database advisory lock
// keyed by shop id) to keep the same guarantee across instances.
type Locker interface {
	// Acquire suspends the caller until no live holder is registered for key,
	// then registers the caller and returns its lease. The wait is aborted
	// when ctx is cancelled.
	Acquire(ctx context.Context, key string) (*Lease, error)

	// Release frees the key held by lease. Releasing an unheld key or
	// presenting a stale token is a no-op.
	Release(lease *Lease)
}

type holder struct {
	token     string
	expiresAt time.Time
	// released is closed exactly once, either by Release with a matching
	// token or by the waiter that reclaims the key after lease expiry
	released chan struct{}
}

// Manager is the in-memory Locker implementation. Waiters park on the
// current holder's release channel instead of polling, and additionally wake
// on lease expiry so a crashed holder cannot starve a key forever.
type Manager struct {
	mu     sync.Mutex
	held   map[string]*holder
	ttl    time.Duration
	logger *logger.Logger
}

// DefaultLeaseTTL is used when the configured TTL is zero
const DefaultLeaseTTL = 30 * time.Second

func NewManager(cfg *config.Configuration, logger *logger.Logger) *Manager {
	ttl := cfg.Lock.TTL
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &Manager{
		held:   make(map[string]*holder),
		ttl:    ttl,
		logger: logger,
	}
}

func (m *Manager) Acquire(ctx context.Context, key string) (*Lease, error) {
	if key == "" {
		return nil, ierr.NewError("lock key is required").
			WithHint("Shop id is required to serialize payment operations").
			Mark(ierr.ErrValidation)
	}

	for {
		m.mu.Lock()
		now := time.Now()
		h, ok := m.held[key]
		if ok && now.After(h.expiresAt) {
			// holder never released within its lease, reclaim the key
			m.logger.Warnw("reclaiming expired lock lease",
				"key", key,
				"expired_at", h.expiresAt,
			)
			close(h.released)
			ok = false
		}
		if !ok {
			lease := &Lease{
				Key:       key,
				Token:     types.GenerateUUID(),
				ExpiresAt: now.Add(m.ttl),
			}
			m.held[key] = &holder{
				token:     lease.Token,
				expiresAt: lease.ExpiresAt,
				released:  make(chan struct{}),
			}
			m.mu.Unlock()

			m.logger.Debugw("lock acquired", "key", key, "token", lease.Token)
			return lease, nil
		}

		released := h.released
		wait := time.Until(h.expiresAt)
		m.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ierr.WithError(ctx.Err()).
				WithHintf("Gave up waiting for shop %s", key).
				Mark(ierr.ErrLockWait)
		case <-released:
			timer.Stop()
		case <-timer.C:
			// lease expired, loop around and race to reclaim. No fairness
			// is guaranteed among waiters for the same key.
		}
	}
}

func (m *Manager) Release(lease *Lease) {
	if lease == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.held[lease.Key]
	if !ok {
		m.logger.Debugw("release of unheld lock key", "key", lease.Key)
		return
	}
	if h.token != lease.Token {
		// the key was reclaimed and re-acquired while this lease was live
		m.logger.Warnw("stale lock release ignored",
			"key", lease.Key,
			"token", lease.Token,
		)
		return
	}

	delete(m.held, lease.Key)
	close(h.released)
	m.logger.Debugw("lock released", "key", lease.Key, "token", lease.Token)
}

// Held reports whether key currently has a live holder, used for
// diagnosing leaks
func (m *Manager) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.held[key]
	return ok && time.Now().Before(h.expiresAt)
}
