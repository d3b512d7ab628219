package upgrade

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/MarcelWeber/TeamPilot/internal/pkg/cache"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/env"
	"github.com/google/uuid"
)

const checkoutLockKeyPrefix = "checkout_lock:"

// Locker serializes checkout attempts per organization. One acquired lock
// means one open checkout; everything else is refused until release or TTL.
type Locker interface {
	Acquire(orgID uint) (bool, error)
	Release(orgID uint) error
}

type redisLocker struct {
	ttl time.Duration

	mu sync.Mutex
	// tokens remembers the fencing token of each lock this process holds.
	// Release only deletes the key while it still carries our token, so a
	// release arriving after the TTL expired cannot remove a lock a newer
	// checkout acquired in the meantime.
	tokens map[uint]string
}

// NewRedisLocker builds the Redis-backed checkout lock. The TTL bounds how
// long an abandoned checkout can block new attempts.
func NewRedisLocker() Locker {
	minutes, err := strconv.Atoi(env.GetEnv("CHECKOUT_LOCK_TTL_MIN", "30"))
	if err != nil || minutes <= 0 {
		minutes = 30
	}
	return &redisLocker{
		ttl:    time.Duration(minutes) * time.Minute,
		tokens: make(map[uint]string),
	}
}

func (l *redisLocker) Acquire(orgID uint) (bool, error) {
	key := fmt.Sprintf("%s%d", checkoutLockKeyPrefix, orgID)
	token := uuid.New().String()
	ok, err := cache.SetNX(key, token, l.ttl)
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.tokens[orgID] = token
	l.mu.Unlock()
	return true, nil
}

func (l *redisLocker) Release(orgID uint) error {
	l.mu.Lock()
	token, ok := l.tokens[orgID]
	delete(l.tokens, orgID)
	l.mu.Unlock()
	if !ok {
		// Never acquired by this process (or already released); leave the
		// key to its owner or the TTL.
		return nil
	}
	_, err := cache.DeleteIfEquals(fmt.Sprintf("%s%d", checkoutLockKeyPrefix, orgID), token)
	return err
}
