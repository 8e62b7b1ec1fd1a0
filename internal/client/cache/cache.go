// Package cache keeps the last known stake and strategy catalog of the
// current account. Readers always get a complete snapshot; refetches for the
// same account are collapsed into one load.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"golang.org/x/sync/singleflight"
)

// ErrAccountChanged is returned by Refresh when the account was reset while
// the load was running. The loaded data is discarded.
var ErrAccountChanged = errors.New("account changed during refresh")

// Snapshot is an immutable view of the cached state.
type Snapshot struct {
	Address    string
	Stake      *models.UserStake
	Strategies []models.YieldStrategy
	FetchedAt  time.Time
}

// Loader fetches fresh state for address.
type Loader func(ctx context.Context, address string) (*Snapshot, error)

type StakeCache struct {
	snap atomic.Pointer[Snapshot]
	sf   singleflight.Group

	mu      sync.Mutex
	address string
	epoch   uint64 // bumped on account change
	gen     uint64 // bumped on account change and on every invalidation
	stale   bool
}

func New() *StakeCache {
	return &StakeCache{}
}

// Snapshot returns the last complete snapshot, or nil.
func (c *StakeCache) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Address is the account the cache currently belongs to.
func (c *StakeCache) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

// Stale reports whether the snapshot was invalidated and not yet refetched.
func (c *StakeCache) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale || c.snap.Load() == nil
}

// Get returns the snapshot for address, loading it when missing or stale.
func (c *StakeCache) Get(ctx context.Context, address string, load Loader) (*Snapshot, error) {
	if s := c.snap.Load(); s != nil && s.Address == address && !c.Stale() {
		return s, nil
	}
	return c.Refresh(ctx, address, load)
}

// Refresh loads address and publishes the result. Concurrent refreshes of
// the same account share one load. A load that started before the latest
// Invalidate returns its data to its callers but is never published.
func (c *StakeCache) Refresh(ctx context.Context, address string, load Loader) (*Snapshot, error) {
	c.mu.Lock()
	if c.address != address {
		c.resetLocked(address)
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do(address, func() (any, error) {
		c.mu.Lock()
		if c.address != address {
			c.mu.Unlock()
			return nil, ErrAccountChanged
		}
		epoch, gen := c.epoch, c.gen
		c.mu.Unlock()

		s, err := load(ctx, address)
		if err != nil {
			return nil, err
		}
		cp := *s
		cp.Address = address
		cp.Strategies = append([]models.YieldStrategy(nil), s.Strategies...)
		if s.Stake != nil {
			st := *s.Stake
			cp.Stake = &st
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.epoch != epoch {
			return nil, ErrAccountChanged
		}
		if c.gen != gen {
			return &cp, nil
		}
		c.snap.Store(&cp)
		c.stale = false
		return &cp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate marks the snapshot stale; the next Get refetches. Readers keep
// seeing the old snapshot until then. Loads already in flight can no longer
// publish, and the next Refresh starts a fresh one instead of joining them.
func (c *StakeCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stale = true
	if c.address != "" {
		c.sf.Forget(c.address)
	}
}

// Reset drops everything and binds the cache to address ("" for none).
func (c *StakeCache) Reset(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(address)
}

func (c *StakeCache) resetLocked(address string) {
	if c.address != "" {
		c.sf.Forget(c.address)
	}
	c.address = address
	c.epoch++
	c.gen++
	c.stale = true
	c.snap.Store(nil)
}
