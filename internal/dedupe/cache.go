package dedupe

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TitleCache remembers outbreak titles already reconciled with the store so
// repeated syncs can skip the existence query.  A miss always falls through
// to the store check.  Titles are keyed after trimming, matching how the
// synchronizer compares them.
type TitleCache struct {
	// mu makes the expiry check and removal in Known atomic.
	mu      sync.Mutex
	entries *lru.Cache[string, time.Time]
	ttl     time.Duration
	now     func() time.Time
}

// NewTitleCache returns a cache holding at most capacity titles, each for
// ttl after it was last remembered.
func NewTitleCache(capacity int, ttl time.Duration) *TitleCache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	// New only fails for a non-positive size.
	entries, _ := lru.New[string, time.Time](capacity)
	return &TitleCache{entries: entries, ttl: ttl, now: time.Now}
}

// Known reports whether title was remembered and has not expired.
// A nil cache knows nothing.
func (c *TitleCache) Known(title string) bool {
	if c == nil {
		return false
	}
	key := strings.TrimSpace(title)

	c.mu.Lock()
	defer c.mu.Unlock()

	expires, ok := c.entries.Get(key)
	if !ok {
		return false
	}
	if !c.now().Before(expires) {
		c.entries.Remove(key)
		return false
	}
	return true
}

// Remember records that title is stored.
func (c *TitleCache) Remember(title string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(strings.TrimSpace(title), c.now().Add(c.ttl))
}

// Len reports how many titles are retained, expired ones included until
// they are next looked up or evicted.
func (c *TitleCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
