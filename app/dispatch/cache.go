package dispatch

import (
	"sync"

	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

// StatusCache is the in-process read-through shortcut for transaction
// status polls. The store stays authoritative: a terminal status, once
// cached, is never downgraded by a stale non-terminal write.
type StatusCache struct {
	mu       sync.RWMutex
	statuses map[string]string
}

func NewStatusCache() *StatusCache {
	return &StatusCache{statuses: make(map[string]string)}
}

func (c *StatusCache) Get(checkoutID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status, ok := c.statuses[checkoutID]
	return status, ok
}

func (c *StatusCache) Set(checkoutID, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.statuses[checkoutID]; ok && types.IsTerminalStatus(current) && !types.IsTerminalStatus(status) {
		return
	}
	c.statuses[checkoutID] = status
}
