package runtime

import (
	"sync"

	"chat-system/domain"
)

// channelLocks hands out one mutex per channel. Holding a channel's lock
// across append and broadcast is what makes broadcast order equal log order;
// independent channels get independent locks and never contend.
type channelLocks struct {
	mu    sync.Mutex
	locks map[domain.ChannelID]*sync.Mutex
}

func newChannelLocks() *channelLocks {
	return &channelLocks{locks: make(map[domain.ChannelID]*sync.Mutex)}
}

func (c *channelLocks) get(id domain.ChannelID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}

// forget releases the lock entry of a deleted channel.
func (c *channelLocks) forget(id domain.ChannelID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, id)
}
