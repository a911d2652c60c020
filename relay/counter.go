package relay

import (
	"hash/fnv"
	"sync"
)

const counterShards = 16

// Counter tracks the per-conversation exchange count. Increments for the
// same key are linearized, so every value it hands out is observed exactly
// once; unrelated conversations land on different shards and do not
// contend. Entries live for the process lifetime.
type Counter struct {
	shards [counterShards]counterShard
}

type counterShard struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewCounter() *Counter {
	c := &Counter{}
	for i := range c.shards {
		c.shards[i].counts = make(map[string]int64)
	}
	return c
}

// Inc increments the count for key and returns the new value.
func (c *Counter) Inc(key string) int64 {
	s := &c.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key]
}

// Get returns the current count for key without incrementing.
func (c *Counter) Get(key string) int64 {
	s := &c.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key]
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % counterShards
}
