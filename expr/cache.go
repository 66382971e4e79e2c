package expr

import (
	"sync"

	"github.com/google/cel-go/cel"
)

// compiledProgram bundles a compiled CEL program together with the set of
// binding-variable identifiers it references, computed once at compile
// time so planner.GetBindingOrder never has to re-scan a program string.
type compiledProgram struct {
	program cel.Program
	refs    []string
}

const cacheShardCount = 16

// Cache is the compiled-program cache named in §4.5/§9: a
// concurrency-safe map, sharded across cacheShardCount buckets to reduce
// contention under concurrent compilation, unbounded in entry count (bounded
// only by the number of distinct program strings ever seen). Adapted from
// janus-datalog's planner.PlanCache shape (sync.RWMutex-guarded map with
// hit/miss counters); TTL and size-based eviction are dropped deliberately,
// since compiled programs are small. A Cache lives as long as its owner
// keeps it: ocpq.Evaluate creates a new one for each call, so compiled
// programs are not reused from one Evaluate call to the next.
type Cache struct {
	shards [cacheShardCount]cacheShard
	hits   int64
	misses int64
	mu     sync.Mutex // guards hits/misses only
}

type cacheShard struct {
	mu   sync.RWMutex
	data map[string]*compiledProgram
}

// NewCache returns an empty, ready-to-use Cache.
func NewCache() *Cache {
	c := &Cache{}
	for i := range c.shards {
		c.shards[i].data = make(map[string]*compiledProgram)
	}
	return c
}

func (c *Cache) shardFor(key string) *cacheShard {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return &c.shards[h%cacheShardCount]
}

func (c *Cache) get(program string) (*compiledProgram, bool) {
	s := c.shardFor(program)
	s.mu.RLock()
	v, ok := s.data[program]
	s.mu.RUnlock()
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return v, ok
}

func (c *Cache) set(program string, v *compiledProgram) {
	s := c.shardFor(program)
	s.mu.Lock()
	s.data[program] = v
	s.mu.Unlock()
}

// Stats reports cumulative hit/miss counts, mirroring PlanCache.Stats.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
