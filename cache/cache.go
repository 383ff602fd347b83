// Package cache holds objects that are expensive to load and safe to share
// once loaded, such as frozen opponent policies. Each object is read once
// per process no matter how many episodes or goroutines ask for it.
package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lategardener/morpion-RL/config"
)

type loadFunc func(cfg *config.Config, key string) (any, error)

// entry is one key's slot. Its mutex is held while loading, so concurrent
// callers for the same key wait for one load; other keys aren't blocked.
type entry struct {
	sync.Mutex
	obj    any
	loaded bool
}

type cache struct {
	sync.Mutex
	entries map[string]*entry
}

// GlobalObjectCache is the process-wide cache.
var GlobalObjectCache *cache

var createOnce sync.Once

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{entries: make(map[string]*entry)}
}

func (c *cache) slot(key string) *entry {
	c.Lock()
	defer c.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *cache) get(cfg *config.Config, key string, lf loadFunc) (any, error) {
	e := c.slot(key)
	e.Lock()
	defer e.Unlock()
	if e.loaded {
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return e.obj, nil
	}
	log.Debug().Str("key", key).Msg("loading into cache")
	obj, err := lf(cfg, key)
	if err != nil {
		// Not remembered; the next caller tries again.
		return nil, err
	}
	e.obj, e.loaded = obj, true
	return obj, nil
}

func (c *cache) evict(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.entries, key)
}

func (c *cache) len() int {
	c.Lock()
	defer c.Unlock()
	n := 0
	for _, e := range c.entries {
		e.Lock()
		if e.loaded {
			n++
		}
		e.Unlock()
	}
	return n
}

func global() *cache {
	createOnce.Do(func() {
		if GlobalObjectCache == nil {
			CreateGlobalObjectCache()
		}
	})
	return GlobalObjectCache
}

// Load returns the object cached under name, calling loadFunc to create it
// the first time. Failed loads aren't cached.
func Load(cfg *config.Config, name string, loadFunc loadFunc) (any, error) {
	return global().get(cfg, name, loadFunc)
}

// Evict drops a cached object so the next Load reads it again.
func Evict(name string) {
	global().evict(name)
}

// Len is the number of loaded objects.
func Len() int {
	return global().len()
}
