package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"

	"github.com/lategardener/morpion-RL/config"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	var mu sync.Mutex
	calls := 0
	lf := func(cfg *config.Config, key string) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return "policy:" + key, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obj, err := Load(cfg, "test:once", lf)
			is.NoErr(err)
			is.Equal(obj.(string), "policy:test:once")
		}()
	}
	wg.Wait()
	is.Equal(calls, 1)

	Evict("test:once")
	_, err := Load(cfg, "test:once", lf)
	is.NoErr(err)
	is.Equal(calls, 2)
}

func TestLoadErrorIsNotCached(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	fail := true
	lf := func(cfg *config.Config, key string) (any, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return 42, nil
	}
	_, err := Load(cfg, "test:err", lf)
	is.True(err != nil)
	fail = false
	obj, err := Load(cfg, "test:err", lf)
	is.NoErr(err)
	is.Equal(obj.(int), 42)
}
