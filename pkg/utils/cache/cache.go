package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mpapenbr/shotrecord/log"
)

// based on github.com/kittpat1413/go-common/framework/cache/localcache/localcache.go

var ErrCacheMiss = errors.New("cache miss")

type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, error)
	Invalidate(ctx context.Context, key K)
}

type (
	Option[K comparable, V any] func(*LoaderCache[K, V])
	Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)
	entry[V any]                struct {
		data    V
		expires time.Time
	}
	// LoaderCache loads missing or expired entries with its loader.
	// Failed loads are not cached. The loader runs outside the lock,
	// concurrent misses of one key share a single load.
	LoaderCache[K comparable, V any] struct {
		mutex      sync.Mutex
		inflight   singleflight.Group
		items      map[K]entry[V]
		expiration time.Duration
		loader     Loader[K, V]
		log        *log.Logger
		now        func() time.Time
	}
)

func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *LoaderCache[K, V]) {
		c.expiration = expiration
	}
}

func WithLoader[K comparable, V any](l Loader[K, V]) Option[K, V] {
	return func(c *LoaderCache[K, V]) {
		c.loader = l
	}
}

func WithLogger[K comparable, V any](l *log.Logger) Option[K, V] {
	return func(c *LoaderCache[K, V]) {
		c.log = l
	}
}

func New[K comparable, V any](opts ...Option[K, V]) *LoaderCache[K, V] {
	c := &LoaderCache[K, V]{
		items:      make(map[K]entry[V]),
		expiration: 5 * time.Minute,
		log:        log.Default().Named("cache"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LoaderCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}
	var zero V
	if c.loader == nil {
		return zero, ErrCacheMiss
	}
	v, err, _ := c.inflight.Do(fmt.Sprintf("%#v", key), func() (any, error) {
		// a flight finishing between lookup and Do already stored the entry
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		return c.load(ctx, key)
	})
	if err != nil {
		return zero, err
	}
	//nolint:forcetypeassert // load returns V
	return v.(V), nil
}

func (c *LoaderCache[K, V]) lookup(key K) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if e, ok := c.items[key]; ok {
		if c.now().Before(e.expires) {
			return e.data, true
		}
		delete(c.items, key)
	}
	var zero V
	return zero, false
}

func (c *LoaderCache[K, V]) load(ctx context.Context, key K) (V, error) {
	c.log.Debug("loading entry", log.Any("key", key))
	v, err := c.loader(ctx, key)
	if err != nil {
		return v, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items[key] = entry[V]{data: v, expires: c.now().Add(c.expiration)}
	return v, nil
}

func (c *LoaderCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
	c.log.Debug("entry invalidated", log.Any("key", key), log.Int("remaining", len(c.items)))
}

func (c *LoaderCache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}
