// Package store provides read/write access to the single collection document
// with graceful degradation when the durable binding misbehaves.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/katevors/figvault/internal/catalog"
	"github.com/katevors/figvault/internal/kv"
	"github.com/katevors/figvault/internal/metrics"
	"github.com/katevors/figvault/internal/publisher"
)

// UpdateEvent is published after each successful save.
type UpdateEvent struct {
	Owned     int       `json:"owned"`
	Wishlist  int       `json:"wishlist"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CollectionStore wraps a kv.Provider with a per-process cache, default
// seeding, and change notification.
//
// The cache is per-instance only. When several instances run concurrently the
// durable provider is the sole cross-instance source of truth, and a write may
// not be visible to a sibling instance until it reads the provider again.
type CollectionStore struct {
	provider kv.Provider
	key      string
	logger   *zap.Logger
	events   publisher.Publisher
	topic    string

	mu    sync.RWMutex
	cache *catalog.Collection

	now func() time.Time
}

// Option customizes a CollectionStore.
type Option func(*CollectionStore)

// WithPublisher attaches a change publisher. Publish failures are logged and
// never fail a save.
func WithPublisher(p publisher.Publisher, topic string) Option {
	return func(s *CollectionStore) {
		s.events = p
		s.topic = topic
	}
}

// New builds a CollectionStore over the given provider and document key.
func New(provider kv.Provider, key string, logger *zap.Logger, opts ...Option) *CollectionStore {
	s := &CollectionStore{
		provider: provider,
		key:      key,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the current collection.
//
// A read that fails with kv.ErrNotFound means the store has genuinely never
// been written: the builtin seed is persisted and returned. Any other read
// error is treated as transient: the last cached value (or the seed) is
// returned and nothing is written, so a healthy later read still sees
// whatever is durably stored.
func (s *CollectionStore) Load(ctx context.Context) catalog.Collection {
	data, err := s.provider.Get(ctx, s.key)
	switch {
	case err == nil:
		var doc catalog.Collection
		if unmarshalErr := json.Unmarshal(data, &doc); unmarshalErr != nil {
			s.logger.Warn("stored collection is unreadable, serving fallback",
				zap.Error(unmarshalErr))
			metrics.ObserveStoreOperation("load", "fallback")
			return s.fallback()
		}
		doc = catalog.Normalize(doc)
		s.setCache(doc)
		metrics.ObserveStoreOperation("load", "success")
		return doc

	case errors.Is(err, kv.ErrNotFound):
		if cached := s.cached(); cached != nil {
			return *cached
		}
		seed := catalog.Normalize(catalog.Seed())
		if data, marshalErr := json.Marshal(seed); marshalErr == nil {
			if putErr := s.provider.Put(ctx, s.key, data); putErr != nil {
				s.logger.Warn("unable to persist seed collection", zap.Error(putErr))
			}
		}
		s.setCache(seed)
		metrics.ObserveStoreOperation("load", "seed")
		return seed

	default:
		s.logger.Warn("collection read failed, serving fallback", zap.Error(err))
		metrics.ObserveStoreOperation("load", "fallback")
		return s.fallback()
	}
}

// Save compacts the payload, stamps updatedAt, writes through to the provider
// and always refreshes the cache so the process keeps read-your-writes
// consistency even when the durable write fails.
func (s *CollectionStore) Save(ctx context.Context, payload catalog.Collection) catalog.Collection {
	doc := catalog.Normalize(payload)
	now := s.now().UTC().Truncate(time.Second)
	doc.UpdatedAt = &now

	if data, err := json.Marshal(doc); err != nil {
		s.logger.Error("unable to marshal collection", zap.Error(err))
	} else if err := s.provider.Put(ctx, s.key, data); err != nil {
		s.logger.Warn("collection write failed, cache updated anyway", zap.Error(err))
		metrics.ObserveStoreOperation("save", "write_failed")
	} else {
		metrics.ObserveStoreOperation("save", "success")
	}

	s.setCache(doc)
	s.publish(ctx, doc)
	return doc
}

func (s *CollectionStore) publish(ctx context.Context, doc catalog.Collection) {
	if s.events == nil {
		return
	}
	event := UpdateEvent{
		Owned:    len(doc.Owned),
		Wishlist: len(doc.Wishlist),
	}
	if doc.UpdatedAt != nil {
		event.UpdatedAt = *doc.UpdatedAt
	}
	if _, err := s.events.Publish(ctx, s.topic, event); err != nil {
		s.logger.Warn("collection update publish failed", zap.Error(err))
	}
}

// fallback serves the cache when present, otherwise the seed. It never writes:
// a transient provider fault must not overwrite durable data.
func (s *CollectionStore) fallback() catalog.Collection {
	if cached := s.cached(); cached != nil {
		return *cached
	}
	return catalog.Normalize(catalog.Seed())
}

func (s *CollectionStore) cached() *catalog.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

func (s *CollectionStore) setCache(doc catalog.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = &doc
}
