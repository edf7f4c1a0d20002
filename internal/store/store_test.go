package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/katevors/figvault/internal/catalog"
	"github.com/katevors/figvault/internal/kv"
	"github.com/katevors/figvault/internal/metrics"
	pubmemory "github.com/katevors/figvault/internal/publisher/memory"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

// flakyProvider wraps a memory provider with injectable failures and call
// counters.
type flakyProvider struct {
	inner   *kv.Memory
	getErr  error
	putErr  error
	getCall int
	putCall int
}

func newFlakyProvider() *flakyProvider {
	return &flakyProvider{inner: kv.NewMemory()}
}

func (p *flakyProvider) Get(ctx context.Context, key string) ([]byte, error) {
	p.getCall++
	if p.getErr != nil {
		return nil, p.getErr
	}
	return p.inner.Get(ctx, key)
}

func (p *flakyProvider) Put(ctx context.Context, key string, value []byte) error {
	p.putCall++
	if p.putErr != nil {
		return p.putErr
	}
	return p.inner.Put(ctx, key, value)
}

func TestLoadSeedsEmptyStore(t *testing.T) {
	t.Parallel()

	provider := newFlakyProvider()
	s := New(provider, "collection", zap.NewNop())

	doc := s.Load(context.Background())
	require.NotEmpty(t, doc.Owned, "expected builtin seed entries")
	require.Empty(t, doc.Wishlist)

	stored, err := provider.inner.Get(context.Background(), "collection")
	require.NoError(t, err, "seed must be persisted to an empty store")
	require.NotEmpty(t, stored)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	t.Parallel()

	provider := newFlakyProvider()
	s := New(provider, "collection", zap.NewNop())

	alt := " "
	id := catalog.ItemID(12345)
	saved := s.Save(context.Background(), catalog.Collection{
		Owned: []catalog.Entry{{
			Name:  " Test Figure ",
			Slug:  "test-figure",
			Tags:  catalog.TagList{" magical ", " girl "},
			MfcID: &id,
			Alt:   &alt,
		}},
		Wishlist: []catalog.Entry{},
	})
	require.NotNil(t, saved.UpdatedAt)

	// A fresh store over the same provider must read the persisted document.
	fresh := New(provider, "collection", zap.NewNop())
	doc := fresh.Load(context.Background())
	require.Len(t, doc.Owned, 1)
	require.Equal(t, "Test Figure", doc.Owned[0].Name)
	require.Equal(t, catalog.TagList{"magical", "girl"}, doc.Owned[0].Tags)
	require.Equal(t, catalog.ItemID(12345), *doc.Owned[0].MfcID)
	require.Equal(t, "", *doc.Owned[0].Alt)
	require.NotNil(t, doc.UpdatedAt)
}

func TestTransientReadFailureDoesNotWrite(t *testing.T) {
	t.Parallel()

	provider := newFlakyProvider()
	s := New(provider, "collection", zap.NewNop())

	// Persist real data first.
	s.Save(context.Background(), catalog.Collection{
		Owned:    []catalog.Entry{{Name: "Keeper", Slug: "keeper"}},
		Wishlist: []catalog.Entry{},
	})
	writesBefore := provider.putCall

	// A flaky read on a fresh instance must fall back without writing.
	fresh := New(provider, "collection", zap.NewNop())
	provider.getErr = errors.New("kv timeout")
	doc := fresh.Load(context.Background())
	require.NotNil(t, doc.Owned, "fallback document expected")
	require.Equal(t, writesBefore, provider.putCall, "a failed read must never trigger a write")

	// Once the store recovers the durable data is still there.
	provider.getErr = nil
	doc = fresh.Load(context.Background())
	require.Len(t, doc.Owned, 1)
	require.Equal(t, "Keeper", doc.Owned[0].Name)
}

func TestCorruptDocumentFallsBackWithoutWrite(t *testing.T) {
	t.Parallel()

	provider := newFlakyProvider()
	require.NoError(t, provider.inner.Put(context.Background(), "collection", []byte("{not json")))
	s := New(provider, "collection", zap.NewNop())

	doc := s.Load(context.Background())
	require.NotEmpty(t, doc.Owned, "seed fallback expected")
	require.Zero(t, provider.putCall, "corrupt data must not be overwritten")
}

func TestSaveKeepsCacheWhenWriteFails(t *testing.T) {
	t.Parallel()

	provider := newFlakyProvider()
	provider.putErr = errors.New("kv unavailable")
	s := New(provider, "collection", zap.NewNop())

	s.Save(context.Background(), catalog.Collection{
		Owned:    []catalog.Entry{{Name: "Cached Only", Slug: "cached-only"}},
		Wishlist: []catalog.Entry{},
	})

	// Reads within this process must see the write (read-your-writes).
	provider.getErr = errors.New("kv unavailable")
	doc := s.Load(context.Background())
	require.Len(t, doc.Owned, 1)
	require.Equal(t, "Cached Only", doc.Owned[0].Name)
}

func TestSavePublishesUpdateEvent(t *testing.T) {
	t.Parallel()

	provider := newFlakyProvider()
	pub := pubmemory.New()
	s := New(provider, "collection", zap.NewNop(), WithPublisher(pub, "collection-updated"))

	s.Save(context.Background(), catalog.Collection{
		Owned:    []catalog.Entry{{Name: "A", Slug: "a"}, {Name: "B", Slug: "b"}},
		Wishlist: []catalog.Entry{{Name: "C", Slug: "c"}},
	})

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "collection-updated", msgs[0].Topic)
	event, ok := msgs[0].Payload.(UpdateEvent)
	require.True(t, ok)
	require.Equal(t, 2, event.Owned)
	require.Equal(t, 1, event.Wishlist)
	require.WithinDuration(t, time.Now(), event.UpdatedAt, time.Minute)
}
