package prompts

import (
	"testing"
)

// countingStore wraps a Store and counts Load calls.
type countingStore struct {
	inner Store
	loads int
}

func (s *countingStore) Load(name string) (*Template, error) {
	s.loads++
	return s.inner.Load(name)
}

func (s *countingStore) List() ([]string, error) {
	return s.inner.List()
}

func TestCacheResolveReadsStoreOnce(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "helpful", "You are a helpful assistant.")

	store := &countingStore{inner: NewFileStore(root)}
	cache, err := NewCache(store, 4, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	first, err := cache.Resolve("helpful")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := cache.Resolve("helpful")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	if store.loads != 1 {
		t.Errorf("expected 1 store load, got %d", store.loads)
	}
	if first.Body != second.Body {
		t.Errorf("cached template differs: %q vs %q", first.Body, second.Body)
	}
}

func TestCacheResolveNotFound(t *testing.T) {
	store := &countingStore{inner: NewFileStore(t.TempDir())}
	cache, err := NewCache(store, 4, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	if _, err := cache.Resolve("missing"); err == nil {
		t.Fatal("expected error for missing template")
	}

	// Failed lookups must not be cached.
	if _, err := cache.Resolve("missing"); err == nil {
		t.Fatal("expected error on second lookup")
	}
	if store.loads != 2 {
		t.Errorf("expected 2 store loads, got %d", store.loads)
	}
}

func TestCacheEvict(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "helpful", "old body")

	store := &countingStore{inner: NewFileStore(root)}
	cache, err := NewCache(store, 4, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	if _, err := cache.Resolve("helpful"); err != nil {
		t.Fatal(err)
	}

	writeTemplate(t, root, "helpful", "new body")
	cache.Evict("helpful")

	tmpl, err := cache.Resolve("helpful")
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Body != "new body" {
		t.Errorf("expected re-read after eviction, got %q", tmpl.Body)
	}
	if store.loads != 2 {
		t.Errorf("expected 2 store loads, got %d", store.loads)
	}
}

func TestCacheCapacityEviction(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "a", "a")
	writeTemplate(t, root, "b", "b")
	writeTemplate(t, root, "c", "c")

	store := &countingStore{inner: NewFileStore(root)}
	cache, err := NewCache(store, 2, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	for _, name := range []string{"a", "b", "c"} {
		if _, err := cache.Resolve(name); err != nil {
			t.Fatal(err)
		}
	}

	if cache.Len() != 2 {
		t.Errorf("expected cache length 2, got %d", cache.Len())
	}

	// "a" was least recently used and evicted, so it is re-read.
	if _, err := cache.Resolve("a"); err != nil {
		t.Fatal(err)
	}
	if store.loads != 4 {
		t.Errorf("expected 4 store loads, got %d", store.loads)
	}
}

type fakeMetrics struct {
	hits   int
	misses int
	size   int
}

func (m *fakeMetrics) RecordCacheHit(string)      { m.hits++ }
func (m *fakeMetrics) RecordCacheMiss(string)     { m.misses++ }
func (m *fakeMetrics) UpdateCacheSize(_ string, size int) { m.size = size }

func TestCacheMetrics(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "helpful", "body")

	m := &fakeMetrics{}
	cache, err := NewCache(NewFileStore(root), 4, m)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	cache.Resolve("helpful")
	cache.Resolve("helpful")

	if m.misses != 1 {
		t.Errorf("expected 1 miss, got %d", m.misses)
	}
	if m.hits != 1 {
		t.Errorf("expected 1 hit, got %d", m.hits)
	}
	if m.size != 1 {
		t.Errorf("expected size 1, got %d", m.size)
	}
}
