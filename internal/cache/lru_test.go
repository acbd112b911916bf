package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRUGetAdd(t *testing.T) {
	c := NewLRU[string, int](2)

	if _, ok := c.Get("a"); ok {
		t.Error("Get on empty cache returned a value")
	}

	c.Add("a", 1)
	c.Add("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.Add("c", 3)

	if c.Contains("b") {
		t.Error("expected b to be evicted")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Error("expected a and c to survive")
	}
}

func TestLRUCapacityBound(t *testing.T) {
	c := NewLRU[int, int](128)
	for i := 0; i < 129; i++ {
		c.Add(i, i)
	}
	if c.Len() != 128 {
		t.Errorf("Len = %d, want 128", c.Len())
	}
	if c.Contains(0) {
		t.Error("expected key 0 (least recently used) to be evicted by the 129th insert")
	}
	if !c.Contains(1) || !c.Contains(128) {
		t.Error("expected keys 1 and 128 to survive")
	}
}

func TestLRURefreshExistingKey(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("a", 10) // refresh, not insert
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d, want 10", v)
	}

	c.Add("c", 3)
	if c.Contains("b") {
		t.Error("expected b to be evicted after a was refreshed")
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU[string, int](64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%100)
				c.Add(key, g*1000+i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len = %d exceeds capacity 64", c.Len())
	}
}
