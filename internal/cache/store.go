package cache

import (
	"container/heap"
	"container/list"
	"math"
	"time"
)

// maxTTLSeconds is the largest ttl that still fits in a time.Duration.
const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

// Entry is a snapshot of a cached item. It is returned by value, so callers
// never hold a handle into the store.
type Entry struct {
	Key       string
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the entry is logically absent at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// node is what the recency list and the expiry heap point at.
type node struct {
	Entry
	elem      *list.Element
	heapIndex int
}

// Store maps keys to entries and keeps them ordered by recency (front = most
// recently used) and by expiration instant.
//
// Store is not safe for concurrent use. Cache serializes every call.
type Store struct {
	now    func() time.Time
	items  map[string]*node
	order  *list.List
	expiry expiryHeap
}

// NewStore returns an empty store reading time from now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:   now,
		items: make(map[string]*node),
		order: list.New(),
	}
}

// Len returns the number of physically present entries, expired or not.
func (s *Store) Len() int {
	return len(s.items)
}

// Put inserts or overwrites key and makes it the most recently used entry.
// A ttl of zero or less stores an entry that is already expired.
// It reports whether key was newly inserted.
func (s *Store) Put(key, value string, ttlSeconds int64) bool {
	expiresAt := expiryFor(s.now(), ttlSeconds)

	if n, ok := s.items[key]; ok {
		n.Value = value
		n.ExpiresAt = expiresAt
		heap.Fix(&s.expiry, n.heapIndex)
		s.order.MoveToFront(n.elem)
		return false
	}

	n := &node{Entry: Entry{Key: key, Value: value, ExpiresAt: expiresAt}}
	n.elem = s.order.PushFront(n)
	heap.Push(&s.expiry, n)
	s.items[key] = n
	return true
}

// Get returns the entry for key if it is present and unexpired, promoting it to
// most recently used. An expired entry found here is removed.
func (s *Store) Get(key string) (Entry, bool) {
	n, ok := s.items[key]
	if !ok {
		return Entry{}, false
	}
	if n.Expired(s.now()) {
		s.removeNode(n)
		return Entry{}, false
	}
	s.order.MoveToFront(n.elem)
	return n.Entry, true
}

// Peek is Get without promotion or lazy removal.
func (s *Store) Peek(key string) (Entry, bool) {
	n, ok := s.items[key]
	if !ok {
		return Entry{}, false
	}
	return n.Entry, true
}

// Remove deletes key. It reports whether anything was removed.
func (s *Store) Remove(key string) bool {
	n, ok := s.items[key]
	if !ok {
		return false
	}
	s.removeNode(n)
	return true
}

// LeastRecent returns the entry at the least recently used end.
func (s *Store) LeastRecent() (Entry, bool) {
	back := s.order.Back()
	if back == nil {
		return Entry{}, false
	}
	return back.Value.(*node).Entry, true
}

// Evict removes and returns the least recently used entry.
func (s *Store) Evict() (Entry, bool) {
	back := s.order.Back()
	if back == nil {
		return Entry{}, false
	}
	n := back.Value.(*node)
	s.removeNode(n)
	return n.Entry, true
}

// OldestExpired returns the entry with the earliest expiration instant, if that
// instant has already passed.
func (s *Store) OldestExpired() (Entry, bool) {
	if len(s.expiry) == 0 {
		return Entry{}, false
	}
	n := s.expiry[0]
	if !n.Expired(s.now()) {
		return Entry{}, false
	}
	return n.Entry, true
}

// EvictExpired removes and returns the earliest-expiring entry if it has expired.
func (s *Store) EvictExpired() (Entry, bool) {
	e, ok := s.OldestExpired()
	if !ok {
		return Entry{}, false
	}
	s.removeNode(s.items[e.Key])
	return e, true
}

// RemoveExpired removes every entry expired at the current time and returns them
// in expiration order.
func (s *Store) RemoveExpired() []Entry {
	var removed []Entry
	for {
		e, ok := s.EvictExpired()
		if !ok {
			return removed
		}
		removed = append(removed, e)
	}
}

// Keys returns the keys of unexpired entries, most recently used first.
func (s *Store) Keys() []string {
	now := s.now()
	out := make([]string, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		n := el.Value.(*node)
		if !n.Expired(now) {
			out = append(out, n.Key)
		}
	}
	return out
}

func (s *Store) removeNode(n *node) {
	delete(s.items, n.Key)
	s.order.Remove(n.elem)
	heap.Remove(&s.expiry, n.heapIndex)
}

func expiryFor(now time.Time, ttlSeconds int64) time.Time {
	if ttlSeconds <= 0 {
		return now
	}
	if ttlSeconds > maxTTLSeconds {
		ttlSeconds = maxTTLSeconds
	}
	return now.Add(time.Duration(ttlSeconds) * time.Second)
}

// expiryHeap is a min-heap of nodes ordered by ExpiresAt.
type expiryHeap []*node

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool { return h[i].ExpiresAt.Before(h[j].ExpiresAt) }

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *expiryHeap) Push(x any) {
	n := x.(*node)
	n.heapIndex = len(*h)
	*h = append(*h, n)
}

func (h *expiryHeap) Pop() any {
	old := *h
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.heapIndex = -1
	*h = old[:last]
	return n
}
