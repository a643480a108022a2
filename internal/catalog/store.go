package catalog

import (
	"strconv"
	"sync"
	"time"
)

// Entity is anything stored in a MemoryStore.
type Entity interface {
	GetID() string
}

// Repository is the read/create contract every catalog collection offers.
type Repository[T Entity] interface {
	List() []T
	Get(id string) (T, error)
	Create(build func(id string) T) T
}

// MemoryStore is an ordered in-memory collection. New items go first.
type MemoryStore[T Entity] struct {
	mu    sync.RWMutex
	items []T
	ids   *idSource
}

func NewMemoryStore[T Entity](seed []T) *MemoryStore[T] {
	items := make([]T, len(seed))
	copy(items, seed)
	return &MemoryStore[T]{items: items, ids: newIDSource()}
}

func (s *MemoryStore[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *MemoryStore[T]) Get(id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.GetID() == id {
			return it, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

// Create assigns a fresh id, builds the item and prepends it.
func (s *MemoryStore[T]) Create(build func(id string) T) T {
	item := build(s.ids.next())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]T{item}, s.items...)
	return item
}

// idSource hands out millisecond-timestamp ids that never repeat, even when
// two creates land in the same millisecond.
type idSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDSource() *idSource {
	return &idSource{now: time.Now}
}

func (g *idSource) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return strconv.FormatInt(id, 10)
}
