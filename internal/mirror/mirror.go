// Package mirror keeps the last server response for each client-side view.
// A slice is replaced wholesale on every successful fetch; there is no merge,
// versioning or automatic invalidation.
package mirror

import (
	"encoding/json"
	"sync"
	"time"
)

// Slice names.
const (
	Cart              = "cart"
	ProductDetail     = "productDetail"
	ProductRegistered = "productRegistered"
	Purchase          = "purchase"
	User              = "user"
)

// Slice holds one raw JSON snapshot. Concurrent replacements are last write
// wins.
type Slice struct {
	name string

	mu        sync.RWMutex
	data      json.RawMessage
	updatedAt time.Time
	now       func() time.Time
}

// NewSlice returns a slice holding initial until the first Replace.
func NewSlice(name string, initial json.RawMessage) *Slice {
	return &Slice{name: name, data: initial, now: time.Now}
}

// Name returns the slice name.
func (s *Slice) Name() string { return s.name }

// Replace swaps the held value for payload, byte for byte.
func (s *Slice) Replace(payload []byte) {
	data := make(json.RawMessage, len(payload))
	copy(data, payload)

	s.mu.Lock()
	s.data = data
	s.updatedAt = s.now()
	s.mu.Unlock()
}

// Raw returns a copy of the held JSON.
func (s *Slice) Raw() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(json.RawMessage, len(s.data))
	copy(out, s.data)
	return out
}

// Decode unmarshals the held JSON into v.
func (s *Slice) Decode(v any) error {
	return json.Unmarshal(s.Raw(), v)
}

// UpdatedAt is the time of the last Replace; zero if never replaced.
func (s *Slice) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Stale reports whether the slice was never filled or was last replaced more
// than maxAge ago. Stale data is still served; the caller decides whether to
// refetch.
func (s *Slice) Stale(maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.updatedAt.IsZero() {
		return true
	}
	return s.now().Sub(s.updatedAt) > maxAge
}

// Store groups the storefront's slices.
type Store struct {
	Cart              *Slice
	ProductDetail     *Slice
	ProductRegistered *Slice
	Purchase          *Slice
	User              *Slice
}

// NewStore returns a store with every slice at its initial value.
func NewStore() *Store {
	return &Store{
		Cart:              NewSlice(Cart, json.RawMessage(`[]`)),
		ProductDetail:     NewSlice(ProductDetail, json.RawMessage(`null`)),
		ProductRegistered: NewSlice(ProductRegistered, json.RawMessage(`[]`)),
		Purchase:          NewSlice(Purchase, json.RawMessage(`[]`)),
		User:              NewSlice(User, json.RawMessage(`null`)),
	}
}

// Slice looks a slice up by name.
func (s *Store) Slice(name string) (*Slice, bool) {
	for _, sl := range s.all() {
		if sl.name == name {
			return sl, true
		}
	}
	return nil, false
}

// Snapshot returns every slice's JSON keyed by name.
func (s *Store) Snapshot() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, 5)
	for _, sl := range s.all() {
		out[sl.name] = sl.Raw()
	}
	return out
}

func (s *Store) all() []*Slice {
	return []*Slice{s.Cart, s.ProductDetail, s.ProductRegistered, s.Purchase, s.User}
}
