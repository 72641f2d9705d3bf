// Package guestcart holds cart lines accumulated before authentication. The
// store is in-memory only and keyed by the guest session id; nothing survives
// a process restart, matching the ephemeral lifetime of a guest session.
package guestcart

import "sync"

type Line struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Slug         string  `json:"slug"`
	Image        string  `json:"image,omitempty"`
	GroupID      string  `json:"group_id,omitempty"`
	VariantLabel string  `json:"variant_label,omitempty"`
}

type Store struct {
	mu    sync.RWMutex
	carts map[string][]Line
}

func NewStore() *Store {
	return &Store{carts: map[string][]Line{}}
}

// Lines returns a copy of the session's cart.
func (s *Store) Lines(sid string) []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := s.carts[sid]
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// Add inserts a line or, when the product is already present, sums its
// quantity into the existing line.
func (s *Store) Add(sid string, line Line) []Line {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[sid]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity += line.Quantity
			if line.VariantLabel != "" {
				lines[i].VariantLabel = line.VariantLabel
			}
			return s.snapshotLocked(sid)
		}
	}
	s.carts[sid] = append(lines, line)
	return s.snapshotLocked(sid)
}

// SetQuantity pins a line to an exact quantity; zero or less removes it.
func (s *Store) SetQuantity(sid, productID string, quantity int) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[sid]
	kept := lines[:0]
	for _, l := range lines {
		if l.ProductID == productID {
			if quantity <= 0 {
				continue
			}
			l.Quantity = quantity
		}
		kept = append(kept, l)
	}
	s.carts[sid] = kept
	return s.snapshotLocked(sid)
}

// Remove drops a line.
func (s *Store) Remove(sid, productID string) []Line {
	return s.SetQuantity(sid, productID, 0)
}

// Clear empties the session's cart.
func (s *Store) Clear(sid string) {
	s.mu.Lock()
	delete(s.carts, sid)
	s.mu.Unlock()
}

func (s *Store) snapshotLocked(sid string) []Line {
	lines := s.carts[sid]
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
