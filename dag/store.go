// Package dag implements the EventStore: an append-only map of events
// keyed by hash, plus the ancestry queries the consensus engine needs
// (self/other ancestors, "higher", can-see merging, set difference).
package dag

import (
	"errors"
	"sort"
	"sync"

	"github.com/virtualvoting/hashgraph/event"
)

// ErrEventNotFound is returned by Get and the ancestry walks when a
// referenced hash is missing from the store.
var ErrEventNotFound = errors.New("dag: event not found")

// Store is a concurrency-safe, insertion-ordered map of events. Zero
// value is not usable; use New.
type Store struct {
	mu     sync.RWMutex
	events map[event.Hash]*event.Event
	wires  map[event.Hash]event.Wire // signed form, frozen at Insert
	order  []event.Hash              // insertion order, for deterministic iteration
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		events: make(map[event.Hash]*event.Event),
		wires:  make(map[event.Hash]event.Wire),
	}
}

// Insert adds e under hash, freezing its wire form as it stands right
// now. Re-inserting an existing hash is a no-op, matching the
// idempotent merge semantics gossip relies on. e's signed fields must
// not change after this call; consensus only ever mutates e's derived
// fields (round, round-received, fame) and its consensus timestamp, by
// design (see SignedWire).
func (s *Store) Insert(hash event.Hash, e *event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[hash]; exists {
		return
	}
	s.events[hash] = e
	s.wires[hash] = e.ToWire()
	s.order = append(s.order, hash)
}

// Get returns the event stored at hash.
func (s *Store) Get(hash event.Hash) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[hash]
	if !ok {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// Has reports whether hash is present.
func (s *Store) Has(hash event.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[hash]
	return ok
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Roots returns the hashes of every root (parentless) event in the
// store, in insertion order. Not part of the original distillation;
// useful for node bootstrap diagnostics.
func (s *Store) Roots() []event.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roots []event.Hash
	for _, h := range s.order {
		if s.events[h].IsRoot() {
			roots = append(roots, h)
		}
	}
	return roots
}

// FindSelfChild returns the hash of the event that names hash as its
// self parent, if present in the store.
func (s *Store) FindSelfChild(hash event.Hash) (event.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.order {
		if s.events[h].IsSelfParent(hash) {
			return h, true
		}
	}
	return event.Hash{}, false
}

// SelfAncestors walks id's self-parent chain, starting with id itself,
// and returns the hashes in walk order (nearest first).
func (s *Store) SelfAncestors(id event.Hash) ([]event.Hash, error) {
	var out []event.Hash
	cur := id
	for {
		out = append(out, cur)
		e, err := s.Get(cur)
		if err != nil {
			return nil, err
		}
		if e.IsRoot() {
			return out, nil
		}
		sp, err := e.SelfParent()
		if err != nil {
			return nil, err
		}
		cur = sp
	}
}

// OtherAncestors walks id's other-parent chain, starting with id
// itself.
func (s *Store) OtherAncestors(id event.Hash) ([]event.Hash, error) {
	var out []event.Hash
	cur := id
	for {
		out = append(out, cur)
		e, err := s.Get(cur)
		if err != nil {
			return nil, err
		}
		if e.IsRoot() {
			return out, nil
		}
		cur = e.OtherParent()
	}
}

// Ancestors returns id's other-ancestor chain followed by its
// self-ancestor chain, matching the reference implementation's
// concatenation order.
func (s *Store) Ancestors(id event.Hash) ([]event.Hash, error) {
	other, err := s.OtherAncestors(id)
	if err != nil {
		return nil, err
	}
	self, err := s.SelfAncestors(id)
	if err != nil {
		return nil, err
	}
	return append(other, self...), nil
}

// Higher reports whether a is at least as "high" in the DAG as b along
// self-parent chains: true if b is a self-ancestor of a, false if a is
// a self-ancestor of b, and otherwise a tie-break on self-ancestor
// chain length.
func (s *Store) Higher(a, b event.Hash) (bool, error) {
	aChain, err := s.SelfAncestors(a)
	if err != nil {
		return false, err
	}
	bChain, err := s.SelfAncestors(b)
	if err != nil {
		return false, err
	}
	if containsHash(aChain, b) {
		return true, nil
	}
	if containsHash(bChain, a) {
		return false, nil
	}
	return len(aChain) > len(bChain), nil
}

func containsHash(chain []event.Hash, h event.Hash) bool {
	for _, c := range chain {
		if c == h {
			return true
		}
	}
	return false
}

// EventsParentsCanSee merges the can-see maps of hash's two parents:
// for each creator visible from either parent, keep whichever
// ancestor is Higher. A root event sees nothing.
func (s *Store) EventsParentsCanSee(hash event.Hash) (map[string]event.Hash, error) {
	e, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	if e.IsRoot() {
		return map[string]event.Hash{}, nil
	}
	selfParent, err := s.Get(e.Parents.Self)
	if err != nil {
		return nil, err
	}
	otherParent, err := s.Get(e.Parents.Other)
	if err != nil {
		return nil, err
	}

	result := make(map[string]event.Hash, len(selfParent.CanSee)+len(otherParent.CanSee))
	for k, v := range selfParent.CanSee {
		result[k] = v
	}
	for k, other := range otherParent.CanSee {
		existing, ok := result[k]
		if !ok {
			result[k] = other
			continue
		}
		higher, err := s.Higher(other, existing)
		if err != nil {
			return nil, err
		}
		if higher {
			result[k] = other
		}
	}
	return result, nil
}

// Difference returns the hashes present in s but absent from other, in
// a deterministic sorted order.
func (s *Store) Difference(other *Store) []event.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var diff []event.Hash
	for _, h := range s.order {
		if !other.Has(h) {
			diff = append(diff, h)
		}
	}
	sort.Slice(diff, func(i, j int) bool {
		return lessHash(diff[i], diff[j])
	})
	return diff
}

func lessHash(a, b event.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// IsValidEvent checks the parent-creator invariant: a root event is
// always valid; a non-root event is valid only if both parents are
// present in the store, the self parent was created by e's own
// creator, and the other parent was created by someone else.
func (s *Store) IsValidEvent(e *event.Event) (bool, error) {
	if e.IsRoot() {
		return true, nil
	}
	selfParent, err := s.Get(e.Parents.Self)
	if err != nil {
		return false, nil
	}
	otherParent, err := s.Get(e.Parents.Other)
	if err != nil {
		return false, nil
	}
	sameCreator := selfParent.Creator.Equal(e.Creator)
	differentCreator := !otherParent.Creator.Equal(e.Creator)
	return sameCreator && differentCreator, nil
}

// Snapshot returns every stored hash in insertion order, for use by
// callers (e.g. gossip) that need to iterate deterministically.
func (s *Store) Snapshot() []event.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Hash, len(s.order))
	copy(out, s.order)
	return out
}

// SignedWire returns the wire form hash had at the moment it was
// inserted — before consensus set its round-received consensus
// timestamp or any other derived state. A Responder must relay this
// form, not a fresh Event.ToWire() of the live (possibly since-mutated)
// Event, or a receiver's signature check would recompute a different
// hash than the one the original signature covers.
func (s *Store) SignedWire(hash event.Hash) (event.Wire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wires[hash]
	if !ok {
		return event.Wire{}, ErrEventNotFound
	}
	return w, nil
}
