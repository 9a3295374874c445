// Package round implements the Round Registry: per-round witness
// bookkeeping used by the consensus engine's divide_rounds and
// decide_fame phases.
package round

import (
	"sync"

	"github.com/virtualvoting/hashgraph/event"
)

// Round holds the witness events registered for a single round number,
// one at most per creator.
type Round struct {
	ID        int
	witnesses map[string]event.Hash
	creators  map[string]event.PeerID
}

// New creates an empty round with the given id.
func New(id int) *Round {
	return &Round{
		ID:        id,
		witnesses: make(map[string]event.Hash),
		creators:  make(map[string]event.PeerID),
	}
}

// AddWitness registers peer's witness event for this round.
func (r *Round) AddWitness(peer event.PeerID, hash event.Hash) {
	key := string(peer)
	r.witnesses[key] = hash
	r.creators[key] = peer
}

// Witnesses returns every witness hash registered in this round, order
// unspecified.
func (r *Round) Witnesses() []event.Hash {
	out := make([]event.Hash, 0, len(r.witnesses))
	for _, h := range r.witnesses {
		out = append(out, h)
	}
	return out
}

// WitnessesMap returns the peer-to-witness-hash map for this round.
func (r *Round) WitnessesMap() map[string]event.Hash {
	return r.witnesses
}

// Creators returns the set of peers with a registered witness this
// round.
func (r *Round) Creators() []event.PeerID {
	out := make([]event.PeerID, 0, len(r.creators))
	for _, p := range r.creators {
		out = append(out, p)
	}
	return out
}

// Registry is a concurrency-safe, append-only list of rounds indexed
// by round number.
type Registry struct {
	mu     sync.RWMutex
	rounds []*Round
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// GetOrCreate returns the round for id, creating it (and any
// intervening missing rounds) if necessary.
func (r *Registry) GetOrCreate(id int) *Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.rounds) <= id {
		r.rounds = append(r.rounds, New(len(r.rounds)))
	}
	return r.rounds[id]
}

// Get returns the round for id if it has been created.
func (r *Registry) Get(id int) (*Round, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= len(r.rounds) {
		return nil, false
	}
	return r.rounds[id], true
}

// Len returns the number of rounds created so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rounds)
}
