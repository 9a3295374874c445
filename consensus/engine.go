// Package consensus implements the virtual-voting algorithm: round
// assignment (Phase A), fame decision (Phase B) and order finalization
// (Phase C) over a shared dag.Store and round.Registry.
package consensus

import (
	"errors"
	"sort"
	"sync"

	"github.com/virtualvoting/hashgraph/dag"
	"github.com/virtualvoting/hashgraph/event"
	"github.com/virtualvoting/hashgraph/round"
)

// CoinRoundPeriod is the number of undecided rounds (C) after which a
// stalled vote falls back to a pseudo-random coin flip derived from the
// voting witness's own signature, matching the reference algorithm's
// liveness fallback.
const CoinRoundPeriod = 6

var (
	// ErrNoParents is returned when a non-root event is asked for its
	// parents' round but carries none.
	ErrNoParents = errors.New("consensus: event has no parents")
)

type voteKey struct {
	voter event.Hash
	event event.Hash
}

// Engine holds the per-node virtual-voting state: super-majority
// threshold, votes cast so far, and the set of rounds that have
// reached consensus.
type Engine struct {
	mu sync.Mutex

	store  *dag.Store
	rounds *round.Registry

	superMajority int
	votes         map[voteKey]bool
	consensus     map[int]bool
	maxConsensus  int // -1 when empty

	pending map[event.Hash]bool
	toEmit  []event.Hash
}

// New creates an Engine backed by store and rounds.
func New(store *dag.Store, rounds *round.Registry) *Engine {
	return &Engine{
		store:        store,
		rounds:       rounds,
		votes:        make(map[voteKey]bool),
		consensus:    make(map[int]bool),
		maxConsensus: -1,
		pending:      make(map[event.Hash]bool),
	}
}

// SetSuperMajority sets the vote threshold (typically floor(2n/3) for n
// known peers).
func (e *Engine) SetSuperMajority(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.superMajority = n
}

// SuperMajority returns the current vote threshold.
func (e *Engine) SuperMajority() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.superMajority
}

// AddPendingEvent registers hash as awaiting a round-received decision.
func (e *Engine) AddPendingEvent(hash event.Hash) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[hash] = true
}

// Stats returns (number of rounds created, number of pending events),
// matching the reference get_stats.
func (e *Engine) Stats() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rounds.Len(), len(e.pending)
}

// DrainOrdered returns every event that reached round-received status
// since the last call, in final consensus order: ascending by
// consensus timestamp, ties broken by hash. Each event is returned at
// most once.
func (e *Engine) DrainOrdered() ([]event.Hash, error) {
	e.mu.Lock()
	batch := e.toEmit
	e.toEmit = nil
	e.mu.Unlock()

	type withTime struct {
		hash event.Hash
		ts   uint64
	}
	timed := make([]withTime, 0, len(batch))
	for _, h := range batch {
		ev, err := e.store.Get(h)
		if err != nil {
			return nil, err
		}
		ts, err := ev.Timestamp()
		if err != nil {
			return nil, err
		}
		timed = append(timed, withTime{hash: h, ts: ts})
	}
	sort.Slice(timed, func(i, j int) bool {
		if timed[i].ts != timed[j].ts {
			return timed[i].ts < timed[j].ts
		}
		return lessHash(timed[i].hash, timed[j].hash)
	})
	out := make([]event.Hash, len(timed))
	for i, t := range timed {
		out[i] = t.hash
	}
	return out, nil
}

func lessHash(a, b event.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ConsensusRounds returns the sorted list of round numbers that have
// reached consensus so far.
func (e *Engine) ConsensusRounds() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, 0, len(e.consensus))
	for r := range e.consensus {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}
