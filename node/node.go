// Package node implements the per-node state machine: keypair, DAG,
// round registry and consensus engine, wired together behind the
// transaction and sync API the gossip loop and application layer call
// against.
package node

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/virtualvoting/hashgraph/consensus"
	"github.com/virtualvoting/hashgraph/dag"
	"github.com/virtualvoting/hashgraph/event"
	"github.com/virtualvoting/hashgraph/round"
	"github.com/virtualvoting/hashgraph/sink"
	"github.com/virtualvoting/hashgraph/transport"
	"github.com/virtualvoting/hashgraph/xlog"
	"github.com/virtualvoting/hashgraph/xmetrics"
)

var (
	// ErrNoHead is returned by GetHead before the node's genesis root
	// has been created (never observed after New returns successfully).
	ErrNoHead = errors.New("node: no head")
	// ErrEmptyNetwork is returned by Run when no peer has been added yet.
	ErrEmptyNetwork = errors.New("node: empty network")
	// ErrPeerNotFound names a peer id that is not registered. No Node
	// method currently returns it.
	ErrPeerNotFound = errors.New("node: peer not found")
)

// OrderedEvent is one finalized event handed back by GetOrderedEvents:
// its identity, creator, consensus timestamp, deciding round, and the
// transaction payload it carried.
type OrderedEvent struct {
	Hash          event.Hash
	Creator       event.PeerID
	Timestamp     uint64
	RoundReceived int
	Payload       [][]byte
}

// Node owns one participant's view of the hashgraph: its keypair, its
// local DAG and round registry, the consensus engine driving them, and
// the set of known peers. A single mutex guards head, network and the
// pending transaction buffer; the DAG and round registry have their
// own internal locking, and the consensus engine its own — callers
// never need to reason about lock order beyond calling Node's methods.
type Node struct {
	mu sync.Mutex

	priv ed25519.PrivateKey
	id   event.PeerID

	store  *dag.Store
	rounds *round.Registry
	engine *consensus.Engine

	head event.Hash

	network  map[string]transport.Peer
	txBuffer [][]byte

	sink sink.Sink

	log     *xlog.Logger
	metrics *xmetrics.NodeMetrics

	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a node from a freshly generated or loaded Ed25519
// keypair, inserting a signed genesis root event with the current
// wall-clock timestamp as its own first event. sk may be nil, in which
// case finalized events accumulate until GetOrderedEvents is called.
func New(priv ed25519.PrivateKey, sk sink.Sink, log *xlog.Logger, metrics *xmetrics.NodeMetrics) (*Node, error) {
	if log == nil {
		log = xlog.Nop()
	}
	if metrics == nil {
		metrics = xmetrics.New("unlabeled")
	}
	store := dag.New()
	rounds := round.NewRegistry()
	engine := consensus.New(store, rounds)

	n := &Node{
		priv:    priv,
		id:      priv.Public().(ed25519.PublicKey),
		store:   store,
		rounds:  rounds,
		engine:  engine,
		network: make(map[string]transport.Peer),
		sink:    sk,
		log:     log,
		metrics: metrics,
		closed:  make(chan struct{}),
	}

	root := event.New(nil, event.RootParents(), n.id)
	root.SetTimestamp(uint64(time.Now().Unix()))
	root.SetRound(0)
	hash, err := root.Hash()
	if err != nil {
		return nil, fmt.Errorf("node: hash genesis root: %w", err)
	}
	if err := root.Sign(priv); err != nil {
		return nil, fmt.Errorf("node: sign genesis root: %w", err)
	}
	n.store.Insert(hash, root)
	n.engine.AddPendingEvent(hash)
	n.head = hash

	return n, nil
}

// ID returns the node's public identity.
func (n *Node) ID() event.PeerID {
	return n.id
}

func peerKey(id event.PeerID) string {
	return string(id)
}

// AddPeer registers peer in the network and recomputes the
// super-majority threshold as floor(2*|network|/3).
func (n *Node) AddPeer(peer transport.Peer) {
	n.mu.Lock()
	n.network[peerKey(peer.ID())] = peer
	count := len(n.network)
	n.mu.Unlock()

	n.engine.SetSuperMajority(count * 2 / 3)
}

// AddTransaction buffers payload; it is attached to the next head
// event this node creates during a gossip cycle.
func (n *Node) AddTransaction(payload []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.txBuffer = append(n.txBuffer, payload)
}

// GetHead returns the current head event hash.
func (n *Node) GetHead() (event.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.head.Zero() {
		return event.Hash{}, ErrNoHead
	}
	return n.head, nil
}

// GetStats reports (round_count, pending_count), matching the
// reference get_stats.
func (n *Node) GetStats() (int, int) {
	return n.engine.Stats()
}

// GetOrderedEvents returns every event finalized since the last call,
// in final consensus order, advancing the internal cursor. Safe to
// call even when the node has no configured sink.
func (n *Node) GetOrderedEvents() ([]OrderedEvent, error) {
	hashes, err := n.engine.DrainOrdered()
	if err != nil {
		return nil, err
	}
	out := make([]OrderedEvent, 0, len(hashes))
	for _, h := range hashes {
		ev, err := n.store.Get(h)
		if err != nil {
			return nil, err
		}
		ts, err := ev.Timestamp()
		if err != nil {
			return nil, err
		}
		rr, _ := ev.RoundReceived()
		out = append(out, OrderedEvent{
			Hash:          h,
			Creator:       ev.Creator,
			Timestamp:     ts,
			RoundReceived: rr,
			Payload:       ev.Payload,
		})
	}
	return out, nil
}

// RespondMessage implements transport.Responder: it answers a sync
// request with this node's current head and its entire DAG, encoded as
// wire events. Each event is served in the signed form it had when
// inserted, not a fresh re-encoding of its current (possibly since
// round-received) state, so a receiver's signature check always
// verifies against the same preimage the sender originally signed.
func (n *Node) RespondMessage() (event.Hash, transport.DAGSlice, error) {
	head, err := n.GetHead()
	if err != nil {
		return event.Hash{}, nil, err
	}
	hashes := n.store.Snapshot()
	slice := make(transport.DAGSlice, len(hashes))
	for _, h := range hashes {
		w, err := n.store.SignedWire(h)
		if err != nil {
			return event.Hash{}, nil, err
		}
		slice[h] = w
	}
	return head, slice, nil
}

// Run executes one gossip cycle: select a random peer, sync with it,
// and drive the consensus engine's three phases over any newly merged
// events. It is the unit of work the gossip package paces on a timer.
func (n *Node) Run(rng *rand.Rand) error {
	peer, err := n.selectPeer(rng)
	if err != nil {
		return err
	}

	n.metrics.SyncsAttempted.Inc()
	remoteHead, remoteSlice, err := peer.GetSync(n.id)
	if err != nil {
		n.log.Warn("sync: peer unreachable", zap.Error(err))
		return nil
	}

	newEvents, err := n.sync(remoteHead, remoteSlice)
	if err != nil {
		return fmt.Errorf("node: sync: %w", err)
	}
	if len(newEvents) == 0 {
		return nil
	}
	n.metrics.SyncsMerged.Inc()

	roundsBefore, _ := n.engine.Stats()
	if err := n.engine.DivideRounds(newEvents); err != nil {
		return fmt.Errorf("node: divide rounds: %w", err)
	}
	roundsAfter, pending := n.engine.Stats()
	n.metrics.RoundsAdvanced.Add(float64(roundsAfter - roundsBefore))
	n.metrics.PendingEventsGauge.Set(float64(pending))

	newConsensus, err := n.engine.DecideFame()
	if err != nil {
		return fmt.Errorf("node: decide fame: %w", err)
	}
	n.metrics.RoundsDecided.Add(float64(len(newConsensus)))
	if err := n.engine.FindOrder(newConsensus); err != nil {
		return fmt.Errorf("node: find order: %w", err)
	}
	_, pending = n.engine.Stats()
	n.metrics.PendingEventsGauge.Set(float64(pending))

	if n.sink != nil {
		finalized, err := n.GetOrderedEvents()
		if err != nil {
			return fmt.Errorf("node: drain ordered events: %w", err)
		}
		for _, oe := range finalized {
			for _, tx := range oe.Payload {
				if err := n.sink.Apply(tx); err != nil {
					n.log.Warn("sink: apply failed", zap.Error(err))
					continue
				}
			}
			n.metrics.EventsEmitted.Inc()
		}
	}
	return nil
}

func (n *Node) selectPeer(rng *rand.Rand) (transport.Peer, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.network) == 0 {
		return nil, ErrEmptyNetwork
	}
	ids := make([]string, 0, len(n.network))
	for id := range n.network {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return n.network[ids[rng.Intn(len(ids))]], nil
}

// sync merges remoteSlice into the local DAG and, if anything new was
// accepted, creates a new self head bridging to the remote's head. It
// returns every newly-inserted event hash (merged plus, possibly, the
// freshly created head) in the order the engine should process them.
func (n *Node) sync(remoteHead event.Hash, remoteSlice transport.DAGSlice) ([]event.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	remote := dag.New()
	for h, w := range remoteSlice {
		remote.Insert(h, event.FromWire(w))
	}

	diff := remote.Difference(n.store)
	sort.SliceStable(diff, func(i, j int) bool {
		higherJ, err := remote.Higher(diff[j], diff[i])
		if err != nil {
			return false
		}
		return higherJ
	})

	merged := make([]event.Hash, 0, len(diff))
	for _, h := range diff {
		ev, err := remote.Get(h)
		if err != nil {
			return nil, err
		}
		ok, err := ev.Verify(h)
		if err != nil || !ok {
			n.log.Warn("sync: rejecting event with invalid signature", zap.Stringer("event", h))
			n.metrics.EventsRejected.Inc()
			continue
		}
		valid, err := n.store.IsValidEvent(ev)
		if err != nil {
			return nil, err
		}
		if !valid {
			n.log.Warn("sync: rejecting event with invalid parentage", zap.Stringer("event", h))
			n.metrics.EventsRejected.Inc()
			continue
		}
		n.store.Insert(h, ev)
		n.engine.AddPendingEvent(h)
		n.metrics.EventsInserted.Inc()
		merged = append(merged, h)
	}

	if len(merged) == 0 {
		return nil, nil
	}

	remoteHeadEvent, err := remote.Get(remoteHead)
	if err == nil {
		if ok, _ := remoteHeadEvent.Verify(remoteHead); ok {
			if valid, _ := n.store.IsValidEvent(remoteHeadEvent); valid {
				newHead, err := n.createHeadLocked(event.PairParents(n.head, remoteHead))
				if err != nil {
					return nil, err
				}
				merged = append(merged, newHead)
			}
		}
	}

	return merged, nil
}

// createHeadLocked signs and inserts a new self event, draining the
// pending transaction buffer into its payload. Non-root events carry no
// timestamp at creation — consensus assigns one once the event is
// round-received (consensus.Engine.FindOrder). Callers must hold n.mu.
func (n *Node) createHeadLocked(parents event.Parents) (event.Hash, error) {
	payload := n.txBuffer
	n.txBuffer = nil

	ev := event.New(payload, parents, n.id)
	hash, err := ev.Hash()
	if err != nil {
		return event.Hash{}, err
	}
	if err := ev.Sign(n.priv); err != nil {
		return event.Hash{}, err
	}
	n.store.Insert(hash, ev)
	n.engine.AddPendingEvent(hash)
	n.head = hash
	return hash, nil
}

// Metrics exposes the node's Prometheus counters and gauges.
func (n *Node) Metrics() *xmetrics.NodeMetrics {
	return n.metrics
}

// Close stops the node from making further progress. A Node has no
// background goroutines of its own (the gossip package owns those);
// Close exists so an embedding gossip.Driver can signal callers
// blocked on a shared context that this node is done, and is
// idempotent.
func (n *Node) Close(_ context.Context) error {
	n.closeOnce.Do(func() {
		close(n.closed)
	})
	return nil
}

// Done returns a channel closed once Close has been called.
func (n *Node) Done() <-chan struct{} {
	return n.closed
}
