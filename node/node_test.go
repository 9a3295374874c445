package node

import (
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/virtualvoting/hashgraph/sink"
	"github.com/virtualvoting/hashgraph/transport"
)

func newTestNode(t *testing.T, sk sink.Sink) *Node {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	n, err := New(priv, sk, nil, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return n
}

func TestNewNodeHasAHead(t *testing.T) {
	n := newTestNode(t, nil)
	head, err := n.GetHead()
	if err != nil {
		t.Fatalf("get head: %v", err)
	}
	if head.Zero() {
		t.Fatalf("expected non-zero head")
	}
}

func TestRunWithEmptyNetworkErrors(t *testing.T) {
	n := newTestNode(t, nil)
	if err := n.Run(rand.New(rand.NewSource(1))); err != ErrEmptyNetwork {
		t.Fatalf("got %v, want ErrEmptyNetwork", err)
	}
}

func TestAddPeerRecomputesSuperMajority(t *testing.T) {
	n := newTestNode(t, nil)
	a := newTestNode(t, nil)
	b := newTestNode(t, nil)
	n.AddPeer(transport.NewInProcessPeer(a.ID(), a))
	n.AddPeer(transport.NewInProcessPeer(b.ID(), b))
	if got := n.engine.SuperMajority(); got != 1 {
		t.Fatalf("super majority = %d, want 1", got)
	}
}

func TestRunMergesRemoteRootAndCreatesNewHead(t *testing.T) {
	a := newTestNode(t, nil)
	b := newTestNode(t, nil)
	a.AddPeer(transport.NewInProcessPeer(b.ID(), b))

	beforeHead, err := a.GetHead()
	if err != nil {
		t.Fatalf("get head: %v", err)
	}

	if err := a.Run(rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("run: %v", err)
	}

	afterHead, err := a.GetHead()
	if err != nil {
		t.Fatalf("get head: %v", err)
	}
	if afterHead == beforeHead {
		t.Fatalf("expected head to advance after merging a new root")
	}
	if !a.store.Has(afterHead) {
		t.Fatalf("expected new head to be stored locally")
	}
}

func TestGetOrderedEventsDrainsOnlyOnce(t *testing.T) {
	n := newTestNode(t, nil)
	first, err := n.GetOrderedEvents()
	if err != nil {
		t.Fatalf("get ordered events: %v", err)
	}
	if len(first) != 0 {
		t.Fatalf("expected no finalized events yet, got %d", len(first))
	}
}

func TestAddTransactionIsBufferedUntilNextHead(t *testing.T) {
	n := newTestNode(t, nil)
	n.AddTransaction([]byte("tx1"))
	if len(n.txBuffer) != 1 {
		t.Fatalf("expected 1 buffered transaction, got %d", len(n.txBuffer))
	}
}
