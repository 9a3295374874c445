package gossip

import (
	"context"
	"crypto/ed25519"
	"reflect"
	"testing"
	"time"

	"github.com/virtualvoting/hashgraph/config"
	"github.com/virtualvoting/hashgraph/event"
	"github.com/virtualvoting/hashgraph/node"
	"github.com/virtualvoting/hashgraph/sink"
	"github.com/virtualvoting/hashgraph/transport"
)

func newInProcessNode(t *testing.T) *node.Node {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	n, err := node.New(priv, sink.NewKV(), nil, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return n
}

// TestThreeNodeConvergence submits one transaction per node, runs all
// three gossip loops for a bounded wall-clock window, and asserts that
// every node's finalized event stream carries the same three
// transactions in the same order.
func TestThreeNodeConvergence(t *testing.T) {
	nodes := []*node.Node{newInProcessNode(t), newInProcessNode(t), newInProcessNode(t)}
	for i, n := range nodes {
		for j, peer := range nodes {
			if i == j {
				continue
			}
			n.AddPeer(transport.NewInProcessPeer(peer.ID(), peer))
		}
	}

	txs := [][]byte{[]byte("tx_A"), []byte("tx_B"), []byte("tx_C")}
	for i, n := range nodes {
		n.AddTransaction(txs[i])
	}

	cfg := config.Local()
	cfg.SyncInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	drivers := make([]*Driver, len(nodes))
	done := make(chan error, len(nodes))
	for i, n := range nodes {
		drivers[i] = New(n, cfg, nil, nil)
		go func(d *Driver) { done <- d.Run(ctx) }(drivers[i])
	}
	for range nodes {
		<-done
	}

	var sequences [][]event.Hash
	seenTxs := make(map[string]bool)
	for ni, n := range nodes {
		finalized, err := n.GetOrderedEvents()
		if err != nil {
			t.Fatalf("get ordered events: %v", err)
		}
		seq := make([]event.Hash, len(finalized))
		for i, oe := range finalized {
			seq[i] = oe.Hash
			if ni == 0 {
				for _, tx := range oe.Payload {
					seenTxs[string(tx)] = true
				}
			}
		}
		sequences = append(sequences, seq)
	}

	if len(sequences[0]) == 0 {
		t.Fatalf("expected at least one finalized event, got none (gossip window too short or peers never merged)")
	}
	for i := 1; i < len(sequences); i++ {
		if !reflect.DeepEqual(sequences[0], sequences[i]) {
			t.Fatalf("node 0 and node %d disagree on final order:\n%v\nvs\n%v", i, sequences[0], sequences[i])
		}
	}
	for _, tx := range txs {
		if !seenTxs[string(tx)] {
			t.Fatalf("transaction %q missing from the finalized event stream", tx)
		}
	}
}
