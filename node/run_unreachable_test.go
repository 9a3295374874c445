package node

import (
	"crypto/ed25519"
	"errors"
	"math/rand"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/virtualvoting/hashgraph/event"
)

// TestRunToleratesUnreachablePeer exercises the "best-effort delivery"
// requirement: a sync that fails to reach its peer must not fail the
// gossip cycle, only skip it.
func TestRunToleratesUnreachablePeer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	n := newTestNode(t, nil)

	_, peerPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	peerID := event.PeerID(peerPriv.Public().(ed25519.PublicKey))

	peer := NewMockPeer(ctrl)
	peer.EXPECT().ID().Return(peerID).AnyTimes()
	peer.EXPECT().GetSync(gomock.Any()).Return(event.Hash{}, nil, errors.New("connection refused"))

	n.AddPeer(peer)

	if err := n.Run(rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run returned an error for an unreachable peer: %v", err)
	}
}
