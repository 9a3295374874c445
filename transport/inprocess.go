package transport

import (
	"github.com/virtualvoting/hashgraph/event"
)

// InProcessPeer wraps a same-process Responder so a gossip driver can
// reach another node's head/DAG-slice without going over a socket,
// grounded on the original's all-in-one-process dummy node topology.
type InProcessPeer struct {
	id       event.PeerID
	responder Responder
}

// NewInProcessPeer wraps responder, identified by id, as a Peer.
func NewInProcessPeer(id event.PeerID, responder Responder) *InProcessPeer {
	return &InProcessPeer{id: id, responder: responder}
}

// GetSync calls straight through to the wrapped Responder.
func (p *InProcessPeer) GetSync(_ event.PeerID) (event.Hash, DAGSlice, error) {
	return p.responder.RespondMessage()
}

// ID returns the wrapped node's identity.
func (p *InProcessPeer) ID() event.PeerID {
	return p.id
}
