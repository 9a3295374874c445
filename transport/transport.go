// Package transport implements the gossip wire protocol: a
// request/response exchange of (head hash, DAG slice) pairs, behind a
// small Peer capability interface so the same gossip driver works
// in-process or over TCP.
package transport

import (
	"errors"

	"github.com/virtualvoting/hashgraph/event"
)

// ErrEmptyNetwork names the case of a caller asking for a peer when
// none are registered. Nothing in this package returns it; node.Run
// reports that case with node.ErrEmptyNetwork.
var ErrEmptyNetwork = errors.New("transport: no peers registered")

// DAGSlice is the wire form of a set of events, keyed by hash.
type DAGSlice map[event.Hash]event.Wire

// Responder answers a sync request with this node's current head and
// full DAG snapshot. node.Node implements this.
type Responder interface {
	RespondMessage() (event.Hash, DAGSlice, error)
}

// Peer is the capability a gossip initiator needs from a remote node:
// fetch its current head and DAG slice.
type Peer interface {
	// GetSync asks the peer, identified as requester, for its current
	// head hash and full DAG slice.
	GetSync(requester event.PeerID) (event.Hash, DAGSlice, error)
	// ID returns the peer's network identity.
	ID() event.PeerID
}
