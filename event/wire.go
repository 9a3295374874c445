package event

// Wire is the over-the-gossip representation of an Event: only the
// signed content travels on the network. Derived fields (CanSee,
// Round, RoundReceived, Famous) are never transmitted — each node
// recomputes them locally, exactly as the reference implementation's
// `#[serde(skip)]` fields are excluded from the wire encoding.
type Wire struct {
	Payload      [][]byte
	IsRoot       bool
	Self         Hash
	Other        Hash
	HasTimestamp bool
	Timestamp    uint64
	Creator      PeerID
	Signature    []byte
}

// ToWire extracts e's signed content for transmission. HasTimestamp is
// false for a non-root event that has not yet been round-received.
func (e *Event) ToWire() Wire {
	sig, _ := e.Signature()
	return Wire{
		Payload:      e.Payload,
		IsRoot:       e.Parents.IsRoot,
		Self:         e.Parents.Self,
		Other:        e.Parents.Other,
		HasTimestamp: e.hasTime,
		Timestamp:    e.timestamp,
		Creator:      e.Creator,
		Signature:    sig,
	}
}

// FromWire reconstructs an Event from its wire representation. The
// result carries no derived state; callers must still validate and
// insert it through the normal DAG path.
func FromWire(w Wire) *Event {
	var parents Parents
	if w.IsRoot {
		parents = RootParents()
	} else {
		parents = PairParents(w.Self, w.Other)
	}
	e := New(w.Payload, parents, w.Creator)
	if w.HasTimestamp {
		e.SetTimestamp(w.Timestamp)
	}
	e.signature = w.Signature
	return e
}
