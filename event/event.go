// Package event implements the signed DAG event: the atomic unit of
// gossip and the input to the consensus engine.
package event

import (
	"crypto/ed25519"
	"errors"
)

// Hash identifies an Event by the SHA-256 digest of its canonical
// preimage (see canonical.go). It is comparable and usable as a map key.
type Hash [32]byte

// Zero reports whether h is the zero hash (never a valid event hash).
func (h Hash) Zero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 0; i < 8; i++ {
		buf[i*2] = hextable[h[i]>>4]
		buf[i*2+1] = hextable[h[i]&0x0f]
	}
	return string(buf)
}

// PeerID is a creator's Ed25519 public key, doubling as its network
// identity.
type PeerID = ed25519.PublicKey

// Parents describes an event's ancestry. A root event has no parents
// (IsRoot is true and Self/Other are zero). A non-root event has
// exactly two parents: Self (the creator's own previous event) and
// Other (the event received from the gossip partner that triggered
// this event's creation).
type Parents struct {
	IsRoot bool
	Self   Hash
	Other  Hash
}

// RootParents is the zero-value Parents of a root event.
func RootParents() Parents {
	return Parents{IsRoot: true}
}

// PairParents builds the Parents of a non-root event.
func PairParents(self, other Hash) Parents {
	return Parents{Self: self, Other: other}
}

var (
	// ErrNoTimestamp is returned by Timestamp when it was never set.
	ErrNoTimestamp = errors.New("event: timestamp not set")
	// ErrNoSignature is returned by Signature when the event is unsigned.
	ErrNoSignature = errors.New("event: no signature")
	// ErrNoSelfParent is returned by SelfParent on a root event.
	ErrNoSelfParent = errors.New("event: root event has no self parent")
	// ErrUnsignedEvent is returned by Verify on an unsigned event.
	ErrUnsignedEvent = errors.New("event: cannot verify unsigned event")
	// ErrRoundNotSet is returned by Round before divide_rounds has run.
	ErrRoundNotSet = errors.New("event: round not assigned yet")
)

// Event is one node in the hashgraph DAG. Payload, Parents, Timestamp
// and Creator are part of the signed content (see Hash); CanSee, Round,
// RoundReceived and Famous are local derived state computed by the
// consensus engine and never transmitted as part of the signature
// preimage.
type Event struct {
	Payload   [][]byte
	Parents   Parents
	timestamp uint64
	hasTime   bool
	Creator   PeerID
	signature []byte

	// Derived state, populated by consensus.Engine.
	CanSee        map[string]Hash
	round         int
	hasRound      bool
	roundReceived int
	hasRR         bool
	famous        *bool
}

// New creates an unsigned, timestamp-less event. Callers must Sign it
// before inserting it into a Store; a root event also needs
// SetTimestamp before signing, while a non-root event is signed
// without one.
func New(payload [][]byte, parents Parents, creator PeerID) *Event {
	return &Event{
		Payload: payload,
		Parents: parents,
		Creator: creator,
		CanSee:  make(map[string]Hash),
	}
}

// SetTimestamp assigns the event's timestamp: the wall-clock creation
// time of a root event, or the consensus timestamp set once the event
// is round-received.
func (e *Event) SetTimestamp(ts uint64) {
	e.timestamp = ts
	e.hasTime = true
}

// Timestamp returns the event's timestamp, if one has been set.
func (e *Event) Timestamp() (uint64, error) {
	if !e.hasTime {
		return 0, ErrNoTimestamp
	}
	return e.timestamp, nil
}

// IsRoot reports whether e has no parents.
func (e *Event) IsRoot() bool {
	return e.Parents.IsRoot
}

// SelfParent returns the creator's previous event hash.
func (e *Event) SelfParent() (Hash, error) {
	if e.Parents.IsRoot {
		return Hash{}, ErrNoSelfParent
	}
	return e.Parents.Self, nil
}

// OtherParent returns the gossip partner's event hash, or the zero hash
// for a root event.
func (e *Event) OtherParent() Hash {
	return e.Parents.Other
}

// IsSelfParent reports whether hash is this event's self parent.
func (e *Event) IsSelfParent(hash Hash) bool {
	if e.Parents.IsRoot {
		return false
	}
	return e.Parents.Self == hash
}

// Sign attaches an Ed25519 signature over Hash().
func (e *Event) Sign(priv ed25519.PrivateKey) error {
	h, err := e.Hash()
	if err != nil {
		return err
	}
	e.signature = ed25519.Sign(priv, h[:])
	return nil
}

// Signature returns the event's signature bytes.
func (e *Event) Signature() ([]byte, error) {
	if e.signature == nil {
		return nil, ErrNoSignature
	}
	return e.signature, nil
}

// Round returns the event's assigned round number.
func (e *Event) Round() (int, error) {
	if !e.hasRound {
		return 0, ErrRoundNotSet
	}
	return e.round, nil
}

// SetRound assigns the event's round number.
func (e *Event) SetRound(r int) {
	e.round = r
	e.hasRound = true
}

// RoundReceived returns the round in which e was received into the
// consensus order, if decided.
func (e *Event) RoundReceived() (int, bool) {
	return e.roundReceived, e.hasRR
}

// SetRoundReceived marks the round in which e was received.
func (e *Event) SetRoundReceived(r int) {
	e.roundReceived = r
	e.hasRR = true
}

// IsFamous reports whether e has been decided famous. Undecided events
// report false.
func (e *Event) IsFamous() bool {
	return e.famous != nil && *e.famous
}

// IsUndefined reports whether fame has not yet been decided for e.
func (e *Event) IsUndefined() bool {
	return e.famous == nil
}

// SetFamous records the engine's fame decision for e.
func (e *Event) SetFamous(famous bool) {
	e.famous = &famous
}

// AddCanSee records that e can see an ancestor of peer at hash.
func (e *Event) AddCanSee(peer PeerID, hash Hash) {
	e.CanSee[peerKey(peer)] = hash
}

// SeesAncestorOf reports whether e can see an event created by peer,
// returning that ancestor's hash.
func (e *Event) SeesAncestorOf(peer PeerID) (Hash, bool) {
	h, ok := e.CanSee[peerKey(peer)]
	return h, ok
}

func peerKey(p PeerID) string {
	return string(p)
}
