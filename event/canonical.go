package event

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
)

// Hash computes the event's content hash: SHA-256 over a fixed-field,
// length-prefixed encoding of (payload, parents, timestamp, creator).
// timestamp is encoded as an optional field (present/value), matching
// the Option<u64> the reference event carries: a root event always has
// one, a non-root event has none until round-received assigns one, and
// an event's hash is stable across that later assignment only because
// callers hash and sign it once, before the timestamp is set — never
// recompute Hash() to verify an event against a prior signature once
// SetTimestamp may have been called since (see dag.Store.SignedWire).
// The signature is never part of the preimage — signing the hash would
// otherwise be circular.
func (e *Event) Hash() (Hash, error) {
	buf := canonicalPreimage(e.Payload, e.Parents, e.timestamp, e.hasTime, e.Creator)
	return sha256.Sum256(buf), nil
}

// canonicalPreimage serializes exactly the signed fields of an event in
// a fixed order, with explicit little-endian length and value prefixes,
// so that two events with identical content always hash identically
// regardless of map iteration order or struct field layout.
func canonicalPreimage(payload [][]byte, parents Parents, timestamp uint64, hasTime bool, creator PeerID) []byte {
	size := 4 // payload count
	for _, p := range payload {
		size += 4 + len(p)
	}
	size += 1 + 32 + 32 // parents tag + self + other
	size += 1 + 8       // timestamp presence tag + value
	size += 4 + len(creator)

	buf := make([]byte, 0, size)
	buf = appendU32(buf, uint32(len(payload)))
	for _, p := range payload {
		buf = appendU32(buf, uint32(len(p)))
		buf = append(buf, p...)
	}

	if parents.IsRoot {
		buf = append(buf, 0)
		buf = append(buf, make([]byte, 64)...)
	} else {
		buf = append(buf, 1)
		buf = append(buf, parents.Self[:]...)
		buf = append(buf, parents.Other[:]...)
	}

	if hasTime {
		buf = append(buf, 1)
		buf = appendU64(buf, timestamp)
	} else {
		buf = append(buf, 0)
		buf = appendU64(buf, 0)
	}
	buf = appendU32(buf, uint32(len(creator)))
	buf = append(buf, creator...)
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Verify checks that e carries a valid Ed25519 signature over its own
// hash, produced by its claimed creator, and that the supplied hash
// matches e's recomputed content hash.
func (e *Event) Verify(hash Hash) (bool, error) {
	sig, err := e.Signature()
	if err != nil {
		return false, ErrUnsignedEvent
	}
	h, err := e.Hash()
	if err != nil {
		return false, err
	}
	if !ed25519.Verify(ed25519.PublicKey(e.Creator), h[:], sig) {
		return false, nil
	}
	return hash == h, nil
}
