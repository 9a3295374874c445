package dag

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualvoting/hashgraph/event"
)

func newSignedRoot(t *testing.T, pub ed25519.PublicKey, priv ed25519.PrivateKey, ts uint64) (event.Hash, *event.Event) {
	t.Helper()
	e := event.New(nil, event.RootParents(), pub)
	e.SetTimestamp(ts)
	require.NoError(t, e.Sign(priv))
	h, err := e.Hash()
	require.NoError(t, err)
	return h, e
}

func TestIsValidEventRoot(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	store := New()
	h, e := newSignedRoot(t, pub, priv, 1)
	store.Insert(h, e)
	ok, err := store.IsValidEvent(e)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsValidEventCorrectParents(t *testing.T) {
	store := New()
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, priv2, _ := ed25519.GenerateKey(nil)

	sh, se := newSignedRoot(t, pub1, priv1, 1)
	oh, oe := newSignedRoot(t, pub2, priv2, 1)
	store.Insert(sh, se)
	store.Insert(oh, oe)

	child := event.New(nil, event.PairParents(sh, oh), pub1)
	child.SetTimestamp(2)
	require.NoError(t, child.Sign(priv1))
	ch, err := child.Hash()
	require.NoError(t, err)
	store.Insert(ch, child)

	ok, err := store.IsValidEvent(child)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsValidEventFailsWhenSelfParentCreatorDiffers(t *testing.T) {
	store := New()
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, priv2, _ := ed25519.GenerateKey(nil)
	pub3, priv3, _ := ed25519.GenerateKey(nil)

	sh, se := newSignedRoot(t, pub1, priv1, 1)
	oh, oe := newSignedRoot(t, pub2, priv2, 1)
	store.Insert(sh, se)
	store.Insert(oh, oe)

	child := event.New(nil, event.PairParents(sh, oh), pub3)
	child.SetTimestamp(2)
	require.NoError(t, child.Sign(priv3))
	store.Insert(mustHash(t, child), child)

	ok, _ := store.IsValidEvent(child)
	assert.False(t, ok)
}

func TestIsValidEventFailsWhenOtherParentSameCreator(t *testing.T) {
	store := New()
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, priv2, _ := ed25519.GenerateKey(nil)

	sh, se := newSignedRoot(t, pub1, priv1, 1)
	oh, oe := newSignedRoot(t, pub2, priv2, 1)
	store.Insert(sh, se)
	store.Insert(oh, oe)

	child := event.New(nil, event.PairParents(sh, oh), pub2)
	child.SetTimestamp(2)
	require.NoError(t, child.Sign(priv2))
	store.Insert(mustHash(t, child), child)

	ok, _ := store.IsValidEvent(child)
	assert.False(t, ok)
}

func TestIsValidEventFailsWhenParentMissing(t *testing.T) {
	store := New()
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, _, _ := ed25519.GenerateKey(nil)

	sh, se := newSignedRoot(t, pub1, priv1, 1)
	store.Insert(sh, se)

	var missingOther event.Hash
	missingOther[0] = 0xFF

	child := event.New(nil, event.PairParents(sh, missingOther), pub2)
	child.SetTimestamp(2)
	ok, _ := store.IsValidEvent(child)
	assert.False(t, ok)
}

func TestDifference(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	h1, e1 := newSignedRoot(t, pub, priv, 1)
	h2, e2 := newSignedRoot(t, pub, priv, 2)
	h3, e3 := newSignedRoot(t, pub, priv, 3)

	hg1 := New()
	hg2 := New()
	hg1.Insert(h1, e1)
	hg1.Insert(h2, e2)
	hg2.Insert(h3, e3)

	diff := hg1.Difference(hg2)
	require.Len(t, diff, 2)
	assert.ElementsMatch(t, []event.Hash{h1, h2}, diff)
}

func TestSelfAndOtherAncestors(t *testing.T) {
	store := New()
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, priv2, _ := ed25519.GenerateKey(nil)

	rh1, r1 := newSignedRoot(t, pub1, priv1, 1)
	rh2, r2 := newSignedRoot(t, pub2, priv2, 1)
	store.Insert(rh1, r1)
	store.Insert(rh2, r2)

	child := event.New(nil, event.PairParents(rh1, rh2), pub1)
	child.SetTimestamp(2)
	require.NoError(t, child.Sign(priv1))
	ch := mustHash(t, child)
	store.Insert(ch, child)

	selfChain, err := store.SelfAncestors(ch)
	require.NoError(t, err)
	assert.Equal(t, []event.Hash{ch, rh1}, selfChain)

	otherChain, err := store.OtherAncestors(ch)
	require.NoError(t, err)
	assert.Equal(t, []event.Hash{ch, rh2}, otherChain)
}

func TestHigher(t *testing.T) {
	store := New()
	pub, priv, _ := ed25519.GenerateKey(nil)
	rh, r := newSignedRoot(t, pub, priv, 1)
	store.Insert(rh, r)

	child := event.New(nil, event.PairParents(rh, rh), pub)
	child.SetTimestamp(2)
	require.NoError(t, child.Sign(priv))
	ch := mustHash(t, child)
	store.Insert(ch, child)

	higher, err := store.Higher(ch, rh)
	require.NoError(t, err)
	assert.True(t, higher)

	higher, err = store.Higher(rh, ch)
	require.NoError(t, err)
	assert.False(t, higher)
}

func TestSignedWireIsFrozenAtInsertDespiteLaterMutation(t *testing.T) {
	store := New()
	pub, priv, _ := ed25519.GenerateKey(nil)
	h, e := newSignedRoot(t, pub, priv, 1)
	store.Insert(h, e)

	before, err := store.SignedWire(h)
	require.NoError(t, err)
	assert.True(t, before.HasTimestamp)
	assert.Equal(t, uint64(1), before.Timestamp)

	e.SetTimestamp(99)
	e.SetRoundReceived(5)

	after, err := store.SignedWire(h)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	rehashed, err := e.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h, rehashed, "mutating timestamp after insert should not silently keep the original hash")
}

func TestSignedWireMissingEventErrors(t *testing.T) {
	store := New()
	var missing event.Hash
	missing[0] = 0xAA
	_, err := store.SignedWire(missing)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func mustHash(t *testing.T, e *event.Event) event.Hash {
	t.Helper()
	h, err := e.Hash()
	require.NoError(t, err)
	return h
}
