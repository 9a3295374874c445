package round

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/virtualvoting/hashgraph/event"
)

func TestAddWitnessAndList(t *testing.T) {
	r := New(0)
	h1 := event.Hash(sha256.Sum256([]byte("42")))
	h2 := event.Hash(sha256.Sum256([]byte("fish")))
	r.AddWitness(event.PeerID{1}, h1)
	r.AddWitness(event.PeerID{0}, h2)

	assert.Equal(t, 0, r.ID)
	assert.ElementsMatch(t, []event.Hash{h1, h2}, r.Witnesses())
}

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry()
	r0 := reg.GetOrCreate(0)
	r2 := reg.GetOrCreate(2)
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, 0, r0.ID)
	assert.Equal(t, 2, r2.ID)

	got, ok := reg.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 1, got.ID)

	_, ok = reg.Get(5)
	assert.False(t, ok)
}
