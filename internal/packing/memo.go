package packing

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"
)

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSeed draws a seed from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Memo caches the layout for one identity list and recomputes only when
// that list changes.
type Memo struct {
	canvas Canvas
	rng    Source
	keys   []string
	items  []Item
}

func NewMemo(canvas Canvas, rng Source) *Memo {
	return &Memo{canvas: canvas, rng: rng}
}

func (m *Memo) Layout(keys []string) []Item {
	if m.items != nil && slices.Equal(m.keys, keys) {
		return m.items
	}
	m.keys = slices.Clone(keys)
	m.items = Pack(len(keys), m.canvas, m.rng)
	return m.items
}
