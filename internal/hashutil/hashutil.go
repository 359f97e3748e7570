// Package hashutil computes deterministic content hashes over configured
// fields, the Go analogue of the original's derived Hash trait impls that
// explicitly excluded runtime fields. Used by tasks, conditions, and
// events to support equality/diffing during reconfiguration.
package hashutil

import (
	"hash/fnv"
	"sort"
)

// Builder accumulates fields into an FNV-1a hash in field-declaration
// order. Call order must be stable for a given object's String method set
// so that two objects built from identical configuration always hash the
// same.
type Builder struct {
	h uint64
}

// NewBuilder creates a Builder seeded with the FNV-1a offset basis.
func NewBuilder() *Builder {
	b := &Builder{}
	h := fnv.New64a()
	b.h = h.Sum64()
	return b
}

func (b *Builder) mix(data []byte) {
	h := fnv.New64a()
	h.Write(uint64ToBytes(b.h))
	h.Write(data)
	b.h = h.Sum64()
}

// String mixes in a string field.
func (b *Builder) String(s string) *Builder {
	b.mix([]byte(s))
	return b
}

// Bool mixes in a bool field.
func (b *Builder) Bool(v bool) *Builder {
	if v {
		b.mix([]byte{1})
	} else {
		b.mix([]byte{0})
	}
	return b
}

// Int mixes in an int field.
func (b *Builder) Int(v int) *Builder {
	b.mix(uint64ToBytes(uint64(v)))
	return b
}

// Strings mixes in an ordered slice of strings (order is significant, not
// sorted).
func (b *Builder) Strings(ss []string) *Builder {
	for _, s := range ss {
		b.mix([]byte(s))
	}
	return b
}

// StringSet mixes in a set of strings whose order is not significant, by
// sorting before mixing.
func (b *Builder) StringSet(ss []string) *Builder {
	sorted := append([]string(nil), ss...)
	sort.Strings(sorted)
	return b.Strings(sorted)
}

// Sum returns the accumulated hash.
func (b *Builder) Sum() uint64 {
	return b.h
}

func uint64ToBytes(v uint64) []byte {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return buf
}
