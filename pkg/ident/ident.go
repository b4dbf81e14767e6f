// Package ident issues entry identifiers.
//
// An [Allocator] hands out strictly increasing integers. Each tree build owns
// its own allocator, so ids are unique within a tree and never reused while
// the tree is alive. Ids are not stable across rebuilds.
package ident

import (
	"strconv"
	"sync/atomic"
)

// ID identifies one entry.
type ID uint64

// String renders the id in lowercase hexadecimal.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// Parse is the inverse of ID.String.
func Parse(s string) (ID, bool) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return ID(v), true
}

// Allocator issues ids starting at a base.
// The zero value starts at 1. It is safe for concurrent use.
type Allocator struct {
	next atomic.Uint64
}

// NewAllocator returns an allocator whose first id is base+1.
func NewAllocator(base uint64) *Allocator {
	a := &Allocator{}
	a.next.Store(base)
	return a
}

// Next returns a fresh id, strictly greater than every id issued before.
func (a *Allocator) Next() ID {
	return ID(a.next.Add(1))
}

// Last returns the most recently issued id, or the base if none was issued.
func (a *Allocator) Last() ID {
	return ID(a.next.Load())
}
