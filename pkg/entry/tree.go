package entry

import (
	"slices"

	"github.com/matzehuels/sizemap/pkg/ident"
)

// Tree is a built entry tree with an id index.
type Tree struct {
	Root     Entry
	Warnings []Warning

	byID    map[ident.ID]Entry
	parents map[ident.ID]Entry
}

func newTree(root Entry, warnings []Warning) *Tree {
	t := &Tree{
		Root:     root,
		Warnings: warnings,
		byID:     make(map[ident.ID]Entry),
		parents:  make(map[ident.ID]Entry),
	}
	Walk(root, func(e Entry, _ int) bool {
		t.byID[e.ID()] = e
		for _, c := range e.Children() {
			t.parents[c.ID()] = e
		}
		return true
	})
	return t
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.byID)
}

// Find returns the entry with the given id.
func (t *Tree) Find(id ident.ID) (Entry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

// Parent returns the parent of the entry with the given id.
// The root has no parent.
func (t *Tree) Parent(id ident.ID) (Entry, bool) {
	e, ok := t.parents[id]
	return e, ok
}

// Ancestry returns the entries from the root down to and including id,
// or nil if id is not in the tree.
func (t *Tree) Ancestry(id ident.ID) []Entry {
	e, ok := t.byID[id]
	if !ok {
		return nil
	}
	chain := []Entry{e}
	for {
		p, ok := t.parents[e.ID()]
		if !ok {
			break
		}
		chain = append(chain, p)
		e = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Walk visits e and its descendants depth-first in child order. Returning
// false from fn skips the children of the visited entry.
func Walk(e Entry, fn func(e Entry, depth int) bool) {
	walk(e, 0, fn)
}

func walk(e Entry, depth int, fn func(Entry, int) bool) {
	if !fn(e, depth) {
		return
	}
	for _, c := range e.Children() {
		walk(c, depth+1, fn)
	}
}

// IsLeaf reports whether e has no children.
func IsLeaf(e Entry) bool {
	return len(e.Children()) == 0
}

// SortedBySize returns a copy of es ordered largest first; equal sizes keep
// their order.
func SortedBySize(es []Entry) []Entry {
	out := slices.Clone(es)
	slices.SortStableFunc(out, func(a, b Entry) int {
		switch {
		case a.Size() > b.Size():
			return -1
		case a.Size() < b.Size():
			return 1
		}
		return 0
	})
	return out
}
