package server

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/sizemap/pkg/color"
	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// Loaded is a parsed report ready for focus transitions. It is shared by
// concurrent requests and never mutated.
type Loaded struct {
	Tree   *entry.Tree
	Full   *treemap.Node
	Colors *color.Getter
}

// NewLoaded prepares a tree for serving.
func NewLoaded(tree *entry.Tree) *Loaded {
	full := treemap.NewHierarchy(tree.Root)
	return &Loaded{Tree: tree, Full: full, Colors: color.NewGetter(full)}
}

// TreeCache keeps the most recently used parsed reports. Concurrent misses
// for the same id share one load.
type TreeCache struct {
	size  int
	group singleflight.Group

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

type treeItem struct {
	id     string
	loaded *Loaded
}

// NewTreeCache returns a cache holding at most size trees.
func NewTreeCache(size int) *TreeCache {
	if size < 1 {
		size = 1
	}
	return &TreeCache{size: size, order: list.New(), items: make(map[string]*list.Element)}
}

// Get returns the tree for id, calling load on a miss.
func (c *TreeCache) Get(ctx context.Context, id string, load func(context.Context) (*Loaded, error)) (*Loaded, error) {
	if l, ok := c.lookup(id); ok {
		return l, nil
	}
	v, err, _ := c.group.Do(id, func() (any, error) {
		if l, ok := c.lookup(id); ok {
			return l, nil
		}
		l, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.add(id, l)
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Loaded), nil
}

// Remove drops id from the cache.
func (c *TreeCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[id]; ok {
		c.order.Remove(el)
		delete(c.items, id)
	}
}

// Len returns the number of cached trees.
func (c *TreeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *TreeCache) lookup(id string) (*Loaded, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*treeItem).loaded, true
}

func (c *TreeCache) add(id string, l *Loaded) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[id]; ok {
		el.Value.(*treeItem).loaded = l
		c.order.MoveToFront(el)
		return
	}
	c.items[id] = c.order.PushFront(&treeItem{id: id, loaded: l})
	for c.order.Len() > c.size {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*treeItem).id)
	}
}
