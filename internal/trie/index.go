package trie

import (
	"sync"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// Index holds the trie built from the most recent account snapshot.
// Rebuilds are tagged with a generation at trigger time; a rebuild only
// becomes visible if no newer snapshot arrived while it ran, so the
// visible trie always reflects the freshest collection.
type Index struct {
	mu   sync.Mutex
	gen  uint64
	root *Node
}

// NewIndex returns an Index holding an empty trie.
func NewIndex() *Index {
	return &Index{root: NewRoot()}
}

// Rebuild replaces the visible trie with one built from the snapshot,
// unless a newer Rebuild was triggered in the meantime.
func (ix *Index) Rebuild(accounts []model.Account) {
	gen := ix.begin()
	ix.commit(gen, Build(accounts))
}

// Root returns the currently visible trie.
func (ix *Index) Root() *Node {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.root
}

func (ix *Index) begin() uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.gen++
	return ix.gen
}

func (ix *Index) commit(gen uint64, root *Node) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if gen != ix.gen {
		return
	}
	ix.root = root
}
