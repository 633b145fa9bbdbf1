// Package trie indexes flat account records into a hierarchy keyed by the
// segments of their colon-delimited names. Every node rolls up the
// per-currency balances of all accounts at or below it, so branch nodes
// can be rendered with subtree totals.
package trie

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// Node is one segment in the account hierarchy. Only nodes that correspond
// to a real account carry a non-nil Account; intermediate grouping nodes
// exist purely because a deeper account name passes through them.
type Node struct {
	// Segment is the node's own path element, empty at the root.
	Segment string
	// Path is the full account path from the root, joined at creation
	// time from the parent's path and the segment.
	Path string
	// Account is attached at nodes that are real accounts.
	Account *model.Account

	children map[string]*Node
	order    []string
	balances map[string]decimal.Decimal
}

// NewRoot returns an empty trie.
func NewRoot() *Node {
	return &Node{
		children: make(map[string]*Node),
		balances: make(map[string]decimal.Decimal),
	}
}

// Build indexes a full account snapshot into a fresh trie. The trie is
// rebuilt from scratch on every refresh of the account collection rather
// than patched, so closed or renamed accounts can never leave stale
// branches behind.
func Build(accounts []model.Account) *Node {
	root := NewRoot()
	for _, a := range accounts {
		root.Insert(a)
	}
	return root
}

// Insert walks or creates one node per segment of the account name and
// attaches the account to the terminal node. Inserting a name that is
// already present replaces the attached account (last write wins) and
// never creates duplicate sibling nodes.
//
// The account's balances are rolled up into every node along the path,
// the root included. On replacement the previous account's contribution
// is removed first so the rollup stays exact.
func (n *Node) Insert(account model.Account) {
	node := n
	path := []*Node{n}
	for _, seg := range account.Segments() {
		child, ok := node.children[seg]
		if !ok {
			child = &Node{
				Segment:  seg,
				Path:     joinPath(node.Path, seg),
				children: make(map[string]*Node),
				balances: make(map[string]decimal.Decimal),
			}
			node.children[seg] = child
			node.order = append(node.order, seg)
		}
		node = child
		path = append(path, node)
	}

	if prev := node.Account; prev != nil {
		for currency, amount := range prev.Balances {
			for _, v := range path {
				v.balances[currency] = v.balances[currency].Sub(amount)
			}
		}
	}
	for currency, amount := range account.Balances {
		for _, v := range path {
			v.balances[currency] = v.balances[currency].Add(amount)
		}
	}
	node.Account = &account
}

// Child returns the direct child for a segment.
func (n *Node) Child(segment string) (*Node, bool) {
	c, ok := n.children[segment]
	return c, ok
}

// Children returns the direct children in insertion order. The order is
// stable across calls; callers that want lexicographic output sort the
// returned slice themselves.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, seg := range n.order {
		out = append(out, n.children[seg])
	}
	return out
}

// Balance returns the subtree rollup for one currency.
func (n *Node) Balance(currency string) decimal.Decimal {
	return n.balances[currency]
}

// Balances returns the subtree rollup per currency. The map is owned by
// the node; callers must not mutate it.
func (n *Node) Balances() map[string]decimal.Decimal {
	return n.balances
}

// Validate checks the structural invariants of a built trie: every
// descendant's path extends its parent's, and every leaf carries an
// account. A leaf with no account means the build saw a grouping segment
// that no real account ever terminated, which cannot happen for
// well-formed input.
func (n *Node) Validate() error {
	for _, seg := range n.order {
		child := n.children[seg]
		if want := joinPath(n.Path, seg); child.Path != want {
			return fmt.Errorf("node %q: path %q, want %q", seg, child.Path, want)
		}
		if err := child.Validate(); err != nil {
			return err
		}
	}
	if len(n.order) == 0 && n.Account == nil && n.Segment != "" {
		return fmt.Errorf("leaf %q carries no account", n.Path)
	}
	return nil
}

func joinPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + model.PathSeparator + segment
}
