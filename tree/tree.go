// Package tree rebuilds the labeled hierarchy encoded by a token stream.
//
// Section tokens open top-level roots. Every other token becomes a child
// of the most recently opened node, except that a token whose tag matches
// an open node closes that node (and everything opened after it) first, so
// a repeated tag starts a sibling instead of nesting deeper.
package tree

import (
	"iter"
	"strconv"
	"strings"

	"github.com/meigma/pvf/record"
)

// Node is one token in the tree.
type Node struct {
	Token    record.Token
	Children []*Node
}

// Label returns the node's text form.
func (n *Node) Label() string {
	return n.Token.String()
}

// Value returns the node's scalar value (int32, float32, or string).
func (n *Node) Value() any {
	return n.Token.Value()
}

// Walk calls fn for n and its descendants in depth-first order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(depth int, n *Node) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) bool) {
	if !fn(depth, n) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Tree is the set of top-level sections, keyed by disambiguated label.
type Tree struct {
	keys  []string
	roots map[string]*Node
}

// Build reconstructs the tree from tokens.
//
// A section whose label repeats an existing key gets the first free suffix
// "-1", "-2", ... Section labels containing '/' are closing markers and are
// skipped. Tokens that appear before the first section are dropped.
func Build(tokens []record.Token) *Tree {
	t := &Tree{roots: make(map[string]*Node)}
	var stack []*Node

	for _, tok := range tokens {
		if tok.Tag == record.TagSection {
			if strings.Contains(tok.Text, "/") {
				continue
			}
			node := &Node{Token: tok}
			key := t.freeKey(tok.Text)
			t.keys = append(t.keys, key)
			t.roots[key] = node
			stack = append(stack[:0], node)
			continue
		}
		if len(stack) == 0 {
			continue
		}

		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].Token.Tag == tok.Tag {
				stack = stack[:i]
				break
			}
		}
		node := &Node{Token: tok}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack, node)
	}
	return t
}

func (t *Tree) freeKey(label string) string {
	if _, taken := t.roots[label]; !taken {
		return label
	}
	for i := 1; ; i++ {
		key := label + "-" + strconv.Itoa(i)
		if _, taken := t.roots[key]; !taken {
			return key
		}
	}
}

// Len returns the number of roots.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Keys returns the root keys in the order they were created.
func (t *Tree) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Get returns the root stored under key.
func (t *Tree) Get(key string) (*Node, bool) {
	n, ok := t.roots[key]
	return n, ok
}

// Roots yields (key, root) pairs in creation order.
func (t *Tree) Roots() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for _, k := range t.keys {
			if !yield(k, t.roots[k]) {
				return
			}
		}
	}
}
