package sanitize

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Action tells a Session what to do with the node a hook just visited.
type Action int

const (
	// Keep leaves the node in place and descends into its children.
	Keep Action = iota
	// Drop removes the node and its subtree; remaining hooks and children are skipped.
	Drop
	// Replace swaps the node for Decision.Node, which is then visited in its place.
	Replace
)

// Decision is the result of a hook.
type Decision struct {
	Action Action
	Node   *html.Node
}

var (
	keepDecision = Decision{Action: Keep}
	dropDecision = Decision{Action: Drop}
)

// ReplaceWith returns a decision swapping the visited node for n.
// n must be detached.
func ReplaceWith(n *html.Node) Decision {
	return Decision{Action: Replace, Node: n}
}

// Hook is called for every element, text and comment node in pre-order.
type Hook func(n *html.Node) Decision

// Session owns the hook registry used while a tree is walked and sanitized.
// Hooks are only registered for the duration of Do, so a Session is never
// observed holding another call's hooks. Callers sharing a Session are
// serialized; independent Sessions run concurrently.
type Session struct {
	mu    sync.Mutex
	hooks []Hook
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Do acquires the session, registers hooks, and runs fn. The hooks are
// deregistered on every exit path, including a panic in fn or a hook.
func (s *Session) Do(hooks []Hook, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks[:0], hooks...)
	defer s.removeAllHooks()

	return fn(s)
}

// HookCount returns the number of registered hooks. It waits for any Do in
// progress, so outside of Do it is always zero. Do not call it from a hook.
func (s *Session) HookCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

func (s *Session) removeAllHooks() {
	for i := range s.hooks {
		s.hooks[i] = nil
	}
	s.hooks = s.hooks[:0]
}

// Walk visits every node below root in pre-order, applying the registered
// hooks. The next sibling is fetched before a node is visited, so hooks may
// drop or replace the node they are given.
func (s *Session) Walk(root *html.Node) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if n := s.visit(c); n != nil {
			s.Walk(n)
		}
		c = next
	}
}

// visit runs the hooks on n and returns the node to descend into, or nil if
// n was dropped.
func (s *Session) visit(n *html.Node) *html.Node {
	switch n.Type {
	case html.ElementNode, html.TextNode, html.CommentNode:
	default:
		return n
	}

	for _, hook := range s.hooks {
		d := hook(n)
		switch d.Action {
		case Drop:
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return nil
		case Replace:
			if d.Node == nil || d.Node == n {
				continue
			}
			if parent := n.Parent; parent != nil {
				parent.InsertBefore(d.Node, n)
				parent.RemoveChild(n)
			}
			return s.visit(d.Node)
		}
	}
	return n
}

// Sanitize renders root and passes the markup through policy.
func (s *Session) Sanitize(root *html.Node, policy *bluemonday.Policy) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return policy.SanitizeReader(&buf).String(), nil
}
