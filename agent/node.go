// Package agent models the static agent hierarchy: named nodes carrying a
// policy, a capability set and an ordered list of children. The hierarchy is
// assembled once at startup and treated as immutable while turns run.
package agent

import (
	"fmt"
	"regexp"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Node is one agent in the hierarchy. Tools names only the node's own
// capabilities; children do not inherit them. OutputKey, when set, writes the
// node's terminal text into session state under that key when the node
// finishes its activation.
type Node struct {
	// Name uniquely identifies the node within the hierarchy.
	Name string

	// Description summarizes the node's specialty for delegation prompts.
	Description string

	// Policy is the node's system instruction.
	Policy Policy

	// Tools lists the registry names of capabilities this node may invoke.
	Tools []string

	// Children are the direct delegation targets, in declaration order.
	Children []*Node

	// OutputKey optionally names a state key to receive terminal text.
	OutputKey string
}

// Validate checks the subtree rooted at n: non-empty well-formed names,
// globally unique names, and a finite tree (no shared nodes, no cycles).
func (n *Node) Validate() error {
	seen := map[string]bool{}
	visiting := map[*Node]bool{}
	return n.validate(seen, visiting)
}

func (n *Node) validate(seen map[string]bool, visiting map[*Node]bool) error {
	if n == nil {
		return fmt.Errorf("nil node in hierarchy")
	}
	if visiting[n] {
		return fmt.Errorf("agent %q appears more than once in the hierarchy", n.Name)
	}
	visiting[n] = true
	if n.Name == "" {
		return fmt.Errorf("agent name must not be empty")
	}
	if !nameRe.MatchString(n.Name) {
		return fmt.Errorf("invalid agent name %q: must match %s", n.Name, nameRe.String())
	}
	if seen[n.Name] {
		return fmt.Errorf("duplicate agent name %q", n.Name)
	}
	seen[n.Name] = true
	if n.Policy == nil {
		return fmt.Errorf("agent %q has no policy", n.Name)
	}
	for _, child := range n.Children {
		if err := child.validate(seen, visiting); err != nil {
			return err
		}
	}
	return nil
}

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find walks the subtree and returns the node with the given name, or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every node in the subtree in depth-first declaration order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
