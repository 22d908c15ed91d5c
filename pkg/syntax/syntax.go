// Package syntax exposes Java source as a tree of kinded byte spans.
//
// Two backends produce the same node shape: a tree-sitter parser and a
// lexical scanner that derives a pseudo-tree from regular expressions over the
// source with strings and comments masked out. Node kinds use the tree-sitter
// Java grammar names in both cases.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Node kinds shared by both backends.
const (
	KindProgram            = "program"
	KindMethod             = "method_declaration"
	KindConstructor        = "constructor_declaration"
	KindFormalParameters   = "formal_parameters"
	KindFormalParameter    = "formal_parameter"
	KindSpreadParameter    = "spread_parameter"
	KindReceiverParameter  = "receiver_parameter"
	KindBlock              = "block"
	KindLocalVariable      = "local_variable_declaration"
	KindVariableDeclarator = "variable_declarator"
	KindIdentifier         = "identifier"
	KindMethodInvocation   = "method_invocation"
	KindFieldAccess        = "field_access"
)

// Field names used for named-child lookup.
const (
	FieldName       = "name"
	FieldParameters = "parameters"
	FieldBody       = "body"
	FieldField      = "field"
)

// Node is a handle into a parsed buffer.
type Node interface {
	Kind() string
	// Start and End delimit the node as [Start, End) byte offsets.
	Start() int
	End() int
	// Field returns the named child, or nil when it is absent.
	Field(name string) Node
	ChildCount() int
	Child(i int) Node
}

// Tree is the result of parsing one buffer.
type Tree interface {
	Root() Node
	// HasError reports whether the parser had to recover from malformed input.
	HasError() bool
	Close()
}

// Backend turns source bytes into a Tree.
type Backend interface {
	Name() string
	Parse(ctx context.Context, src []byte) (Tree, error)
}

// Backend names accepted by NewBackend.
const (
	BackendTreeSitter = "treesitter"
	BackendLexical    = "lexical"
)

// ErrUnknownBackend is returned by NewBackend for an unregistered name.
var ErrUnknownBackend = errors.New("unknown syntax backend")

var backends = map[string]func() Backend{
	BackendTreeSitter: func() Backend { return NewTreeSitter() },
	BackendLexical:    func() Backend { return NewLexical() },
}

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	factory, ok := backends[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (use %s)", ErrUnknownBackend, name, strings.Join(BackendNames(), " or "))
	}
	return factory(), nil
}

// BackendNames lists the registered backends in sorted order.
func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk visits root and its descendants depth-first in pre-order. Children of
// a node are skipped when visit returns false. An explicit stack is used so
// deeply nested method bodies cannot exhaust the goroutine stack.
func Walk(root Node, visit func(Node) bool) {
	if root == nil {
		return
	}
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			continue
		}
		for i := n.ChildCount() - 1; i >= 0; i-- {
			if child := n.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// Text returns the source text covered by n, or "" when the span does not fit src.
func Text(src []byte, n Node) string {
	if n == nil {
		return ""
	}
	start, end := n.Start(), n.End()
	if start < 0 || start > end || end > len(src) {
		return ""
	}
	return string(src[start:end])
}

// ChildOfKind returns the first direct child of n with the given kind.
func ChildOfKind(n Node, kind string) Node {
	if n == nil {
		return nil
	}
	for i := 0; i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
