package syntax

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// javaParserPool is a pool of reusable tree-sitter parsers for Java.
// A parser is not safe for concurrent use, so each Parse call borrows one.
var javaParserPool = sync.Pool{
	New: func() interface{} {
		return NewJavaParser()
	},
}

// NewJavaParser creates a tree-sitter parser configured for Java.
func NewJavaParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	return parser
}

// TreeSitter parses Java with the tree-sitter grammar.
type TreeSitter struct{}

// NewTreeSitter returns the tree-sitter backend.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

// Name returns the backend name.
func (*TreeSitter) Name() string {
	return BackendTreeSitter
}

// Parse parses src into a concrete syntax tree.
func (*TreeSitter) Parse(ctx context.Context, src []byte) (Tree, error) {
	parser := javaParserPool.Get().(*sitter.Parser)
	defer javaParserPool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter parse: no tree produced")
	}
	return &tsTree{tree: tree}, nil
}

type tsTree struct {
	tree *sitter.Tree
}

func (t *tsTree) Root() Node {
	return wrapTS(t.tree.RootNode())
}

func (t *tsTree) HasError() bool {
	root := t.tree.RootNode()
	return root == nil || root.HasError()
}

func (t *tsTree) Close() {
	t.tree.Close()
}

type tsNode struct {
	n *sitter.Node
}

// wrapTS keeps absent children as a nil interface rather than a typed nil.
func wrapTS(n *sitter.Node) Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return tsNode{n: n}
}

func (t tsNode) Kind() string {
	return t.n.Type()
}

func (t tsNode) Start() int {
	return int(t.n.StartByte())
}

func (t tsNode) End() int {
	return int(t.n.EndByte())
}

func (t tsNode) Field(name string) Node {
	return wrapTS(t.n.ChildByFieldName(name))
}

func (t tsNode) ChildCount() int {
	return int(t.n.ChildCount())
}

func (t tsNode) Child(i int) Node {
	return wrapTS(t.n.Child(i))
}
