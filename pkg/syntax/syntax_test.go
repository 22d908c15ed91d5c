package syntax

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

const sampleClass = `package demo;

public class Account {
    private long balance;

    public Account(long initial) { balance = initial; }

    // deposit adds amount
    public void deposit(final long amount, String... notes) {
        long next = balance + amount;
        for (int i = 0; i < notes.length; i++) { log(notes[i]); }
        balance = next;
    }

    public java.util.List<String> history(int limit) throws Exception {
        java.util.List<String> out = new java.util.ArrayList<>(), tmp = null;
        String label = "history()";
        return out;
    }

    abstract int size();
}
`

// outline is the backend-independent shape of a parsed buffer.
type outline struct {
	methods      []string
	params       []string
	declarators  []string
	constructors int
}

func outlineOf(t *testing.T, b Backend, src string) outline {
	t.Helper()
	tree, err := b.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("%s: parse failed: %v", b.Name(), err)
	}
	defer tree.Close()
	if tree.HasError() {
		t.Fatalf("%s: unexpected syntax error", b.Name())
	}

	var o outline
	Walk(tree.Root(), func(n Node) bool {
		switch n.Kind() {
		case KindMethod:
			o.methods = append(o.methods, Text([]byte(src), n.Field(FieldName)))
		case KindConstructor:
			o.constructors++
			return false
		case "field_declaration":
			// Only tree-sitter produces field nodes.
			return false
		case KindFormalParameter:
			o.params = append(o.params, Text([]byte(src), n.Field(FieldName)))
		case KindSpreadParameter:
			decl := ChildOfKind(n, KindVariableDeclarator)
			o.params = append(o.params, Text([]byte(src), decl.Field(FieldName)))
		case KindVariableDeclarator:
			o.declarators = append(o.declarators, Text([]byte(src), n.Field(FieldName)))
		}
		return true
	})
	return o
}

func TestBackendsAgreeOnOutline(t *testing.T) {
	want := outline{
		methods:     []string{"deposit", "history", "size"},
		params:      []string{"amount", "notes", "limit"},
		declarators: []string{"notes", "next", "i", "out", "tmp", "label"},
	}

	for _, b := range []Backend{NewTreeSitter(), NewLexical()} {
		t.Run(b.Name(), func(t *testing.T) {
			got := outlineOf(t, b, sampleClass)

			if !reflect.DeepEqual(got.methods, want.methods) {
				t.Errorf("methods = %v, want %v", got.methods, want.methods)
			}
			if !reflect.DeepEqual(got.params, want.params) {
				t.Errorf("params = %v, want %v", got.params, want.params)
			}
			if !reflect.DeepEqual(got.declarators, want.declarators) {
				t.Errorf("declarators = %v, want %v", got.declarators, want.declarators)
			}
		})
	}
}

func TestTreeSitterSeesConstructors(t *testing.T) {
	got := outlineOf(t, NewTreeSitter(), sampleClass)
	if got.constructors != 1 {
		t.Errorf("expected 1 constructor, got %d", got.constructors)
	}
}

func TestBackendsReportErrors(t *testing.T) {
	broken := []string{
		"class A { void f( { }",
		"class A { void f() { int x = 1; }",
		"class A { void f() { String s = \"open; } }",
	}
	for _, b := range []Backend{NewTreeSitter(), NewLexical()} {
		for _, src := range broken {
			tree, err := b.Parse(context.Background(), []byte(src))
			if err != nil {
				t.Fatalf("%s: parse returned error: %v", b.Name(), err)
			}
			if !tree.HasError() {
				t.Errorf("%s: expected syntax error for %q", b.Name(), src)
			}
			tree.Close()
		}
	}
}

func TestLexicalSkipsCallsAndKeywords(t *testing.T) {
	src := `class A {
    void run() {
        if (ready()) { helper.process(x); }
        Object o = new Object();
        while (more()) { yield(); }
        Runnable r = () -> go();
    }
}`
	got := outlineOf(t, NewLexical(), src)
	if !reflect.DeepEqual(got.methods, []string{"run"}) {
		t.Errorf("methods = %v, want [run]", got.methods)
	}
	if !reflect.DeepEqual(got.declarators, []string{"o", "r"}) {
		t.Errorf("declarators = %v, want [o r]", got.declarators)
	}
}

func TestLexicalIgnoresProtectedText(t *testing.T) {
	src := `class A {
    void run() {
        String s = "void fake(int a) { int b = 1; }";
        // int c = 2;
        /* void other() {} */
    }
}`
	got := outlineOf(t, NewLexical(), src)
	if !reflect.DeepEqual(got.methods, []string{"run"}) {
		t.Errorf("methods = %v, want [run]", got.methods)
	}
	if !reflect.DeepEqual(got.declarators, []string{"s"}) {
		t.Errorf("declarators = %v, want [s]", got.declarators)
	}
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"treesitter", " TreeSitter ", "lexical"} {
		b, err := NewBackend(name)
		if err != nil {
			t.Fatalf("NewBackend(%q): %v", name, err)
		}
		if b == nil {
			t.Fatalf("NewBackend(%q) returned nil", name)
		}
	}

	_, err := NewBackend("antlr")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}

	if got := BackendNames(); !reflect.DeepEqual(got, []string{"lexical", "treesitter"}) {
		t.Errorf("BackendNames() = %v", got)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	tree, err := NewTreeSitter().Parse(context.Background(), []byte("class A { void f() { int x = 1; } }"))
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	var kinds []string
	Walk(tree.Root(), func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindMethod
	})
	for _, k := range kinds {
		if k == KindLocalVariable {
			t.Fatal("walk entered a skipped method body")
		}
	}
	if kinds[0] != KindProgram {
		t.Errorf("expected pre-order to start at the root, got %s", kinds[0])
	}
}
