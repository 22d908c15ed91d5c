package obfuscator

import (
	"context"

	"github.com/l3aro/java-dataset-converter/pkg/patch"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

// nonReference lists named children that hold an identifier which is never a
// parameter or local: the selected member of a call or field access.
var nonReference = map[string]string{
	syntax.KindMethodInvocation: syntax.FieldName,
	syntax.KindFieldAccess:      syntax.FieldField,
}

// methodScope is one pending method together with the bindings and counter
// it inherits. Top-level methods start with neither.
type methodScope struct {
	method  syntax.Node
	parent  *ScopeTable
	counter *Counter
}

// RenameLocals renames the parameters and local variables of every method
// to VarPrefix+N and rewrites their references. Each top-level method has
// its own table and numbering restarting at 1. A method declared inside
// another method's body (local or anonymous class) inherits the enclosing
// table and continues its counter.
func (o *Obfuscator) RenameLocals(ctx context.Context, src []byte) Result {
	tree, err := o.parse(ctx, src)
	if err != nil {
		return unchanged(src, err)
	}
	defer tree.Close()

	var queue []methodScope
	syntax.Walk(tree.Root(), func(n syntax.Node) bool {
		if n.Kind() == syntax.KindMethod {
			queue = append(queue, methodScope{method: n})
			return false
		}
		return true
	})

	taken := o.taken(src)
	var edits []patch.Edit
	bound := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return unchanged(src, err)
		}
		job := queue[0]
		queue = queue[1:]

		counter := job.counter
		if counter == nil {
			counter = NewCounter(o.opts.VarPrefix, taken)
		}
		scope := NewScopeTable(job.parent)
		r := &scopeRenamer{src: src, scope: scope, counter: counter}
		nested := r.run(job.method)

		edits = append(edits, r.edits...)
		bound += scope.Own()
		for _, m := range nested {
			queue = append(queue, methodScope{method: m, parent: scope, counter: counter})
		}
	}

	if len(edits) == 0 {
		return unchanged(src, ErrNoTargets)
	}

	out, stats := patch.Apply(src, edits)
	return Result{
		Source: out,
		Status: Renamed,
		Locals: bound,
		Edits:  stats,
	}
}

type scopeRenamer struct {
	src     []byte
	scope   *ScopeTable
	counter *Counter
	edits   []patch.Edit
}

// run renames one method and returns the methods nested in its body.
func (r *scopeRenamer) run(method syntax.Node) []syntax.Node {
	r.captureParameters(method.Field(syntax.FieldParameters))

	body := method.Field(syntax.FieldBody)
	if body == nil {
		return nil
	}
	nested := r.captureLocals(body)
	r.rewriteReferences(body)
	return nested
}

func (r *scopeRenamer) captureParameters(params syntax.Node) {
	if params == nil {
		return
	}
	for i := 0; i < params.ChildCount(); i++ {
		p := params.Child(i)
		if p == nil {
			continue
		}
		switch p.Kind() {
		case syntax.KindFormalParameter, syntax.KindSpreadParameter, syntax.KindReceiverParameter:
			r.declare(parameterName(p))
		}
	}
}

// parameterName finds the name of a parameter; spread parameters carry it
// on a variable declarator child.
func parameterName(p syntax.Node) syntax.Node {
	if name := p.Field(syntax.FieldName); name != nil {
		return name
	}
	if decl := syntax.ChildOfKind(p, syntax.KindVariableDeclarator); decl != nil {
		return decl.Field(syntax.FieldName)
	}
	return nil
}

// captureLocals binds every local variable declarator in body, outer blocks
// before inner ones, and collects nested method declarations without
// entering them.
func (r *scopeRenamer) captureLocals(body syntax.Node) []syntax.Node {
	var nested []syntax.Node
	syntax.Walk(body, func(n syntax.Node) bool {
		switch n.Kind() {
		case syntax.KindMethod:
			nested = append(nested, n)
			return false
		case syntax.KindLocalVariable:
			for i := 0; i < n.ChildCount(); i++ {
				decl := n.Child(i)
				if decl != nil && decl.Kind() == syntax.KindVariableDeclarator {
					r.declare(decl.Field(syntax.FieldName))
				}
			}
		}
		return true
	})
	return nested
}

// declare binds the identifier at name and rewrites it.
func (r *scopeRenamer) declare(name syntax.Node) {
	if name == nil || name.Kind() != syntax.KindIdentifier {
		return
	}
	text := syntax.Text(r.src, name)
	if text == "" || syntax.IsReserved(text) {
		return
	}
	synthetic, _ := r.scope.Bind(text, r.counter.Next)
	r.edits = append(r.edits, patch.Edit{Start: name.Start(), End: name.End(), Text: synthetic})
}

// rewriteReferences replaces every identifier in body bound in the scope.
// Declarator names are visited again here; patch.Apply collapses the
// duplicate edits.
func (r *scopeRenamer) rewriteReferences(body syntax.Node) {
	skip := make(map[int]struct{})
	syntax.Walk(body, func(n syntax.Node) bool {
		kind := n.Kind()
		if kind == syntax.KindMethod {
			return false
		}
		if field, ok := nonReference[kind]; ok {
			if member := n.Field(field); member != nil {
				skip[member.Start()] = struct{}{}
			}
		}
		if kind != syntax.KindIdentifier {
			return true
		}
		if _, ok := skip[n.Start()]; ok {
			return false
		}
		text := syntax.Text(r.src, n)
		if syntax.IsReserved(text) {
			return false
		}
		if synthetic, ok := r.scope.Lookup(text); ok {
			r.edits = append(r.edits, patch.Edit{Start: n.Start(), End: n.End(), Text: synthetic})
		}
		return false
	})
}
