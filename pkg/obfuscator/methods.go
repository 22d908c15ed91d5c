package obfuscator

import (
	"context"

	"github.com/l3aro/java-dataset-converter/pkg/patch"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

// RenameMethods renames every method declaration to FuncPrefix+N, numbering
// from 1 in pre-order, which is source order including inner classes.
// Constructors are a different node kind and are never renamed; a
// declaration without a name child is skipped.
func (o *Obfuscator) RenameMethods(ctx context.Context, src []byte) Result {
	tree, err := o.parse(ctx, src)
	if err != nil {
		return unchanged(src, err)
	}
	defer tree.Close()

	edits := methodNameEdits(tree.Root(), src, NewCounter(o.opts.FuncPrefix, o.taken(src)))
	if len(edits) == 0 {
		return unchanged(src, ErrNoTargets)
	}

	out, stats := patch.Apply(src, edits)
	return Result{
		Source:  out,
		Status:  Renamed,
		Methods: stats.Applied,
		Edits:   stats,
	}
}

func methodNameEdits(root syntax.Node, src []byte, counter *Counter) []patch.Edit {
	var edits []patch.Edit
	syntax.Walk(root, func(n syntax.Node) bool {
		if n.Kind() != syntax.KindMethod {
			return true
		}
		name := n.Field(syntax.FieldName)
		if name == nil || syntax.IsReserved(syntax.Text(src, name)) {
			return true
		}
		edits = append(edits, patch.Edit{
			Start: name.Start(),
			End:   name.End(),
			Text:  counter.Next(),
		})
		return true
	})
	return edits
}
