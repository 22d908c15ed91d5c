package syntax

import (
	"context"
	"regexp"
	"sort"
)

var (
	// callPattern finds an identifier directly followed by an opening parenthesis.
	callPattern = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*\s*\(`)

	// tokenPattern finds word tokens; tokens that start with a digit are numeric literals.
	tokenPattern = regexp.MustCompile(`[A-Za-z0-9_$]+`)

	// localDeclPattern matches the head of a local variable declaration:
	// modifiers and annotations, the type, the first declarator name and the
	// byte that follows it. It is anchored at a statement boundary.
	localDeclPattern = regexp.MustCompile(
		`^\s*((?:(?:final|@[A-Za-z_$][A-Za-z0-9_$.]*)\s+)*)` +
			`([A-Za-z_$][A-Za-z0-9_$]*(?:\s*\.\s*[A-Za-z_$][A-Za-z0-9_$]*)*(?:\s*<[A-Za-z0-9_$\s,.?\[\]<>]*>)?(?:\s*\[\s*\])*)` +
			`\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*[=;,\[]`)
)

// nonTypeWords are identifiers that are not reserved but never start a
// declaration: yield statements and record headers.
var nonTypeWords = map[string]struct{}{
	"yield":  {},
	"record": {},
}

// Lexical derives a pseudo syntax tree from the raw character stream. String
// and char literals, text blocks and comments are masked before any pattern
// is applied, so nothing inside them ever becomes a node.
type Lexical struct{}

// NewLexical returns the lexical backend.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Name returns the backend name.
func (*Lexical) Name() string {
	return BackendLexical
}

// Parse builds the pseudo-tree for src.
func (*Lexical) Parse(ctx context.Context, src []byte) (Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := newLexBuilder(src)
	return b.build(), nil
}

type lexNode struct {
	kind     string
	start    int
	end      int
	fields   map[string]*lexNode
	children []*lexNode
}

func (n *lexNode) Kind() string { return n.kind }
func (n *lexNode) Start() int   { return n.start }
func (n *lexNode) End() int     { return n.end }

func (n *lexNode) Field(name string) Node {
	if child, ok := n.fields[name]; ok && child != nil {
		return child
	}
	return nil
}

func (n *lexNode) ChildCount() int { return len(n.children) }

func (n *lexNode) Child(i int) Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *lexNode) setField(name string, child *lexNode) {
	if n.fields == nil {
		n.fields = make(map[string]*lexNode)
	}
	n.fields[name] = child
}

type lexTree struct {
	root     *lexNode
	hasError bool
}

func (t *lexTree) Root() Node     { return t.root }
func (t *lexTree) HasError() bool { return t.hasError }
func (t *lexTree) Close()         {}

type lexBuilder struct {
	src       []byte
	masked    []byte
	protected []Range
	nodes     []*lexNode
	idents    map[int]*lexNode
	bodies    []Range
	hasError  bool
}

func newLexBuilder(src []byte) *lexBuilder {
	protected := ProtectedRanges(src)
	return &lexBuilder{
		src:       src,
		masked:    Mask(src, protected),
		protected: protected,
		idents:    make(map[int]*lexNode),
	}
}

func (b *lexBuilder) build() *lexTree {
	b.checkBalance()
	b.findMethods()
	outer := outermost(b.bodies)
	b.findLocals(outer)
	b.findIdentifiers(outer)

	for _, id := range b.idents {
		b.nodes = append(b.nodes, id)
	}

	root := &lexNode{kind: KindProgram, start: 0, end: len(b.src)}
	nest(root, b.nodes)
	return &lexTree{root: root, hasError: b.hasError}
}

// ident returns the identifier node at [start, end), creating it once.
func (b *lexBuilder) ident(start, end int) *lexNode {
	if n, ok := b.idents[start]; ok {
		return n
	}
	n := &lexNode{kind: KindIdentifier, start: start, end: end}
	b.idents[start] = n
	return n
}

func (b *lexBuilder) add(kind string, start, end int) *lexNode {
	n := &lexNode{kind: kind, start: start, end: end}
	b.nodes = append(b.nodes, n)
	return n
}

func (b *lexBuilder) checkBalance() {
	var braces, parens int
	for _, c := range b.masked {
		switch c {
		case '{':
			braces++
		case '}':
			braces--
		case '(':
			parens++
		case ')':
			parens--
		}
		if braces < 0 || parens < 0 {
			b.hasError = true
			return
		}
	}
	if braces != 0 || parens != 0 {
		b.hasError = true
	}
	for _, r := range b.protected {
		if !terminated(b.src[r.Start:r.End], r.Kind) {
			b.hasError = true
			return
		}
	}
}

func (b *lexBuilder) findMethods() {
	m := b.masked
	for _, loc := range callPattern.FindAllIndex(m, -1) {
		nameStart := loc[0]
		if nameStart > 0 && isIdentByte(m[nameStart-1]) {
			continue
		}
		nameEnd := identEnd(m, nameStart)
		name := string(m[nameStart:nameEnd])
		if IsReserved(name) {
			continue
		}
		if _, skip := nonTypeWords[name]; skip {
			continue
		}
		typeStart, ok := b.returnTypeStart(nameStart)
		if !ok {
			continue
		}

		open := loc[1] - 1
		closeParen := matchForward(m, open, '(', ')')
		if closeParen < 0 {
			b.hasError = true
			continue
		}

		after := skipDims(m, skipSpace(m, closeParen+1))
		after = skipThrows(m, after)
		if after >= len(m) {
			continue
		}

		var body *lexNode
		end := after + 1
		switch m[after] {
		case '{':
			closeBrace := matchForward(m, after, '{', '}')
			if closeBrace < 0 {
				b.hasError = true
				continue
			}
			end = closeBrace + 1
			body = b.add(KindBlock, after, end)
		case ';':
			if InRanges(outermost(b.bodies), nameStart) {
				continue
			}
		default:
			continue
		}

		method := b.add(KindMethod, typeStart, end)
		method.setField(FieldName, b.ident(nameStart, nameEnd))
		params := b.add(KindFormalParameters, open, closeParen+1)
		method.setField(FieldParameters, params)
		b.parseParameters(open+1, closeParen)
		if body != nil {
			method.setField(FieldBody, body)
			b.bodies = append(b.bodies, Range{Start: body.start, End: body.end})
		}
	}
	sort.Slice(b.bodies, func(i, j int) bool { return b.bodies[i].Start < b.bodies[j].Start })
}

// returnTypeStart walks back from a method name over the return type and
// reports where it begins. It fails when the preceding token cannot end a
// type, which rules out calls, constructors and keyword-led statements.
func (b *lexBuilder) returnTypeStart(nameStart int) (int, bool) {
	m := b.masked
	j := skipSpaceBack(m, nameStart)
	if j < 0 {
		return 0, false
	}

	for j >= 0 && m[j] == ']' {
		k := skipSpaceBack(m, j)
		if k < 0 || m[k] != '[' {
			return 0, false
		}
		j = skipSpaceBack(m, k)
	}
	if j < 0 {
		return 0, false
	}
	if m[j] == '>' {
		if j > 0 && m[j-1] == '-' {
			return 0, false
		}
		k := matchBackward(m, j, '<', '>')
		if k < 0 {
			return 0, false
		}
		j = skipSpaceBack(m, k)
		if j < 0 {
			return 0, false
		}
	}
	if !isIdentByte(m[j]) {
		return 0, false
	}

	wordStart := identStartBack(m, j)
	word := string(m[wordStart : j+1])
	if isDigit(word[0]) {
		return 0, false
	}
	if IsReserved(word) && !isPrimitive(word) {
		return 0, false
	}
	if _, skip := nonTypeWords[word]; skip {
		return 0, false
	}

	// Qualified type names: java.util.List
	for {
		k := skipSpaceBack(m, wordStart)
		if k < 0 || m[k] != '.' {
			break
		}
		p := skipSpaceBack(m, k)
		if p < 0 || !isIdentByte(m[p]) {
			return 0, false
		}
		wordStart = identStartBack(m, p)
	}

	if k := skipSpaceBack(m, wordStart); k >= 0 {
		switch m[k] {
		case '.', '=', ',', '(', '!', '&', '|', '+', '-', '*', '/', '%', '?', ':':
			return 0, false
		}
	}
	return wordStart, true
}

// parseParameters splits the parameter list (from, to) at top-level commas.
func (b *lexBuilder) parseParameters(from, to int) {
	for _, seg := range splitTopLevel(b.masked, from, to, true) {
		start := skipSpace(b.masked, seg.Start)
		end := trimSpaceBack(b.masked, start, seg.End)
		if start >= end {
			continue
		}

		nameEnd := end
		// Array dimensions after the name: String args[]
		for nameEnd > start && b.masked[nameEnd-1] == ']' {
			k := skipSpaceBack(b.masked, nameEnd-1)
			if k < 0 || b.masked[k] != '[' {
				break
			}
			nameEnd = trimSpaceBack(b.masked, start, k)
		}
		if nameEnd <= start || !isIdentByte(b.masked[nameEnd-1]) {
			continue
		}
		nameStart := identStartBack(b.masked, nameEnd-1)
		if nameStart <= stripParameterNoise(b.masked, start, nameStart) {
			// Nothing but modifiers before the name: not a typed parameter.
			continue
		}

		kind := KindFormalParameter
		if containsEllipsis(b.masked[start:nameStart]) {
			kind = KindSpreadParameter
		}
		param := b.add(kind, start, end)
		name := b.ident(nameStart, nameEnd)
		if kind == KindSpreadParameter {
			decl := b.add(KindVariableDeclarator, nameStart, nameEnd)
			decl.setField(FieldName, name)
			continue
		}
		param.setField(FieldName, name)
	}
}

// stripParameterNoise skips annotations (@Name, @Name(...)) and the final
// modifier at the front of a parameter and returns where the type begins.
func stripParameterNoise(m []byte, start, limit int) int {
	i := start
	for i < limit {
		i = skipSpace(m, i)
		switch {
		case i < limit && m[i] == '@':
			i = identEnd(m, skipSpace(m, i+1))
			for i < limit && m[i] == '.' {
				i = identEnd(m, i+1)
			}
			if j := skipSpace(m, i); j < limit && m[j] == '(' {
				if closeParen := matchForward(m, j, '(', ')'); closeParen >= 0 {
					i = closeParen + 1
				}
			}
		case hasWordAt(m, i, "final"):
			i += len("final")
		default:
			return i
		}
	}
	return i
}

// findLocals matches declaration heads at every statement boundary inside a
// method body.
func (b *lexBuilder) findLocals(bodies []Range) {
	m := b.masked
	for p := 0; p < len(m); p++ {
		switch m[p] {
		case '{', '}', ';', ':':
		case '(':
			if !precededByWord(m, p, "for") {
				continue
			}
		default:
			continue
		}
		if !InRanges(bodies, p) {
			continue
		}

		loc := localDeclPattern.FindSubmatchIndex(m[p+1:])
		if loc == nil {
			continue
		}
		base := p + 1
		typeStart := base + loc[4]
		nameStart, nameEnd := base+loc[6], base+loc[7]

		typeWord := string(m[typeStart:identEnd(m, typeStart)])
		if IsReserved(typeWord) && !isPrimitive(typeWord) {
			continue
		}
		if _, skip := nonTypeWords[typeWord]; skip {
			continue
		}
		if IsReserved(string(m[nameStart:nameEnd])) {
			continue
		}

		declStart := typeStart
		if loc[3] > loc[2] {
			declStart = skipSpace(m, base+loc[2])
		}
		end := statementEnd(m, nameStart)
		if end < 0 {
			b.hasError = true
			continue
		}
		b.add(KindLocalVariable, declStart, end+1)

		for _, seg := range splitTopLevel(m, nameStart, end, false) {
			s := skipSpace(m, seg.Start)
			if s >= seg.End || !isIdentStart(m[s]) {
				continue
			}
			e := identEnd(m, s)
			if IsReserved(string(m[s:e])) {
				continue
			}
			declEnd := trimSpaceBack(m, s, seg.End)
			decl := b.add(KindVariableDeclarator, s, declEnd)
			decl.setField(FieldName, b.ident(s, e))
		}
	}
}

// findIdentifiers records every word token inside a body that can denote a
// variable: not numeric, not a member selected with '.', '::' or '@', and
// not followed by '('.
func (b *lexBuilder) findIdentifiers(bodies []Range) {
	m := b.masked
	for _, loc := range tokenPattern.FindAllIndex(m, -1) {
		start, end := loc[0], loc[1]
		if isDigit(m[start]) || !InRanges(bodies, start) {
			continue
		}
		if k := skipSpaceBack(m, start); k >= 0 {
			if m[k] == '@' || (m[k] == '.' && !(k > 0 && m[k-1] == '.')) {
				continue
			}
			if m[k] == ':' && k > 0 && m[k-1] == ':' {
				continue
			}
		}
		if k := skipSpace(m, end); k < len(m) && m[k] == '(' {
			continue
		}
		b.ident(start, end)
	}
}

var kindRank = map[string]int{
	KindMethod:             0,
	KindFormalParameters:   1,
	KindBlock:              1,
	KindFormalParameter:    2,
	KindSpreadParameter:    2,
	KindLocalVariable:      2,
	KindVariableDeclarator: 3,
	KindIdentifier:         4,
}

// nest arranges flat nodes under root by span containment. A node that only
// partially overlaps its predecessor is attached to the nearest ancestor that
// fully contains it.
func nest(root *lexNode, nodes []*lexNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end > b.end
		}
		return kindRank[a.kind] < kindRank[b.kind]
	})

	stack := []*lexNode{root}
	for _, n := range nodes {
		for len(stack) > 1 {
			top := stack[len(stack)-1]
			if n.start >= top.start && n.end <= top.end {
				break
			}
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, n)
		stack = append(stack, n)
	}
}

// outermost drops ranges nested inside an earlier range. Input is sorted by Start.
func outermost(ranges []Range) []Range {
	var out []Range
	for _, r := range ranges {
		if len(out) > 0 && r.Start < out[len(out)-1].End {
			continue
		}
		out = append(out, r)
	}
	return out
}
