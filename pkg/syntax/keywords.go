package syntax

// reserved holds the 51 Java reserved words (including the unused const and
// goto, and the single underscore) plus the literals true, false and null.
var reserved = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {},
	"case": {}, "catch": {}, "char": {}, "class": {}, "const": {},
	"continue": {}, "default": {}, "do": {}, "double": {}, "else": {},
	"enum": {}, "extends": {}, "final": {}, "finally": {}, "float": {},
	"for": {}, "goto": {}, "if": {}, "implements": {}, "import": {},
	"instanceof": {}, "int": {}, "interface": {}, "long": {}, "native": {},
	"new": {}, "package": {}, "private": {}, "protected": {}, "public": {},
	"return": {}, "short": {}, "static": {}, "strictfp": {}, "super": {},
	"switch": {}, "synchronized": {}, "this": {}, "throw": {}, "throws": {},
	"transient": {}, "try": {}, "void": {}, "volatile": {}, "while": {},
	"_": {},

	"true": {}, "false": {}, "null": {},
}

// primitives are reserved words that can stand in a type position.
var primitives = map[string]struct{}{
	"boolean": {}, "byte": {}, "char": {}, "short": {}, "int": {},
	"long": {}, "float": {}, "double": {}, "void": {},
}

// IsReserved reports whether word is a Java reserved word or literal keyword.
func IsReserved(word string) bool {
	_, ok := reserved[word]
	return ok
}

func isPrimitive(word string) bool {
	_, ok := primitives[word]
	return ok
}
