// Package tokenizer scans a character stream into integers, decimals,
// string literals, bracketed symbols, punctuation, and keywords, in the
// style of a small interactive language's lexer. It exists to exercise
// [zc.View] and [untrust.Input] over a second, independent container
// workload (see the B+-tree/red-black-tree packages for the primary one).
package tokenizer

// Kind classifies a Token.
type Kind int

const (
	Int Kind = iota
	Float
	String
	Symbol
	Punct
	Keyword
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Symbol:
		return "symbol"
	case Punct:
		return "punct"
	case Keyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// keywords is the fixed keyword set; any Symbol token whose text matches one
// of these is reclassified as Keyword at assembly time.
var keywords = map[string]bool{
	"type": true, "def": true, "lambda": true,
	"if": true, "let": true, "in": true, "end": true,
}

// Token is a single lexical unit. Text preserves the original source text
// for Int/Float/Symbol/String tokens (with String escapes already
// resolved); Punct tokens carry their single-character text too, for
// uniformity. Pos is the byte offset of the token's first character within
// the overall input stream (across every Scan call), used for error
// reporting.
type Token struct {
	Kind Kind
	Text string
	Pos  int
}
