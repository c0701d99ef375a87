package tokenizer

import (
	"strings"

	"github.com/rconybea/ordinaltree/pkg/untrust"
	"github.com/rconybea/ordinaltree/pkg/zc"
)

// punct is the fixed single-character punctuation set: angle, paren,
// bracket, brace, comma, semicolon, colon, equals. '-', '+', and '.' are
// deliberately excluded: they are symbol constituents (and may start a
// numeric literal), so `a-b` scans as the single symbol "a-b" rather than
// three tokens.
const punct = "<>()[]{},;:="

// partialKind tags what kind of token [Tokenizer.pending] is a prefix of.
type partialKind int8

const (
	partialNone partialKind = iota
	partialSymbol
	partialString
	partialNumber
)

// Tokenizer scans successive chunks of a character stream into [Token]s.
// The zero Tokenizer is ready to use. Call [Tokenizer.Scan] once per chunk
// and [Tokenizer.Finish] once no further input is coming, to resolve any
// text left buffered mid-token.
type Tokenizer struct {
	pending         []byte
	pendingKind     partialKind
	pendingStartPos int
	streamPos       int
}

// New constructs an empty Tokenizer.
func New() *Tokenizer { return &Tokenizer{} }

// Scan tokenizes chunk, prepending any text buffered from an incomplete
// token at the end of a previous Scan call. If chunk ends mid-string or
// mid-identifier, the partial text is retained (not returned as a token)
// and prepended to the next Scan call, or resolved by [Tokenizer.Finish].
func (t *Tokenizer) Scan(chunk []byte) ([]Token, error) {
	base := t.streamPos
	buf := chunk
	if len(t.pending) > 0 {
		buf = make([]byte, 0, len(t.pending)+len(chunk))
		buf = append(buf, t.pending...)
		buf = append(buf, chunk...)
		base = t.pendingStartPos
	}
	t.pending = nil
	t.pendingKind = partialNone

	var out []Token
	pos := 0 // offset into buf
	r := untrust.NewReader(untrust.Input(buf))

	advance := func() (byte, bool) {
		b, err := r.ReadByte()
		if err != nil {
			return 0, false
		}
		pos++
		return b, true
	}
	peek := func() (byte, bool) {
		c := r.Clone()
		b, err := c.ReadByte()
		if err != nil {
			return 0, false
		}
		return b, true
	}

	for {
		for {
			c, ok := peek()
			if !ok || !isSpace(c) {
				break
			}
			advance()
		}
		if r.AtEnd() {
			break
		}

		start := pos
		c, _ := peek()

		switch {
		case isDigit(c):
			tok, newPos, err := t.scanNumber(buf, base, start, advance, peek)
			if err != nil {
				return out, err
			}
			if tok == nil {
				t.bufferPartial(buf, partialNumber, start, base)
				pos = newPos
				return out, nil
			}
			out = append(out, *tok)
			pos = newPos

		case (c == '+' || c == '-' || c == '.') && digitFollows(c, peek, r):
			tok, newPos, err := t.scanNumber(buf, base, start, advance, peek)
			if err != nil {
				return out, err
			}
			if tok == nil {
				t.bufferPartial(buf, partialNumber, start, base)
				pos = newPos
				return out, nil
			}
			out = append(out, *tok)
			pos = newPos

		case c == '"':
			advance()
			text, complete, err := scanStringBody(advance, peek)
			if err != nil {
				return out, err
			}
			if !complete {
				t.bufferPartial(buf, partialString, start, base)
				return out, nil
			}
			out = append(out, Token{Kind: String, Text: text, Pos: base + start})

		case isSymbolStart(c):
			for {
				c, ok := peek()
				if !ok || !isSymbolConstituent(c) {
					break
				}
				advance()
			}
			if r.AtEnd() {
				t.bufferPartial(buf, partialSymbol, start, base)
				return out, nil
			}
			out = append(out, symbolToken(buf, base, start, pos))

		case strings.IndexByte(punct, c) >= 0:
			advance()
			out = append(out, Token{Kind: Punct, Text: string(c), Pos: base + start})

		default:
			advance()
			return out, &ParseError{Pos: base + start, Offending: c, Detail: "illegal character"}
		}
	}

	t.streamPos = base + pos
	return out, nil
}

// Finish resolves any text buffered mid-token into a final token. Call it
// once no further input will arrive.
func (t *Tokenizer) Finish() (*Token, error) {
	if t.pendingKind == partialNone {
		return nil, nil
	}
	buf := t.pending
	base := t.pendingStartPos
	t.pending = nil
	kind := t.pendingKind
	t.pendingKind = partialNone

	switch kind {
	case partialString:
		return nil, &ParseError{Pos: base, Offending: '"', Detail: "unterminated string"}
	case partialSymbol:
		tok := symbolToken(buf, base, 0, len(buf))
		return &tok, nil
	case partialNumber:
		// A trailing space terminates the literal, so scanNumber does not
		// treat the end of the buffer as input running out mid-literal.
		buf = append(buf, ' ')
		pos := 0
		r := untrust.NewReader(untrust.Input(buf))
		advance := func() (byte, bool) {
			b, err := r.ReadByte()
			if err != nil {
				return 0, false
			}
			pos++
			return b, true
		}
		peek := func() (byte, bool) {
			c := r.Clone()
			b, err := c.ReadByte()
			if err != nil {
				return 0, false
			}
			return b, true
		}
		tok, _, err := t.scanNumber(buf, base, 0, advance, peek)
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return nil, &ParseError{Pos: base, Offending: buf[len(buf)-1], Detail: "incomplete numeric literal"}
		}
		return tok, nil
	}
	return nil, nil
}

func (t *Tokenizer) bufferPartial(buf []byte, kind partialKind, start int, base int) {
	t.pending = append([]byte(nil), buf[start:]...)
	t.pendingKind = kind
	t.pendingStartPos = base + start
}

func digitFollows(_ byte, peek func() (byte, bool), r *untrust.Reader) bool {
	c := r.Clone()
	if _, err := c.ReadByte(); err != nil {
		return false
	}
	b, err := c.ReadByte()
	if err != nil {
		return false
	}
	return isDigit(b)
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isSymbolStart(c byte) bool {
	return isAlpha(c) || c == '_' || c == '+' || c == '-' || c == '.'
}

func isSymbolConstituent(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '+' || c == '-' || c == '.'
}

func symbolToken(buf []byte, base, start, end int) Token {
	view := zc.Raw(start, end-start)
	text := view.String(&buf[0])
	kind := Symbol
	if keywords[text] {
		kind = Keyword
	}
	return Token{Kind: kind, Text: text, Pos: base + start}
}

// scanNumber runs the numeric one-pass state machine starting at buf[start],
// consuming an optional sign, an integer part, an optional fractional part,
// and an optional signed exponent. It returns (nil, newPos, nil) if the
// buffer ran out mid-literal (a candidate for mid-input buffering), or a
// completed token, or a *ParseError for a literal that is unambiguously
// malformed (e.g. a dangling '.' or 'e' with no following digits, or a
// letter immediately following the literal).
func (t *Tokenizer) scanNumber(buf []byte, base, start int, advance, peek func() (byte, bool)) (*Token, int, error) {
	pos := start
	step := func() {
		advance()
		pos++
	}

	if c, ok := peek(); ok && (c == '+' || c == '-') {
		step()
	}

	digits := 0
	for {
		c, ok := peek()
		if !ok {
			return nil, pos, nil
		}
		if !isDigit(c) {
			break
		}
		step()
		digits++
	}
	nextIsDot := false
	if c, ok := peek(); ok && c == '.' {
		nextIsDot = true
	}
	if digits == 0 && !nextIsDot {
		c, _ := peek()
		return nil, pos, &ParseError{Pos: base + pos, Offending: c, Detail: "malformed numeric literal"}
	}

	isFloat := false
	if c, ok := peek(); ok && c == '.' {
		isFloat = true
		step()
		fracDigits := 0
		for {
			c, ok := peek()
			if !ok {
				return nil, pos, nil
			}
			if !isDigit(c) {
				break
			}
			step()
			fracDigits++
		}
		if fracDigits == 0 {
			c, ok := peek()
			if !ok {
				return nil, pos, nil
			}
			return nil, pos, &ParseError{Pos: base + pos, Offending: c, Detail: "malformed numeric literal: dangling '.'"}
		}
	}

	if c, ok := peek(); ok && (c == 'e' || c == 'E') {
		isFloat = true
		step()
		if c, ok := peek(); ok && (c == '+' || c == '-') {
			step()
		}
		expDigits := 0
		for {
			c, ok := peek()
			if !ok {
				return nil, pos, nil
			}
			if !isDigit(c) {
				break
			}
			step()
			expDigits++
		}
		if expDigits == 0 {
			c, ok := peek()
			if !ok {
				return nil, pos, nil
			}
			return nil, pos, &ParseError{Pos: base + pos, Offending: c, Detail: "malformed numeric literal: exponent has no digits"}
		}
	}

	if c, ok := peek(); ok && (isAlpha(c) || c == '_') {
		return nil, pos, &ParseError{Pos: base + pos, Offending: c, Detail: "malformed numeric literal"}
	}

	kind := Int
	if isFloat {
		kind = Float
	}
	view := zc.Raw(start, pos-start)
	return &Token{Kind: kind, Text: view.String(&buf[0]), Pos: base + start}, pos, nil
}

// scanStringBody consumes the interior of a double-quoted string, resolving
// \\, \n, \r, \t, \" escapes. It returns (text, true, nil) once the closing
// quote is found, or (_, false, nil) if the buffer ran out first (a
// candidate for mid-input buffering).
func scanStringBody(advance, peek func() (byte, bool)) (string, bool, error) {
	var sb strings.Builder
	for {
		c, ok := peek()
		if !ok {
			return "", false, nil
		}
		advance()
		if c == '"' {
			return sb.String(), true, nil
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		esc, ok := peek()
		if !ok {
			return "", false, nil
		}
		advance()
		switch esc {
		case '\\':
			sb.WriteByte('\\')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		default:
			return "", false, &ParseError{Offending: esc, Detail: "unrecognized escape sequence"}
		}
	}
}
