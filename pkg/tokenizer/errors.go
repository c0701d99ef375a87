package tokenizer

import "fmt"

// ParseError reports a malformed numeric literal, an unterminated string,
// or an illegal character, with the byte position (within the overall
// input stream) and the offending character.
type ParseError struct {
	Pos       int
	Offending byte
	Detail    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tokenizer: %s at byte %d (offending char %q)", e.Detail, e.Pos, e.Offending)
}
