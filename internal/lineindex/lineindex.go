// Package lineindex encodes and decodes the per-table ID index blob.
//
// The index is a line-oriented text buffer: one ID token per line,
// terminated by LF or CR. The format tolerates hand-edited files: CRLF,
// bare CR, a missing final terminator, and blank lines all parse cleanly.
package lineindex

// Parse scans data character by character and returns the tokens found.
//
// A token ends at the first '\n' or '\r'. A non-empty trailing token with no
// terminator counts as a final token. Empty tokens (blank lines, the LF half
// of a CRLF pair) are skipped. Empty input yields no tokens.
func Parse(data []byte) []string {
	var tokens []string
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i > start {
				tokens = append(tokens, string(data[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(data) {
		tokens = append(tokens, string(data[start:]))
	}
	return tokens
}

// Format renders tokens one per line, every line LF-terminated including the
// last. Formatting no tokens yields an empty buffer.
func Format(tokens []string) []byte {
	n := 0
	for _, tok := range tokens {
		n += len(tok) + 1
	}
	buf := make([]byte, 0, n)
	for _, tok := range tokens {
		buf = append(buf, tok...)
		buf = append(buf, '\n')
	}
	return buf
}

// AppendRecord returns the bytes to append to an index currently holding
// existing in order to add token as a new line.
//
// If existing does not end in a line terminator, a terminator is prepended
// so the previously last token stays independently parseable.
func AppendRecord(existing []byte, token string) []byte {
	buf := make([]byte, 0, len(token)+2)
	if len(existing) > 0 {
		if last := existing[len(existing)-1]; last != '\n' && last != '\r' {
			buf = append(buf, '\n')
		}
	}
	buf = append(buf, token...)
	return append(buf, '\n')
}
