// Package notation turns raw move tokens into display text.
package notation

// Separator marks notation that is already split (castling "O-O", results "1-0").
const Separator = '-'

// Format splits a turn-number prefixed token such as "1e4" into "1 e4".
// It reports false when no transformation applies: tokens shorter than two
// bytes, tokens whose second byte is the separator, and tokens that do not
// start with a digit. The split follows that single-byte digit, so
// multi-byte text is never cut. Callers fall back to the raw text.
func Format(raw string) (string, bool) {
	if len(raw) < 2 {
		return "", false
	}
	if raw[1] == Separator {
		return "", false
	}
	if raw[0] < '0' || raw[0] > '9' {
		return "", false
	}
	return raw[:1] + " " + raw[1:], true
}

// Display returns the formatted token, or raw when Format does not apply.
func Display(raw string) string {
	if s, ok := Format(raw); ok {
		return s
	}
	return raw
}
