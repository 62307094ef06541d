package report

import "strings"

// Limits caps text by lines and bytes. Zero disables a bound.
type Limits struct {
	MaxLines int
	MaxBytes int
}

func (l Limits) enabled() bool { return l.MaxLines > 0 || l.MaxBytes > 0 }

// ApplyLimits truncates text by line count first, then by bytes. A byte cut
// never splits a UTF-8 sequence.
func ApplyLimits(text string, limits Limits) (out string, truncated bool) {
	if limits.MaxLines > 0 {
		lines := strings.SplitAfter(text, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		if len(lines) > limits.MaxLines {
			text = strings.Join(lines[:limits.MaxLines], "")
			truncated = true
		}
	}
	if limits.MaxBytes > 0 && len(text) > limits.MaxBytes {
		cut := limits.MaxBytes
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
		truncated = true
	}
	return text, truncated
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// truncateRunes keeps the first max runes of s.
func truncateRunes(s string, max int) (string, bool) {
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
