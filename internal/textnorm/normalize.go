// Package textnorm canonicalizes text extracted from scanned pages so that
// differently-tokenized representations of the same physical text compare
// equal. Case is preserved; everything else (unicode forms, smart punctuation,
// control characters, whitespace runs) is folded to a single canonical form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// smartPunct maps typographic punctuation to its ASCII equivalent. PDF text
// extraction and HTML sources disagree on these constantly.
var smartPunct = map[rune]string{
	'‘': "'",  // left single quote
	'’': "'",  // right single quote
	'‚': "'",  // single low-9 quote
	'‛': "'",  // single high-reversed-9 quote
	'“': `"`,  // left double quote
	'”': `"`,  // right double quote
	'„': `"`,  // double low-9 quote
	'–': "-",  // en dash
	'—': "-",  // em dash
	'―': "-",  // horizontal bar
	'‐': "-",  // hyphen
	'‑': "-",  // non-breaking hyphen
	'…': "...", // ellipsis
	' ': " ",  // no-break space
	' ': " ",  // thin space
	' ': " ",  // hair space
	' ': " ",  // en space
	' ': " ",  // em space
}

// Normalize returns the canonical form of s: NFKC-normalized, smart
// punctuation folded to ASCII, control characters stripped, and whitespace
// collapsed to single spaces with leading/trailing whitespace removed.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := smartPunct[r]; ok {
			b.WriteString(repl)
			continue
		}
		if unicode.IsControl(r) {
			// Treat embedded newlines/tabs as word separators, drop the rest.
			if r == '\n' || r == '\t' || r == '\r' {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Key returns the case-folded canonical form used for set membership and
// similarity scoring, where capitalization differences between sources
// (e.g. small-caps headings) should not count as mismatches.
func Key(s string) string {
	return strings.ToLower(Normalize(s))
}
