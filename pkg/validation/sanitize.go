package validation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// A tag opens with a letter, '/', '!' or '?' after '<'. An unterminated
	// tag swallows the rest of the input; a bare '<' is kept as text.
	tagRegex = regexp.MustCompile(`<[a-zA-Z/!?][^>]*(>|$)`)

	lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

	// Character references that must not be escaped a second time
	entityRegex = regexp.MustCompile(`^&(#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[a-zA-Z][a-zA-Z0-9]{1,31});`)
)

// Sanitize strips markup, drops control characters other than tab, CR and LF,
// trims surrounding whitespace and HTML-escapes the result.
//
// Existing character references are left alone, so Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(input string) string {
	return escapeHTML(stripMarkup(input))
}

// SingleLine replaces CR and LF with spaces.
func SingleLine(input string) string {
	return lineBreaks.Replace(input)
}

// stripMarkup is Sanitize without the escaping step. Length rules are
// measured on its output so entity expansion does not count against them.
// The result is stable: stripMarkup(stripMarkup(s)) == stripMarkup(s).
func stripMarkup(input string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	// Removing one tag can join the halves of another, as in "<<a>b>"
	for {
		next := tagRegex.ReplaceAllString(safe, "")
		if next == safe {
			break
		}
		safe = next
	}
	return strings.TrimSpace(safe)
}

func escapeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if m := entityRegex.FindString(s[i:]); m != "" {
				b.WriteString(m)
				i += len(m) - 1
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#039;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
