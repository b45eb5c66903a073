// Package htmltext turns feed HTML fragments into plain text.
//
// Everything here is regexp based and never fails: malformed markup degrades
// into stripped text instead of an error.
package htmltext

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptRegex     = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	breakRegex      = regexp.MustCompile(`(?i)<(?:br|p|/p)\b[^>]*>`)
	tagRegex        = regexp.MustCompile(`(?s)<[^<>]*>`)
	blankLineRegex  = regexp.MustCompile(`(?m)^[\p{Zs}\t]+$`)
	newlineRunRegex = regexp.MustCompile(`\n{3,}`)

	imgSrcRegex  = regexp.MustCompile(`(?is)<img\b[^>]*?\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	articleRegex = regexp.MustCompile(`(?is)<article\b[^>]*>(.*?)</article\s*>`)
	bodyRegex    = regexp.MustCompile(`(?is)<body\b[^>]*>(.*?)</body\s*>`)
)

// Clean converts an HTML fragment into plain text.
// Paragraph and line breaks survive as newlines and runs of blank lines are
// collapsed to a single one.
func Clean(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	text := StripControl(html.UnescapeString(fragment))
	text = scriptRegex.ReplaceAllString(text, "")
	text = breakRegex.ReplaceAllString(text, "\n")
	text = tagRegex.ReplaceAllString(text, "")
	// Leftovers of unbalanced markup
	text = strings.NewReplacer("<", "", ">", "").Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)

	text = blankLineRegex.ReplaceAllString(text, "")
	text = newlineRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripControl drops characters that cannot appear in XML 1.0 text:
// C0 controls other than tab, newline and carriage return, and U+FFFE, U+FFFF.
// Numeric entities such as &#1; decode into them.
func StripControl(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, s)
}

func isControl(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r < 0x20:
		return true
	default:
		return r == 0xFFFE || r == 0xFFFF
	}
}

// FirstImageURL returns the src of the first <img> tag in document order
func FirstImageURL(fragment string) (string, bool) {
	if strings.TrimSpace(fragment) == "" {
		return "", false
	}
	m := imgSrcRegex.FindStringSubmatch(fragment)
	if m == nil {
		return "", false
	}
	src := m[1]
	if src == "" {
		src = m[2]
	}
	src = strings.TrimSpace(html.UnescapeString(src))
	if src == "" {
		return "", false
	}
	return src, true
}

// MainArticle picks the region of a page most likely to hold the article:
// the first <article> block, else <body>, else the whole document.
func MainArticle(page string) string {
	if page == "" {
		return ""
	}
	if m := articleRegex.FindStringSubmatch(page); m != nil {
		return m[1]
	}
	if m := bodyRegex.FindStringSubmatch(page); m != nil {
		return m[1]
	}
	return page
}
