package linkresolver

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	hrefRegex    = regexp.MustCompile(`(?i)<a\b[^>]*?\shref\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	bareURLRegex = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)
)

// trailing characters that end a sentence rather than a URL
const trailingPunct = ".,;:!?)]}"

// ResolveSingleLink returns the only external URL an entry refers to.
// Candidates come from the item's own links, anchors in rawHTML and bare URLs
// in cleanText. It reports false when there is no candidate or when several
// distinct ones exist.
func ResolveSingleLink(itemLinks []string, rawHTML, cleanText string) (string, bool) {
	var candidates []string
	for _, l := range itemLinks {
		if isHTTP(l) {
			candidates = append(candidates, l)
		}
	}
	candidates = append(candidates, AnchorHrefs(rawHTML)...)
	candidates = append(candidates, BareURLs(cleanText)...)

	distinct := dedupe(candidates)
	if len(distinct) != 1 {
		return "", false
	}
	return distinct[0], true
}

// AnchorHrefs lists href values of anchor tags in document order
func AnchorHrefs(fragment string) []string {
	if fragment == "" {
		return nil
	}
	var hrefs []string
	for _, m := range hrefRegex.FindAllStringSubmatch(fragment, -1) {
		href := m[1]
		if href == "" {
			href = m[2]
		}
		if href != "" {
			hrefs = append(hrefs, html.UnescapeString(href))
		}
	}
	return hrefs
}

// BareURLs lists http(s) URLs written out in plain text
func BareURLs(text string) []string {
	if text == "" {
		return nil
	}
	matches := bareURLRegex.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimRight(m, trailingPunct); m != "" {
			urls = append(urls, m)
		}
	}
	return urls
}

// dedupe trims candidates, drops anything that is not an absolute URL and
// removes case-insensitive duplicates keeping the first spelling.
func dedupe(candidates []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if !isAbsolute(c) {
			continue
		}
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func isAbsolute(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && (u.Host != "" || u.Opaque != "")
}

func isHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
