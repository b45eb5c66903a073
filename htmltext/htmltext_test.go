package htmltext

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    " \n\t ",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Breaking news.",
			expected: "Breaking news.",
		},
		{
			name:     "paragraphs",
			input:    "<p>First</p><p>Second</p>",
			expected: "First\n\nSecond",
		},
		{
			name:     "line breaks",
			input:    "one<br>two<BR/>three<br />four",
			expected: "one\ntwo\nthree\nfour",
		},
		{
			name:     "entities decoded",
			input:    "Tom &amp; Jerry &quot;live&quot; &#8212; &eacute;t&eacute;",
			expected: `Tom & Jerry "live" — été`,
		},
		{
			name:     "encoded markup is stripped after decoding",
			input:    "&lt;b&gt;bold&lt;/b&gt; text",
			expected: "bold text",
		},
		{
			name:     "script removed across lines",
			input:    "before<SCRIPT type=\"text/javascript\">\nvar x = 1;\nalert('<p>');\n</Script>after",
			expected: "beforeafter",
		},
		{
			name:     "attributes on paragraph",
			input:    `<p class="lead">Lead</p><p style="x">Body</p>`,
			expected: "Lead\n\nBody",
		},
		{
			name:     "pre is not a paragraph",
			input:    "a<pre>b</pre>c",
			expected: "abc",
		},
		{
			name:     "blank line runs collapsed",
			input:    "a<br><br><br><br><br>b",
			expected: "a\n\nb",
		},
		{
			name:     "whitespace-only lines count as blank",
			input:    "a<br> <br>\t<br>  <br>b",
			expected: "a\n\nb",
		},
		{
			name:     "non-breaking space lines count as blank",
			input:    "<p>One</p><p>&nbsp;</p><p>&nbsp;</p><p>Two</p>",
			expected: "One\n\nTwo",
		},
		{
			name:     "control characters from numeric entities dropped",
			input:    "<p>Item&#1;one &#11;tab&#x1F;</p>",
			expected: "Itemone tab",
		},
		{
			name:     "tab kept inside text",
			input:    "a&#9;b",
			expected: "a\tb",
		},
		{
			name:     "unclosed tag",
			input:    "<div><span>text",
			expected: "text",
		},
		{
			name:     "stray angle brackets",
			input:    "1 < 2 and <<b>bold",
			expected: "1  2 and bold",
		},
		{
			name:     "tag spanning lines",
			input:    "<a\nhref=\"x\">link</a>",
			expected: "link",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.input)
			if got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClean_Invariants(t *testing.T) {
	inputs := []string{
		"<p>a</p>\n\n\n\n<p>b</p>",
		"<<<>>>",
		"<div><p>unterminated",
		"x > y < z",
		"&lt;script&gt;alert(1)&lt;/script&gt;\n\n\n\nend",
		"<p>\r\n\r\n\r\n\r\n</p>text",
		"<img src='a.png'><br><br><br><br>",
		"<!-- comment --><![CDATA[data]]>",
		strings.Repeat("<p>para</p>\n \n", 10),
		"<p>&nbsp;</p>\u00a0\n\u2003\n<p>&nbsp;</p>x",
		"a&#0;&#8;&#12;&#27;b\x02",
	}

	for _, input := range inputs {
		got := Clean(input)
		if strings.ContainsAny(got, "<>") {
			t.Errorf("Clean(%q) = %q contains angle brackets", input, got)
		}
		if strings.Contains(got, "\n\n\n") {
			t.Errorf("Clean(%q) = %q has more than one blank line", input, got)
		}
		if strings.IndexFunc(got, isControl) >= 0 {
			t.Errorf("Clean(%q) = %q contains control characters", input, got)
		}
		if got != strings.TrimSpace(got) {
			t.Errorf("Clean(%q) = %q is not trimmed", input, got)
		}
	}
}

func TestStripControl(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"plain", "plain"},
		{"T\f", "T"},
		{"a\x00b\x01c\x1fd", "abcd"},
		{"keep\ttab\nnewline\rreturn", "keep\ttab\nnewline\rreturn"},
		{"non\uFFFEchar\uFFFF", "nonchar"},
		{"\u00e9t\u00e9 \uFFFD \x7f", "\u00e9t\u00e9 \uFFFD \x7f"},
	}
	for _, tt := range tests {
		if got := StripControl(tt.input); got != tt.want {
			t.Errorf("StripControl(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFirstImageURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"empty", "", "", false},
		{"no image", "<p>text</p>", "", false},
		{"single", `<p><img src="https://example.com/a.jpg" alt="a"></p>`, "https://example.com/a.jpg", true},
		{"first in document order", `<img src="/first.png"><img src="/second.png">`, "/first.png", true},
		{"attributes before src", `<IMG class="hero" width="10" SRC="x.gif">`, "x.gif", true},
		{"single quotes", `<img src='q.png'>`, "q.png", true},
		{"data-src is not src", `<img data-src="lazy.png" src="real.png">`, "real.png", true},
		{"entity in src", `<img src="https://example.com/i?a=1&amp;b=2">`, "https://example.com/i?a=1&b=2", true},
		{"empty src", `<img src="">`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FirstImageURL(tt.input)
			if got != tt.want || found != tt.found {
				t.Errorf("FirstImageURL(%q) = (%q, %v), want (%q, %v)", tt.input, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestMainArticle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{
			name:  "article preferred",
			input: "<html><body><nav>menu</nav><article class=\"x\">\n<p>Story</p>\n</article><article>second</article></body></html>",
			want:  "\n<p>Story</p>\n",
		},
		{
			name:  "body fallback",
			input: "<html><head><title>t</title></head><BODY id=\"b\"><p>Body text</p></BODY></html>",
			want:  "<p>Body text</p>",
		},
		{
			name:  "whole document",
			input: "<p>fragment</p>",
			want:  "<p>fragment</p>",
		},
		{
			name:  "articles tag is not article",
			input: "<articles>nope</articles>",
			want:  "<articles>nope</articles>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MainArticle(tt.input); got != tt.want {
				t.Errorf("MainArticle() = %q, want %q", got, tt.want)
			}
		})
	}
}
