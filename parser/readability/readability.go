package readability

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-shiori/go-readability"

	"github.com/scipunch/feedsnap/htmltext"
	"github.com/scipunch/feedsnap/parser"
)

// Parser extracts articles with the Firefox Reader Mode algorithm
type Parser struct{}

// New creates a new readability parser
func New() (Parser, error) {
	return Parser{}, nil
}

// Response holds the cleaned article text and its detected title
type Response struct {
	Title string
	Text  string
}

func (r Response) String() string {
	return r.Text
}

// Parse runs readability over page and cleans the extracted HTML
func (p Parser) Parse(page []byte, pageURL string) (parser.Response, error) {
	var resp Response

	u, err := url.Parse(pageURL)
	if err != nil {
		return resp, fmt.Errorf("invalid page URL '%s' with %w", pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(page), u)
	if err != nil {
		return resp, fmt.Errorf("failed to extract article with %w", err)
	}

	resp.Title = article.Title
	resp.Text = htmltext.Clean(article.Content)

	slog.Debug("readability extracted article",
		"url", pageURL,
		"title", article.Title,
		"length", len(resp.Text))

	return resp, nil
}
