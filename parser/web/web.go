package web

import (
	"github.com/scipunch/feedsnap/htmltext"
	"github.com/scipunch/feedsnap/parser"
)

// Parser keeps the main article region of a page as plain text
type Parser struct{}

// New creates a new web parser
func New() (Parser, error) {
	return Parser{}, nil
}

// Response holds the cleaned article text
type Response struct {
	Text string
}

func (r Response) String() string {
	return r.Text
}

// Parse takes the first <article>, else <body>, else the whole page and
// cleans it into text. It never fails; an unusable page yields empty text.
func (p Parser) Parse(page []byte, pageURL string) (parser.Response, error) {
	return Response{Text: htmltext.Clean(htmltext.MainArticle(string(page)))}, nil
}
