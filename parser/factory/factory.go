package factory

import (
	"fmt"

	"github.com/scipunch/feedsnap/parser"
	"github.com/scipunch/feedsnap/parser/readability"
	"github.com/scipunch/feedsnap/parser/web"
)

// Init creates the article parser for t
func Init(t parser.Type) (parser.Parser, error) {
	switch t {
	case parser.Web, "":
		return web.New()
	case parser.Readability:
		return readability.New()
	default:
		return nil, fmt.Errorf("unknown parser type: %s", t)
	}
}
