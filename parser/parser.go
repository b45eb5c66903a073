package parser

import (
	"fmt"
)

type Type = string

var (
	Web         = Type("web")
	Readability = Type("readability")
)

// Parser extracts readable article text from a downloaded page
type Parser interface {
	Parse(page []byte, pageURL string) (Response, error)
}

type Response interface {
	fmt.Stringer
}
