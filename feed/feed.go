// Package feed holds the normalized feed document and its XML file format.
package feed

import (
	"strings"
	"time"
)

// DefaultTitle names feeds that do not carry a title
const DefaultTitle = "Feed"

// Document is a fetched feed ready to be displayed or saved
type Document struct {
	Title       string
	SourceURL   string
	RetrievedAt time.Time
	Entries     []Entry
}

// Entry is a single normalized feed item.
// Content and InlineContent are plain text.
type Entry struct {
	Title         string
	PublishDate   time.Time
	Content       string
	InlineContent string
	Link          string
	ImageBase64   string // Empty when the entry has no image
	ImageMimeType string
}

// HasImage reports whether image data was embedded
func (e Entry) HasImage() bool {
	return e.ImageBase64 != ""
}

// Meta is the feed-level information taken from the source document
type Meta struct {
	Title string
}

// Assemble wraps built entries into a Document retrieved now
func Assemble(sourceURL string, meta Meta, entries []Entry) Document {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = DefaultTitle
	}
	return Document{
		Title:       title,
		SourceURL:   sourceURL,
		RetrievedAt: time.Now().UTC(),
		Entries:     entries,
	}
}
