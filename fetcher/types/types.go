package types

import (
	"context"
	"time"
)

// Feed represents a collection of items from a feed source
type Feed struct {
	Title       string
	Description string
	Items       []FeedItem
}

// FeedItem represents a single item in a feed
type FeedItem struct {
	Title     string
	Link      string   // Canonical link, first of Links when the feed gives several
	Links     []string // Every link attached to the item, in feed order
	Content   string   // Primary body (content:encoded, atom:content)
	Summary   string   // Fallback body (description, atom:summary)
	Published time.Time
	GUID      string // Unique identifier (GUID for RSS, id for Atom)
}

// Body returns the item content, falling back to the summary
func (i FeedItem) Body() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Summary
}

// FeedFetcher is an interface for fetching feeds from different sources
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (Feed, error)
}
