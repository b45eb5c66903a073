package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/scipunch/feedsnap/fetcher/types"
)

// UntitledItem replaces missing item titles
const UntitledItem = "Untitled"

// ErrParse is returned when a document is not a well-formed RSS/Atom feed
var ErrParse = errors.New("feed parse error")

// RSSFetcher fetches RSS and Atom feeds using gofeed
type RSSFetcher struct {
	getter Getter
}

// NewRSSFetcher creates a new RSS fetcher on top of getter
func NewRSSFetcher(getter Getter) *RSSFetcher {
	return &RSSFetcher{getter: getter}
}

// Fetch retrieves and parses a feed from the given URL
func (f *RSSFetcher) Fetch(ctx context.Context, url string) (types.Feed, error) {
	resp, err := f.getter.Get(ctx, url)
	if err != nil {
		return types.Feed{}, fmt.Errorf("failed to download feed with %w", err)
	}
	return Parse(resp.Body)
}

// Parse converts a raw RSS/Atom document into our Feed type
func Parse(data []byte) (types.Feed, error) {
	var feed types.Feed

	gofeedFeed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return feed, fmt.Errorf("%w: %w", ErrParse, err)
	}

	feed.Title = gofeedFeed.Title
	feed.Description = gofeedFeed.Description
	feed.Items = make([]types.FeedItem, 0, len(gofeedFeed.Items))

	for _, item := range gofeedFeed.Items {
		if item == nil {
			continue
		}
		feedItem := types.FeedItem{
			Title:   item.Title,
			Links:   itemLinks(item),
			Content: item.Content,
			Summary: item.Description,
			GUID:    item.GUID,
		}
		if strings.TrimSpace(feedItem.Title) == "" {
			feedItem.Title = UntitledItem
		}
		if len(feedItem.Links) > 0 {
			feedItem.Link = feedItem.Links[0]
		}

		// Parse published date if available
		if item.PublishedParsed != nil {
			feedItem.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			feedItem.Published = *item.UpdatedParsed
		}

		feed.Items = append(feed.Items, feedItem)
	}

	return feed, nil
}

// itemLinks returns item.Link followed by item.Links without exact duplicates
func itemLinks(item *gofeed.Item) []string {
	var links []string
	seen := make(map[string]bool)
	add := func(l string) {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			return
		}
		seen[l] = true
		links = append(links, l)
	}
	add(item.Link)
	for _, l := range item.Links {
		add(l)
	}
	return links
}
