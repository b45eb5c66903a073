// Package builder turns raw feed items into normalized entries.
//
// Only the feed download and parse can fail a FetchFeed call. Inline article
// and image enrichment degrade per entry: when they fail the entry is built
// without them. Cancellation of the caller's context is the one exception and
// is always returned.
package builder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scipunch/feedsnap/feed"
	"github.com/scipunch/feedsnap/fetcher"
	"github.com/scipunch/feedsnap/fetcher/types"
	"github.com/scipunch/feedsnap/filter"
	"github.com/scipunch/feedsnap/htmltext"
	"github.com/scipunch/feedsnap/linkresolver"
	"github.com/scipunch/feedsnap/parser"
	"github.com/scipunch/feedsnap/parser/web"
)

const (
	DefaultConcurrency = 4
	defaultImageType   = "application/octet-stream"
)

// ErrInvalidCount is returned when fewer than one entry is requested
var ErrInvalidCount = errors.New("entry count must be at least 1")

// Config tunes a Builder. Zero values fall back to defaults.
type Config struct {
	Thresholds    filter.Thresholds
	Concurrency   int  // Entries built in parallel, 1 keeps it sequential
	DisableInline bool // Never fetch article pages
}

// Builder fetches feeds and builds their entries
type Builder struct {
	feeds   types.FeedFetcher
	getter  fetcher.Getter
	article parser.Parser
	cfg     Config
	now     func() time.Time
}

// New creates a Builder.
// feeds downloads and parses the feed, getter downloads article pages and
// images, article extracts text from article pages (web parser when nil).
func New(feeds types.FeedFetcher, getter fetcher.Getter, article parser.Parser, cfg Config) *Builder {
	if article == nil {
		article = web.Parser{}
	}
	if cfg.Thresholds == (filter.Thresholds{}) {
		cfg.Thresholds = filter.DefaultThresholds()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Builder{
		feeds:   feeds,
		getter:  getter,
		article: article,
		cfg:     cfg,
		now:     time.Now,
	}
}

// FetchFeed downloads url and builds its first maxEntries entries in feed order
func (b *Builder) FetchFeed(ctx context.Context, url string, maxEntries int) (feed.Document, error) {
	if maxEntries < 1 {
		return feed.Document{}, ErrInvalidCount
	}

	src, err := b.feeds.Fetch(ctx, url)
	if err != nil {
		return feed.Document{}, fmt.Errorf("'%s' fetch failed with %w", url, err)
	}
	slog.Info("fetched feed", "url", url, "title", src.Title, "items", len(src.Items))

	items := src.Items
	if len(items) > maxEntries {
		items = items[:maxEntries]
	}

	entries := make([]feed.Entry, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			entry, err := b.Build(gctx, item)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return feed.Document{}, fmt.Errorf("building entries of '%s' failed with %w", url, err)
	}

	return feed.Assemble(url, feed.Meta{Title: src.Title}, entries), nil
}

// Build normalizes a single feed item.
// The only error it returns is the context's.
func (b *Builder) Build(ctx context.Context, item types.FeedItem) (feed.Entry, error) {
	if err := ctx.Err(); err != nil {
		return feed.Entry{}, err
	}

	raw := item.Body()
	clean := htmltext.Clean(raw)

	inline, err := b.inlineArticle(ctx, item, raw, clean)
	if err != nil {
		return feed.Entry{}, err
	}

	entry := feed.Entry{
		Title:         entryTitle(item.Title),
		PublishDate:   b.publishDate(item.Published),
		Content:       clean,
		InlineContent: inline,
		Link:          item.Link,
	}

	data, mimeType, err := b.image(ctx, raw, item.Link)
	if err != nil {
		return feed.Entry{}, err
	}
	entry.ImageBase64 = data
	entry.ImageMimeType = mimeType

	slog.Debug("entry built",
		"title", entry.Title,
		"content_length", len(entry.Content),
		"inline_length", len(entry.InlineContent),
		"image", entry.HasImage())

	return entry, nil
}

// inlineArticle fetches the full article when the feed text is too short and
// points to exactly one page
func (b *Builder) inlineArticle(ctx context.Context, item types.FeedItem, raw, clean string) (string, error) {
	if b.cfg.DisableInline || !b.cfg.Thresholds.IsShort(clean) {
		return "", nil
	}

	link, ok := linkresolver.ResolveSingleLink(item.Links, raw, clean)
	if !ok {
		slog.Debug("no single link to inline", "title", item.Title)
		return "", nil
	}

	resp, err := b.getter.Get(ctx, link)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		slog.Debug("inline article unavailable", "url", link, "error", err)
		return "", nil
	}

	if !isTextual(resp.ContentType) {
		slog.Debug("inline article skipped", "url", link, "content_type", resp.ContentType)
		return "", nil
	}

	parsed, err := b.article.Parse(resp.Body, link)
	if err != nil {
		slog.Debug("inline article not extracted", "url", link, "error", err)
		return "", nil
	}

	text := strings.TrimSpace(parsed.String())
	if text == "" {
		slog.Debug("inline article empty", "url", link)
		return "", nil
	}
	return text, nil
}

// image downloads the first image of raw and returns it base64 encoded
func (b *Builder) image(ctx context.Context, raw, itemLink string) (string, string, error) {
	src, ok := htmltext.FirstImageURL(raw)
	if !ok {
		return "", "", nil
	}
	src = resolveReference(itemLink, src)

	resp, err := b.getter.Get(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		slog.Debug("image unavailable", "url", src, "error", err)
		return "", "", nil
	}
	if len(resp.Body) == 0 {
		return "", "", nil
	}

	return base64.StdEncoding.EncodeToString(resp.Body), mediaType(resp.ContentType, defaultImageType), nil
}

func (b *Builder) publishDate(published time.Time) time.Time {
	if published.IsZero() || published.Unix() == 0 {
		return b.now().UTC()
	}
	return published
}

func entryTitle(title string) string {
	title = strings.TrimSpace(htmltext.StripControl(html.UnescapeString(title)))
	if title == "" {
		return fetcher.UntitledItem
	}
	return title
}

// isTextual accepts HTML and text/* responses, and responses without a type
func isTextual(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mt := strings.ToLower(mediaType(contentType, ""))
	return strings.Contains(mt, "html") || strings.HasPrefix(mt, "text")
}

// mediaType strips parameters from a Content-Type header
func mediaType(contentType, fallback string) string {
	if strings.TrimSpace(contentType) == "" {
		return fallback
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		mt = strings.TrimSpace(mt)
	}
	if mt == "" {
		return fallback
	}
	return mt
}

// resolveReference makes a relative image URL absolute against the entry link
func resolveReference(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil || refURL.IsAbs() || base == "" {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
