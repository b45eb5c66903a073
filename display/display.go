// Package display projects feed documents for reading and exports them as
// HTML or PDF.
package display

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/scipunch/feedsnap/feed"
)

// DateLayout is the full date with short time, e.g. "Monday, June 15, 2009 1:45 PM"
const DateLayout = "Monday, January 2, 2006 3:04 PM"

//go:embed templates/feed.html
var feedTemplate string

var tmpl = template.Must(template.New("feed").Parse(feedTemplate))

// View is a whole document ready to be rendered
type View struct {
	Title       string
	SourceURL   string
	RetrievedAt string
	Entries     []Entry
}

// Entry is a feed entry ready to be rendered
type Entry struct {
	Title              string
	PublishDate        time.Time
	PublishDateDisplay string
	Content            string
	Link               string
	Image              template.URL // data: URI, empty when there is no usable image
}

// HasImage reports whether the entry carries a renderable image
func (e Entry) HasImage() bool {
	return e.Image != ""
}

// Paragraphs splits Content on blank lines
func (e Entry) Paragraphs() []string {
	if e.Content == "" {
		return nil
	}
	return strings.Split(e.Content, "\n\n")
}

// FromDocument projects doc with dates shown in loc (time.Local when nil)
func FromDocument(doc feed.Document, loc *time.Location) View {
	if loc == nil {
		loc = time.Local
	}
	v := View{
		Title:     doc.Title,
		SourceURL: doc.SourceURL,
		Entries:   make([]Entry, 0, len(doc.Entries)),
	}
	if !doc.RetrievedAt.IsZero() {
		v.RetrievedAt = doc.RetrievedAt.In(loc).Format(DateLayout)
	}
	for _, e := range doc.Entries {
		v.Entries = append(v.Entries, FromEntry(e, loc))
	}
	return v
}

// FromEntry projects a single entry
func FromEntry(e feed.Entry, loc *time.Location) Entry {
	if loc == nil {
		loc = time.Local
	}
	return Entry{
		Title:              e.Title,
		PublishDate:        e.PublishDate,
		PublishDateDisplay: e.PublishDate.In(loc).Format(DateLayout),
		Content:            BuildContent(e.Content, e.InlineContent),
		Link:               e.Link,
		Image:              imageURI(e.ImageBase64, e.ImageMimeType),
	}
}

// BuildContent joins the feed text and the inlined article with a blank line
func BuildContent(content, inline string) string {
	content = strings.TrimSpace(content)
	inline = strings.TrimSpace(inline)
	switch {
	case content == "":
		return inline
	case inline == "":
		return content
	default:
		return content + "\n\n" + inline
	}
}

// imageURI turns stored image data into a data: URI.
// Data that does not decode to an image yields no URI.
func imageURI(data, mimeType string) template.URL {
	if data == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 {
		slog.Debug("dropping undecodable image", "error", err)
		return ""
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType, _, _ = strings.Cut(http.DetectContentType(raw), ";")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Debug("dropping non-image data", "mime_type", mimeType)
		return ""
	}

	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw))
}

// WriteHTML renders v as a standalone HTML page
func WriteHTML(w io.Writer, v View) error {
	if err := tmpl.Execute(w, v); err != nil {
		return fmt.Errorf("could not render feed HTML with %w", err)
	}
	return nil
}

// WriteHTMLFile renders v into path
func WriteHTMLFile(path string, v View) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create HTML file '%s' with %w", path, err)
	}
	if err := WriteHTML(out, v); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// PageLayout is the printed page geometry in CSS units
type PageLayout struct {
	Width  string
	Height string
	Margin string // Applied to all four sides
}

// B5 is 176mm x 250mm with 15mm margins
var B5 = PageLayout{Width: "176mm", Height: "250mm", Margin: "15mm"}

// WritePDF prints the HTML page at htmlPath into a B5 PDF at pdfPath
func WritePDF(ctx context.Context, htmlPath, pdfPath string) error {
	return WritePDFLayout(ctx, htmlPath, pdfPath, B5)
}

// WritePDFLayout prints the HTML page at htmlPath into pdfPath.
// A headless Chromium is installed on first use.
func WritePDFLayout(ctx context.Context, htmlPath, pdfPath string, layout PageLayout) error {
	pageURL, err := fileURL(htmlPath)
	if err != nil {
		return err
	}
	opts, err := pdfOptions(pdfPath, layout)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := playwright.Install(); err != nil {
		return fmt.Errorf("could not install playwright: %w", err)
	}
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch()
	if err != nil {
		return fmt.Errorf("could not launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return fmt.Errorf("could not create page: %w", err)
	}
	defer page.Close()

	if _, err = page.Goto(pageURL); err != nil {
		return fmt.Errorf("could not open '%s' with %w", pageURL, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err = page.PDF(opts); err != nil {
		return fmt.Errorf("could not generate PDF with %w", err)
	}

	slog.Debug("pdf printed", "from", htmlPath, "to", pdfPath, "width", layout.Width, "height", layout.Height)
	return nil
}

// fileURL turns an existing HTML file path into an absolute file:// URL
func fileURL(htmlPath string) (string, error) {
	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return "", fmt.Errorf("could not get absolute path of '%s' with %w", htmlPath, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("could not open HTML file with %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("'%s' is a directory", absPath)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String(), nil
}

func pdfOptions(pdfPath string, layout PageLayout) (playwright.PagePdfOptions, error) {
	if pdfPath == "" {
		return playwright.PagePdfOptions{}, fmt.Errorf("empty PDF path")
	}
	if layout.Width == "" || layout.Height == "" {
		return playwright.PagePdfOptions{}, fmt.Errorf("page layout needs width and height, got %+v", layout)
	}
	margin := layout.Margin
	if margin == "" {
		margin = "0"
	}
	return playwright.PagePdfOptions{
		Path:            playwright.String(pdfPath),
		Width:           playwright.String(layout.Width),
		Height:          playwright.String(layout.Height),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String(margin),
			Right:  playwright.String(margin),
			Bottom: playwright.String(margin),
			Left:   playwright.String(margin),
		},
	}, nil
}
