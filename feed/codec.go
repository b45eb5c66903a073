package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

var (
	// ErrFormat is returned when a saved feed cannot be decoded
	ErrFormat = errors.New("malformed feed file")
	// ErrIO is returned when a feed cannot be written or read
	ErrIO = errors.New("feed file I/O error")
	// ErrInvalidText is returned by Save for text XML 1.0 cannot carry
	ErrInvalidText = errors.New("text not representable in XML")
)

// xmlDocument mirrors the on-disk layout. The root name matches files
// written by the desktop reader this format comes from.
type xmlDocument struct {
	XMLName     xml.Name   `xml:"RssFeedData"`
	Title       string     `xml:"Title"`
	SourceURL   string     `xml:"SourceUrl"`
	RetrievedAt time.Time  `xml:"RetrievedAt"`
	Entries     []xmlEntry `xml:"Entries>Entry"`
}

type xmlEntry struct {
	Title         string    `xml:"Title"`
	PublishDate   time.Time `xml:"PublishDate"`
	Content       string    `xml:"Content"`
	InlineContent string    `xml:"InlineContent"`
	Link          string    `xml:"Link"`
	ImageBase64   string    `xml:"ImageBase64,omitempty"`
	ImageMimeType string    `xml:"ImageMimeType,omitempty"`
}

// Save writes doc as an XML document.
// Text holding control characters or invalid UTF-8 is refused, since the
// encoder would replace it and the file would no longer load back equal.
func Save(w io.Writer, doc Document) error {
	if err := checkText(doc); err != nil {
		return err
	}

	out := xmlDocument{
		Title:       doc.Title,
		SourceURL:   doc.SourceURL,
		RetrievedAt: doc.RetrievedAt,
		Entries:     make([]xmlEntry, len(doc.Entries)),
	}
	for i, e := range doc.Entries {
		out.Entries[i] = xmlEntry(e)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("%w: failed to write header with %w", ErrIO, err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("%w: failed to encode feed with %w", ErrIO, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: failed to flush feed with %w", ErrIO, err)
	}
	return nil
}

func checkText(doc Document) error {
	fields := []struct{ name, value string }{
		{"Title", doc.Title},
		{"SourceUrl", doc.SourceURL},
	}
	for i, e := range doc.Entries {
		prefix := fmt.Sprintf("Entry[%d].", i)
		fields = append(fields,
			struct{ name, value string }{prefix + "Title", e.Title},
			struct{ name, value string }{prefix + "Content", e.Content},
			struct{ name, value string }{prefix + "InlineContent", e.InlineContent},
			struct{ name, value string }{prefix + "Link", e.Link},
			struct{ name, value string }{prefix + "ImageBase64", e.ImageBase64},
			struct{ name, value string }{prefix + "ImageMimeType", e.ImageMimeType},
		)
	}
	for _, f := range fields {
		if pos := invalidCharAt(f.value); pos >= 0 {
			return fmt.Errorf("%w: %s has a forbidden character at byte %d", ErrInvalidText, f.name, pos)
		}
	}
	return nil
}

// invalidCharAt returns the byte offset of the first character outside the
// XML 1.0 Char production, or -1
func invalidCharAt(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
			continue
		}
		if !isXMLChar(r) {
			return i
		}
	}
	return -1
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// Load reads a Document previously written by Save
func Load(r io.Reader) (Document, error) {
	src := &readRecorder{r: r}
	var in xmlDocument
	if err := xml.NewDecoder(src).Decode(&in); err != nil {
		if src.err != nil {
			return Document{}, fmt.Errorf("%w: failed to read feed with %w", ErrIO, src.err)
		}
		return Document{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	doc := Document{
		Title:       in.Title,
		SourceURL:   in.SourceURL,
		RetrievedAt: in.RetrievedAt,
	}
	if len(in.Entries) > 0 {
		doc.Entries = make([]Entry, len(in.Entries))
		for i, e := range in.Entries {
			doc.Entries[i] = Entry(e)
		}
	}
	return doc, nil
}

// SaveFile writes doc to path. The previous file, if any, survives a failed save.
func SaveFile(path string, doc Document) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("%w: failed to create directory '%s' with %w", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file in '%s' with %w", ErrIO, dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Save(tmp, doc); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close '%s' with %w", ErrIO, tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: failed to move feed into '%s' with %w", ErrIO, path, err)
	}
	return nil
}

// LoadFile reads a Document from path
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: failed to open '%s' with %w", ErrIO, path, err)
	}
	defer f.Close()
	return Load(f)
}

// readRecorder remembers the first non-EOF read error so Load can tell
// a broken source from a broken document
type readRecorder struct {
	r   io.Reader
	err error
}

func (rr *readRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}
