package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/segment"
)

// Document is a flattened, segmented source page ready for extraction
type Document struct {
	Key      model.DocumentKey
	ID       string
	Root     *html.Node // nil when the body was plain text
	Lines    []string
	Segments []segment.Segment
}

// NewDocument builds a document for one (year, month) page. HTML bodies
// are flattened and trimmed of navigation; the lines are framed with the
// year and month headers so the segmenter knows the Hijri context.
func NewDocument(key model.DocumentKey, body []byte) (*Document, error) {
	doc := &Document{Key: key, ID: key.ID()}

	var lines []string
	if LooksLikeHTML(body) {
		root, err := html.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse html %s: %w", doc.ID, err)
		}
		doc.Root = root
		lines = TrimBoilerplate(Flatten(root))
	} else {
		lines = splitLines(string(body))
	}

	doc.Lines = segment.Frame(key, lines)
	doc.Segments = segment.New().Segment(doc.Lines)
	return doc, nil
}

// NewTextDocument builds a document from an aggregated text export that
// carries its own year and month headers.
func NewTextDocument(id string, text string) *Document {
	lines := splitLines(text)
	return &Document{
		ID:       id,
		Lines:    lines,
		Segments: segment.New().Segment(lines),
	}
}

// LooksLikeHTML reports whether body appears to be markup rather than
// already-flattened text.
func LooksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := bytes.ToLower(bytes.TrimSpace(head))
	for _, tag := range [][]byte{[]byte("<!doctype"), []byte("<html"), []byte("<head"), []byte("<body")} {
		if bytes.Contains(lower, tag) {
			return true
		}
	}
	return bytes.HasPrefix(lower, []byte("<"))
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// Text renders the document lines, one per line
func (d *Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

// segmentDocumentID names the page a segment came from. In aggregated
// exports this follows the section headers rather than the file.
func segmentDocumentID(seg segment.Segment, doc *Document) string {
	if seg.Ctx.HasHijri() {
		return model.DocumentKey{Year: seg.Ctx.Year, Month: seg.Ctx.Month}.ID()
	}
	return doc.ID
}
