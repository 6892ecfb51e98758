package extract

import (
	"strings"

	"golang.org/x/net/html"
)

var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "td": true, "th": true,
	"li": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "table": true, "ul": true, "ol": true, "dd": true, "dt": true,
	"blockquote": true, "pre": true, "hr": true, "center": true,
}

// Boilerplate markers. Navigation above the first start marker and below
// the first end marker is dropped.
var (
	startMarkers = []string{"Moonsighting for", "The Astronomical", "Al urjoonul"}
	endMarkers   = []string{"top\nBack to Top", "top Back to Top", "\nHome\nMoon"}
)

// Flatten renders the visible text of an HTML tree as lines. Block
// elements break lines, whitespace inside a line is collapsed, and a
// table row whose cells hold only inline content becomes a single
// "| cell | cell |" line.
func Flatten(root *html.Node) []string {
	var lines []string
	var cur strings.Builder

	flush := func() {
		if text := collapse(cur.String()); text != "" {
			lines = append(lines, text)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			if n.Data == "tr" {
				if row, ok := pipeRow(n); ok {
					flush()
					if row != "" {
						lines = append(lines, row)
					}
					return
				}
			}
			if blockElements[n.Data] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)
	flush()
	return lines
}

// pipeRow renders a data row. Layout rows, whose cells contain block
// content, are refused so the caller walks them normally.
func pipeRow(tr *html.Node) (string, bool) {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		text, ok := inlineText(c)
		if !ok {
			return "", false
		}
		cells = append(cells, text)
	}
	if len(cells) == 0 {
		return "", true
	}
	return "| " + strings.Join(cells, " | ") + " |", true
}

// inlineText returns the collapsed text of n, or false when n contains a
// block element other than a line break.
func inlineText(n *html.Node) (string, bool) {
	var buf strings.Builder
	ok := true

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if !ok {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			if skipElements[n.Data] {
				return
			}
			if n.Data == "br" {
				buf.WriteString(" ")
				return
			}
			if blockElements[n.Data] && n.Data != "td" && n.Data != "th" {
				ok = false
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapse(buf.String()), ok
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TrimBoilerplate drops site navigation around the page content
func TrimBoilerplate(lines []string) []string {
	text := strings.Join(lines, "\n")
	for _, marker := range startMarkers {
		if idx := strings.Index(text, marker); idx > 0 {
			text = text[idx:]
			break
		}
	}
	for _, marker := range endMarkers {
		if idx := strings.Index(text, marker); idx > 0 {
			text = text[:idx]
			break
		}
	}
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
