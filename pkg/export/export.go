// Package export converts a rendered dom document into formats meant for
// people: sanitized HTML, Markdown, and an indented outline.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/go-drift/fiber/pkg/dom"
)

// SafeHTML returns the document's HTML with everything outside the
// user-generated-content policy removed: scripts, styles, unknown
// attributes, and javascript: URLs.
func SafeHTML(doc *dom.Document) string {
	return bluemonday.UGCPolicy().Sanitize(doc.HTML())
}

var markdown = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown converts the document to CommonMark.
func Markdown(doc *dom.Document) (string, error) {
	out, err := markdown.ConvertString(doc.HTML())
	if err != nil {
		return "", fmt.Errorf("export markdown: %w", err)
	}
	return out, nil
}

// Palette colours an outline. The zero Palette prints plain text.
type Palette struct {
	Tag, Prop, Text, Dim, Reset string
}

// ANSI is a palette for terminals.
var ANSI = Palette{
	Tag:   "\x1b[36m",
	Prop:  "\x1b[33m",
	Text:  "\x1b[32m",
	Dim:   "\x1b[2m",
	Reset: "\x1b[0m",
}

// Outline writes the document as an indented tree, one node per line. Text
// lines carry their width in the 7x13 bitmap face.
func Outline(w io.Writer, doc *dom.Document, p Palette) error {
	for _, c := range doc.Container().Children() {
		if err := outline(w, doc, c, 0, p); err != nil {
			return err
		}
	}
	return nil
}

func outline(w io.Writer, doc *dom.Document, n *dom.Node, depth int, p Palette) error {
	indent := strings.Repeat("  ", depth)
	if n.IsText() {
		_, err := fmt.Fprintf(w, "%s%s%q%s %s(%dpx)%s\n", indent, p.Text, n.Text, p.Reset, p.Dim, doc.TextWidth(n), p.Reset)
		return err
	}

	var sb strings.Builder
	props := n.Props()
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, " %s%s=%v%s", p.Prop, name, props[name], p.Reset)
	}
	if c := n.Listeners("click"); c > 0 {
		fmt.Fprintf(&sb, " %s[click]%s", p.Dim, p.Reset)
	}
	if _, err := fmt.Fprintf(w, "%s%s%s%s%s\n", indent, p.Tag, n.Tag, p.Reset, sb.String()); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := outline(w, doc, c, depth+1, p); err != nil {
			return err
		}
	}
	return nil
}
