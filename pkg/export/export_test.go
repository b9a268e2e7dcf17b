package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/dom"
)

func render(t *testing.T, el *core.Element) *dom.Document {
	t.Helper()
	doc := dom.NewDocument()
	root := core.CreateRoot(doc.Container(), doc)
	root.Render(el)
	if err := root.Flush(); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSafeHTML(t *testing.T) {
	doc := render(t, core.H("div", nil,
		core.H("script", nil, "alert(1)"),
		core.H("a", core.Props{"href": "javascript:alert(1)"}, "link"),
		core.H("b", nil, "ok"),
	))

	got := SafeHTML(doc)
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("expected scripts to be removed, got %s", got)
	}
	if !strings.Contains(got, "<b>ok</b>") {
		t.Errorf("expected safe markup to be kept, got %s", got)
	}
	if !strings.Contains(doc.HTML(), "<script>") {
		t.Error("the document itself should be untouched")
	}
}

func TestMarkdown(t *testing.T) {
	doc := render(t, core.H("article", nil,
		core.H("h1", nil, "Title"),
		core.H("p", nil, "Some ", core.H("strong", nil, "bold"), " text"),
		core.H("ul", nil, core.H("li", nil, "one"), core.H("li", nil, "two")),
	))

	got, err := Markdown(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Title", "**bold**", "- one", "- two"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
}

func TestOutline(t *testing.T) {
	doc := render(t, core.H("p", core.Props{"className": "x", "onClick": func() {}}, "abc"))

	var buf bytes.Buffer
	if err := Outline(&buf, doc, Palette{}); err != nil {
		t.Fatal(err)
	}
	want := "p class=x [click]\n  \"abc\" (21px)\n"
	if got := buf.String(); got != want {
		t.Errorf("Outline mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestOutline_ANSI(t *testing.T) {
	doc := render(t, core.H("p", nil, "a"))

	var buf bytes.Buffer
	Outline(&buf, doc, ANSI)
	if !strings.Contains(buf.String(), ANSI.Tag+"p"+ANSI.Reset) {
		t.Errorf("expected coloured tag, got %q", buf.String())
	}
}
