package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"

	"github.com/go-drift/fiber/cmd/fiber/internal/demo"
	"github.com/go-drift/fiber/pkg/config"
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/dom"
	"github.com/go-drift/fiber/pkg/export"
)

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Render the demo app and print the result",
		Long: `Render the demo counter into an in-memory document, click it N
times, and print the committed host tree.

Formats:
  tree      Indented outline with text widths (default, coloured on a terminal)
  html      Raw HTML
  safe      HTML passed through a user-content sanitizer
  md        Markdown

Flags:
  --clicks N       Number of clicks to dispatch (default 0)
  --format NAME    Output format
  --html           Shorthand for --format html`,
		Usage: "fiber render [--clicks N] [--format tree|html|safe|md]",
		Run:   runRender,
	})
}

type renderOptions struct {
	clicks int
	format string
}

func parseRenderArgs(args []string) (renderOptions, error) {
	opts := renderOptions{format: "tree"}
	for i := 0; i < len(args); i++ {
		if args[i] == "--html" || args[i] == "-html" {
			opts.format = "html"
			continue
		}
		if v, next, ok, err := flagValue(args, i, "clicks"); ok {
			if err != nil {
				return opts, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return opts, fmt.Errorf("--clicks must be a non-negative integer (got %q)", v)
			}
			opts.clicks, i = n, next
			continue
		}
		if v, next, ok, err := flagValue(args, i, "format"); ok {
			if err != nil {
				return opts, err
			}
			opts.format, i = v, next
			continue
		}
		return opts, fmt.Errorf("unknown flag %q", args[i])
	}
	switch opts.format {
	case "tree", "html", "safe", "md":
		return opts, nil
	}
	return opts, fmt.Errorf("unknown format %q", opts.format)
}

func runRender(args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	colour := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return renderDemo(os.Stdout, cfg, opts, colour)
}

func renderDemo(w io.Writer, cfg *config.Resolved, opts renderOptions, colour bool) error {
	doc := dom.NewDocument()
	root := core.CreateRoot(doc.Container(), doc, cfg.RootOptions()...)
	root.Render(demo.New(cfg.AppName))
	if err := root.Flush(); err != nil {
		return err
	}

	for range opts.clicks {
		button := findByProp(doc.Container(), "id", "increment")
		if button == nil {
			return fmt.Errorf("demo has no increment button")
		}
		doc.Dispatch(button, "click", nil)
		if err := root.Flush(); err != nil {
			return err
		}
	}

	switch opts.format {
	case "html":
		_, err := fmt.Fprintln(w, doc.HTML())
		return err
	case "safe":
		_, err := fmt.Fprintln(w, export.SafeHTML(doc))
		return err
	case "md":
		out, err := export.Markdown(doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	default:
		palette := export.Palette{}
		if colour {
			palette = export.ANSI
		}
		if err := export.Outline(w, doc, palette); err != nil {
			return err
		}
		st := root.Stats()
		_, err := fmt.Fprintf(w, "\n%d commits, %d fibers, last commit: %d placements, %d updates, %d deletions\n",
			st.Commits, st.Units, st.Last.Placements, st.Last.Updates, st.Last.Deletions)
		return err
	}
}

func findByProp(n *dom.Node, name string, value any) *dom.Node {
	var found *dom.Node
	n.Walk(func(c *dom.Node) bool {
		if found != nil {
			return false
		}
		if v, ok := c.Prop(name); ok && v == value {
			found = c
			return false
		}
		return true
	})
	return found
}
