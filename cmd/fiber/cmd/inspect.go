package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-drift/fiber/cmd/fiber/internal/demo"
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/dom"
	"github.com/go-drift/fiber/pkg/inspect"
)

const defaultInspectorAddr = "localhost:7777"

func init() {
	RegisterCommand(&Command{
		Name:  "inspect",
		Short: "Serve the demo app with the debug inspector",
		Long: `Mount the demo app on a scheduler loop and serve its fiber tree
and render statistics over HTTP until interrupted.

Endpoints:
  GET /health
  GET /roots
  GET /roots/{id}/fiber-tree
  GET /roots/{id}/stats

Flags:
  --addr ADDR      Listen address (default debug.inspector or localhost:7777)
  --tick DURATION  Click the demo counter on this interval (default off)
  -v, --verbose    Log renders and requests`,
		Usage: "fiber inspect [--addr ADDR] [--tick 1s] [-v]",
		Run:   runInspect,
	})
}

type inspectOptions struct {
	addr    string
	tick    time.Duration
	verbose bool
}

func parseInspectArgs(args []string) (inspectOptions, error) {
	var opts inspectOptions
	for i := 0; i < len(args); i++ {
		if args[i] == "-v" || args[i] == "--verbose" {
			opts.verbose = true
			continue
		}
		if v, next, ok, err := flagValue(args, i, "addr"); ok {
			if err != nil {
				return opts, err
			}
			opts.addr, i = v, next
			continue
		}
		if v, next, ok, err := flagValue(args, i, "tick"); ok {
			if err != nil {
				return opts, err
			}
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				return opts, fmt.Errorf("--tick must be a non-negative duration (got %q)", v)
			}
			opts.tick, i = d, next
			continue
		}
		return opts, fmt.Errorf("unknown flag %q", args[i])
	}
	return opts, nil
}

func runInspect(args []string) error {
	opts, err := parseInspectArgs(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := opts.addr
	if addr == "" {
		addr = cfg.Inspector
	}
	if addr == "" {
		addr = defaultInspectorAddr
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	loop := cfg.NewLoop()
	doc := dom.NewDocument()
	rootOpts := append(cfg.RootOptions(), core.WithScheduler(loop), core.WithLogger(logger))
	root := core.CreateRoot(doc.Container(), doc, rootOpts...)

	server := inspect.NewServer(addr, logger)
	server.Register(cfg.AppName, root)
	port, err := server.Start()
	if err != nil {
		return err
	}
	fmt.Printf("Inspector listening on port %d (root %s)\n", port, root.ID())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Do fails only once ctx is done, and then Run returns at once.
	_ = loop.Do(ctx, func() { root.Render(demo.New(cfg.AppName)) })
	if opts.tick > 0 {
		go clickEvery(ctx, loop.Do, doc, opts.tick)
	}

	err = loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("inspector shutdown failed", "error", serr)
	}
	if uerr := root.Unmount(); uerr != nil {
		logger.Warn("unmount failed", "error", uerr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// clickEvery dispatches a click on the increment button through do, so that
// handlers run on the loop goroutine.
func clickEvery(ctx context.Context, do func(context.Context, func()) error, doc *dom.Document, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := do(ctx, func() {
				if button := findByProp(doc.Container(), "id", "increment"); button != nil {
					doc.Dispatch(button, "click", nil)
				}
			})
			if err != nil {
				return
			}
		}
	}
}
