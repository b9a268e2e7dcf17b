package errors

import (
	"fmt"
	"io"
	"os"
)

// LogHandler is an ErrorHandler that writes errors to Out (stderr when nil).
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
	// Out receives the log lines. Defaults to os.Stderr.
	Out io.Writer
}

func (h *LogHandler) out() io.Writer {
	if h.Out == nil {
		return os.Stderr
	}
	return h.Out
}

// HandleError logs a RenderError.
func (h *LogHandler) HandleError(err *RenderError) {
	if err == nil {
		return
	}
	w := h.out()
	if !h.Verbose {
		fmt.Fprintf(w, "[fiber error] %s\n", err.Error())
		return
	}
	fmt.Fprintf(w, "[fiber error] %s [%s]", err.Op, err.Kind)
	if err.Fiber != "" {
		fmt.Fprintf(w, " fiber=%s", err.Fiber)
	}
	if err.Recovered != nil {
		fmt.Fprintf(w, " recovered=%v", err.Recovered)
	}
	fmt.Fprintf(w, ": %v\n", err.Err)
	if err.StackTrace != "" {
		fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
	}
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	w := h.out()
	if err.Op != "" {
		fmt.Fprintf(w, "[fiber panic] %s: %v\n", err.Op, err.Value)
	} else {
		fmt.Fprintf(w, "[fiber panic] %v\n", err.Value)
	}
	if h.Verbose && err.StackTrace != "" {
		fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
	}
}
