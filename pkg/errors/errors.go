// Package errors provides structured error handling for the fiber renderer.
//
// Render failures are reported twice: returned to whoever drives the root
// (Root.Flush, Root.Err) and sent to the global ErrorHandler so that
// applications can log or collect them in one place.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Sentinel errors wrapped by RenderError.
var (
	// ErrMalformedChild marks a descriptor child that is neither a descriptor
	// nor a primitive value.
	ErrMalformedChild = stderrors.New("malformed descriptor child")
	// ErrHookMismatch marks a component that called a different number or
	// kind of hooks than on its previous render.
	ErrHookMismatch = stderrors.New("hook order changed between renders")
	// ErrHookOutsideRender is the panic value used when a hook is called
	// without an active component.
	ErrHookOutsideRender = stderrors.New("hook called outside a component body")
	// ErrUnmounted is returned by operations on a root after Unmount.
	ErrUnmounted = stderrors.New("root is unmounted")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindHost indicates the host binding rejected a node creation or mutation.
	KindHost
	// KindDescriptor indicates a malformed descriptor tree.
	KindDescriptor
	// KindBuild indicates a component body failed.
	KindBuild
	// KindHook indicates a hook contract violation.
	KindHook
	// KindCommit indicates a host failure during the commit pass.
	KindCommit
	// KindPanic indicates a recovered panic outside a component body.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindDescriptor:
		return "descriptor"
	case KindBuild:
		return "build"
	case KindHook:
		return "hook"
	case KindCommit:
		return "commit"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// RenderError represents a failed render pass.
type RenderError struct {
	// Op is the operation that failed (e.g., "core.performUnitOfWork").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Fiber describes the fiber being processed, if any (e.g., "<div>" or "Counter").
	Fiber string
	// Err is the underlying error.
	Err error
	// Recovered is the panic value when a component body panicked.
	Recovered any
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	cause := any(e.Err)
	if e.Err == nil && e.Recovered != nil {
		cause = fmt.Sprintf("panic: %v", e.Recovered)
	}
	if e.Fiber != "" {
		return fmt.Sprintf("%s [%s] fiber=%s: %v", e.Op, e.Kind, e.Fiber, cause)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, cause)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "scheduler.Flush").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the renderer.
type ErrorHandler interface {
	// HandleError is called when a render pass fails.
	HandleError(err *RenderError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join returns an error that wraps the given errors.
func Join(errs ...error) error { return stderrors.Join(errs...) }
