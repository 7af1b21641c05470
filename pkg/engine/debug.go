package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// DebugLevel controls how much the engine prints
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	DebugSQL
	DebugTrace
)

// DebugContext carries debug settings down to executors
type DebugContext struct {
	Level       DebugLevel
	Writer      io.Writer
	ColorOutput bool
}

// DefaultDebugContext prints nothing
func DefaultDebugContext() *DebugContext {
	return &DebugContext{
		Level:  DebugOff,
		Writer: os.Stdout,
	}
}

// ShouldLogSQL reports whether statements are printed
func (d *DebugContext) ShouldLogSQL() bool {
	return d != nil && d.Level >= DebugSQL
}

// ShouldTrace reports whether timings are printed
func (d *DebugContext) ShouldTrace() bool {
	return d != nil && d.Level >= DebugTrace
}

// LogSQL prints a statement and its arguments
func (d *DebugContext) LogSQL(query string, args []any) {
	if !d.ShouldLogSQL() {
		return
	}
	d.prefix("[SQL] ", color.FgCyan)
	fmt.Fprintf(d.out(), "%s\n", query)
	if len(args) > 0 {
		d.prefix("[VALUES] ", color.FgCyan)
		fmt.Fprintf(d.out(), "%v\n", args)
	}
}

// LogTrace prints an operation timing
func (d *DebugContext) LogTrace(op, table string, elapsed time.Duration) {
	if !d.ShouldTrace() {
		return
	}
	d.prefix("[TRACE] ", color.FgYellow)
	fmt.Fprintf(d.out(), "%s on %s: %v\n", op, table, elapsed)
}

func (d *DebugContext) prefix(p string, attr color.Attribute) {
	if d.ColorOutput {
		color.New(attr).Fprint(d.out(), p)
		return
	}
	fmt.Fprint(d.out(), p)
}

func (d *DebugContext) out() io.Writer {
	if d.Writer == nil {
		return os.Stdout
	}
	return d.Writer
}

type debugKey struct{}

// ContextWithDebug attaches a debug context that overrides the executor's
// own setting for calls made with ctx.
func ContextWithDebug(ctx context.Context, debug *DebugContext) context.Context {
	return context.WithValue(ctx, debugKey{}, debug)
}

// DebugFromContext returns the debug context attached to ctx, or fallback
func DebugFromContext(ctx context.Context, fallback *DebugContext) *DebugContext {
	if debug, ok := ctx.Value(debugKey{}).(*DebugContext); ok && debug != nil {
		return debug
	}
	return fallback
}
