// Package logger is the structured logger shared by the service, its
// workers and the command line tools. It wraps log/slog behind a small
// context-first interface.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Logger is the logging interface used across the module. Every call takes
// the request context so that fields bound with WithFields are emitted too.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)

	// Named returns a child logger tagged with component=name.
	Named(name string) Logger
}

// Field is one structured key/value pair.
type Field = slog.Attr

func String(key, val string) Field          { return slog.String(key, val) }
func Int(key string, val int) Field         { return slog.Int(key, val) }
func Float64(key string, val float64) Field { return slog.Float64(key, val) }
func Bool(key string, val bool) Field       { return slog.Bool(key, val) }
func Any(key string, val any) Field         { return slog.Any(key, val) }

// Error reports err under the "error" key. A nil error yields an empty field,
// which the handler drops.
func Error(err error) Field {
	if err == nil {
		return Field{}
	}
	return slog.String("error", err.Error())
}

type ctxKey struct{}

// WithFields returns a context carrying fields that every log call made
// with it will include. Fields accumulate across calls.
func WithFields(ctx context.Context, fields ...Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	prev := FieldsFrom(ctx)
	merged := make([]Field, 0, len(prev)+len(fields))
	merged = append(append(merged, prev...), fields...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

// FieldsFrom returns the fields bound to ctx.
func FieldsFrom(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxKey{}).([]Field)
	return fields
}

type slogLogger struct {
	base *slog.Logger
}

func (l *slogLogger) Named(name string) Logger {
	return &slogLogger{base: l.base.With(slog.String("component", name))}
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

// log builds the record itself so that the source points at the caller of
// Info/Warn/Error/Debug rather than at this package.
func (l *slogLogger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.base.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // Callers, log, Info
	rec := slog.NewRecord(time.Now(), level, msg, pcs[0])
	rec.AddAttrs(FieldsFrom(ctx)...)
	rec.AddAttrs(fields...)
	_ = l.base.Handler().Handle(ctx, rec)
}

var (
	global atomic.Pointer[slogLogger]
	level  slog.LevelVar
)

type options struct {
	format string
	out    io.Writer
}

// Option configures Init.
type Option func(*options)

// WithFormat selects "text" (default) or "json" output.
func WithFormat(format string) Option {
	return func(o *options) { o.format = strings.ToLower(strings.TrimSpace(format)) }
}

// WithOutput redirects log output.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// Init installs the global logger at info level.
func Init(opts ...Option) error {
	o := options{format: "text", out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	hopts := &slog.HandlerOptions{
		Level:       &level,
		AddSource:   true,
		ReplaceAttr: shortSource,
	}
	var h slog.Handler
	switch o.format {
	case "", "text":
		h = slog.NewTextHandler(o.out, hopts)
	case "json":
		h = slog.NewJSONHandler(o.out, hopts)
	default:
		return fmt.Errorf("unknown log format: %s", o.format)
	}
	level.Set(slog.LevelInfo)
	global.Store(&slogLogger{base: slog.New(h)})
	return nil
}

// shortSource renders the source as file:line relative to the working
// directory, falling back to the base name.
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil || src.File == "" {
		return slog.String(slog.SourceKey, "unknown:0")
	}
	file := filepath.Base(src.File)
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, src.File); err == nil {
			file = rel
		}
	}
	return slog.String(slog.SourceKey, file+":"+strconv.Itoa(src.Line))
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &slogLogger{base: slog.New(slog.DiscardHandler)}
}

// Get returns the global logger. It panics before Init.
func Get() Logger {
	l := global.Load()
	if l == nil {
		panic("logger not initialized. Call logger.Init() first")
	}
	return l
}

// Named is Get().Named(name).
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync exists for call sites that flush on exit; slog writes synchronously.
func Sync() error { return nil }

// SetLevel changes the level of the global logger.
func SetLevel(l slog.Level) { level.Set(l) }

// Level reports the current level of the global logger.
func Level() slog.Level { return level.Level() }

// SetLevelString parses a level name such as "debug", "warn" or "error+2"
// and applies it. "warning" and the empty string are accepted as aliases.
func SetLevelString(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		s = "info"
	case "warning":
		s = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("unknown log level: %s", s)
	}
	SetLevel(l)
	return nil
}
