// Package logging writes the finalizer log.
//
// Every record becomes one line:
//
//	[<pid-hex>:<tid-hex>][2006-01-02T15:04:05] Finalizer: <message> key=value ...
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Prefix names the component in every log line.
const Prefix = "Finalizer"

const timeFormat = "2006-01-02T15:04:05"

// lineHandler is a slog.Handler producing finalizer log lines.
type lineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
	// now and ids are replaceable in tests.
	now func() time.Time
	ids func() (pid, tid uint32)
}

// NewHandler returns a handler writing finalizer log lines to w.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &lineHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		now:   time.Now,
		ids:   processIDs,
	}
}

// New returns a logger writing finalizer log lines to w.
func New(w io.Writer) *slog.Logger {
	return slog.New(NewHandler(w, slog.LevelDebug))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard)
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	pid, tid := h.ids()
	ts := r.Time
	if ts.IsZero() {
		ts = h.now()
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "[%x:%x][%s] %s: ", pid, tid, ts.Format(timeFormat), Prefix)
	if r.Level >= slog.LevelWarn {
		buf.WriteString(r.Level.String())
		buf.WriteString(": ")
	}
	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.group, a)
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func writeAttr(buf *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(buf, key, ga)
		}
		return
	}
	buf.WriteString(" ")
	buf.WriteString(key)
	buf.WriteString("=")
	v := a.Value.String()
	if strings.ContainsAny(v, " \t") || v == "" {
		v = fmt.Sprintf("%q", v)
	}
	buf.WriteString(v)
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(nh.attrs, h.attrs)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if h.group != "" {
		nh.group = h.group + "." + name
	} else {
		nh.group = name
	}
	return &nh
}

// File is a log sink backed by a file. It is opened once at process start
// and must be closed before exit to flush buffered lines.
type File struct {
	f      *os.File
	w      *bufio.Writer
	logger *slog.Logger
}

// Open opens path for appending, creating it if needed.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	lf := &File{f: f, w: bufio.NewWriter(f)}
	lf.logger = slog.New(NewHandler(lf.w, slog.LevelDebug))
	return lf, nil
}

// Logger returns the logger writing to the file.
func (lf *File) Logger() *slog.Logger {
	return lf.logger
}

// Close flushes buffered lines and closes the file.
func (lf *File) Close() error {
	flushErr := lf.w.Flush()
	closeErr := lf.f.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush log: %w", flushErr)
	}
	return closeErr
}

func processIDs() (uint32, uint32) {
	return uint32(os.Getpid()), threadID()
}
