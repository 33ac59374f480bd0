// Package notify carries user-facing outcomes out of the view modules.
// Modules receive a Notifier and a Confirmer instead of calling ambient
// globals, so the terminal front-end, logs and tests can each plug in
// their own sink.
package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/angelmondragon/shopdesk/pkg/logger"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notifier displays a message transiently. It holds no state the caller depends on.
type Notifier interface {
	Notify(ctx context.Context, message string, kind Kind)
}

// Confirmer asks the operator a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type NotifierFunc func(ctx context.Context, message string, kind Kind)

func (f NotifierFunc) Notify(ctx context.Context, message string, kind Kind) {
	f(ctx, message, kind)
}

// Discard drops every message.
var Discard Notifier = NotifierFunc(func(context.Context, string, Kind) {})

// Multi fans a message out to every non-nil notifier.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, message string, kind Kind) {
		for _, n := range notifiers {
			if n != nil {
				n.Notify(ctx, message, kind)
			}
		}
	})
}

// LogNotifier records notifications as structured log entries.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Notify(ctx context.Context, message string, kind Kind) {
	if n == nil || n.logg == nil {
		return
	}
	ctx = n.logg.WithFields(ctx, map[string]any{"kind": string(kind), "notification": message})
	if kind == KindError {
		n.logg.Warn(ctx, "notify")
		return
	}
	n.logg.Info(ctx, "notify")
}

// WriterNotifier prints one line per notification.
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

func (n *WriterNotifier) Notify(_ context.Context, message string, kind Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[%s] %s\n", kind, message)
}

// Entry is one captured notification.
type Entry struct {
	Message string
	Kind    Kind
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Notify(_ context.Context, message string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Message: message, Kind: kind})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent entry, if any.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// StaticConfirmer answers every prompt with the same value.
type StaticConfirmer bool

func (c StaticConfirmer) Confirm(context.Context, string) bool {
	return bool(c)
}

// PromptConfirmer asks on out and reads a y/yes answer from in.
type PromptConfirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *PromptConfirmer) Confirm(_ context.Context, prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
