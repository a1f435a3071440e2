// Package tracing provides the hierarchical execution trace recorded for every
// message processed by a module.
//
// A Context is a node of the trace tree: it has a title, a user context propagated
// to its children (copied, never shared), a start time, an optional end time and an
// ordered list of children, either nested contexts or log entries. Every log entry is
// also dispatched to the log channels the root context was created with.
package tracing

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Status is the state of a Context derived from its subtree.
type Status string

const (
	StatusSuccess Status = "success"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// Context is a node of an execution trace.
type Context struct {
	mu          sync.RWMutex
	title       string
	userContext map[string]any
	children    []Element
	start       time.Time
	end         time.Time
	parent      *Context
	channels    []*LogChannel
}

// New creates a root context. The user context is copied.
func New(title string, userContext map[string]any, channels ...*LogChannel) *Context {
	return newContext(title, userContext, nil, channels)
}

func newContext(title string, userContext map[string]any, parent *Context, channels []*LogChannel) *Context {
	uc := make(map[string]any, len(userContext))
	maps.Copy(uc, userContext)

	return &Context{
		title:       title,
		userContext: uc,
		start:       time.Now(),
		parent:      parent,
		channels:    channels,
	}
}

func (c *Context) timestamp() time.Time {
	t, _ := c.latest()

	return t
}

func (c *Context) Title() string { return c.title }

func (c *Context) Parent() *Context { return c.parent }

func (c *Context) StartTime() time.Time { return c.start }

// EndTime returns the end time and whether the context has ended.
func (c *Context) EndTime() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.end, !c.end.IsZero()
}

// UserContext returns a copy of the user context.
func (c *Context) UserContext() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Clone(c.userContext)
}

// SetUserContext replaces the user context with a copy of userContext.
func (c *Context) SetUserContext(userContext map[string]any) {
	uc := make(map[string]any, len(userContext))
	maps.Copy(uc, userContext)

	c.mu.Lock()
	c.userContext = uc
	c.mu.Unlock()
}

// Children returns a snapshot of the children list.
func (c *Context) Children() []Element {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Element(nil), c.children...)
}

// StartChild appends a child whose lifecycle is managed by the caller, which must call End.
func (c *Context) StartChild(title string, extra map[string]any) *Context {
	c.mu.RLock()
	uc := maps.Clone(c.userContext)
	c.mu.RUnlock()

	if uc == nil {
		uc = make(map[string]any, len(extra))
	}

	maps.Copy(uc, extra)

	child := newContext(title, uc, c, c.channels)

	c.mu.Lock()
	c.children = append(c.children, child)
	c.mu.Unlock()

	return child
}

// WithChild runs fn within a new child context. The child is ended exactly once
// whatever the outcome. A returned error is logged on the child with its diagnostic
// payload and returned unchanged; a panic is logged the same way and re-raised.
func (c *Context) WithChild(title string, fn func(ctx *Context) error, extra map[string]any) error {
	_, err := Child(c, title, func(ctx *Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, extra)

	return err
}

// Child is WithChild for callbacks returning a value.
func Child[T any](c *Context, title string, fn func(ctx *Context) (T, error), extra map[string]any) (T, error) {
	child := c.StartChild(title, extra)

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", r)
			}

			child.Error(err, nil)
			child.End()

			panic(r)
		}
	}()

	value, err := fn(child)
	if err != nil {
		child.Error(err, nil)
	}

	child.End()

	return value, err
}

// End marks the context as ended. Subsequent calls are no-ops.
func (c *Context) End() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.end.IsZero() {
		c.end = time.Now()
	}
}

func (c *Context) Info(text string, data any) {
	c.addLog(&LogEntry{Kind: KindInfo, Text: text, Data: data})
}

func (c *Context) Warning(text string, data any) {
	c.addLog(&LogEntry{Kind: KindWarning, Text: text, Data: data})
}

// Error logs err. When data is nil and err carries a Diagnostic payload, the payload is used.
func (c *Context) Error(err error, data any) {
	if data == nil {
		var d Diagnostic
		if errors.As(err, &d) {
			data = d.Diagnostic()
		}
	}

	c.addLog(&LogEntry{Kind: KindError, Text: err.Error(), Data: data, Err: err})
}

func (c *Context) Custom(text string, data any) {
	c.addLog(&LogEntry{Kind: KindCustom, Text: text, Data: data})
}

func (c *Context) addLog(entry *LogEntry) {
	entry.Context = c
	entry.Timestamp = time.Now()

	c.mu.Lock()
	c.children = append(c.children, entry)
	c.mu.Unlock()

	for _, channel := range c.channels {
		channel.dispatch(entry)
	}
}

// Status is Failed when any descendant holds an error log, Success once ended,
// Running otherwise.
func (c *Context) Status() Status {
	if c.hasError() {
		return StatusFailed
	}

	if _, ended := c.EndTime(); ended {
		return StatusSuccess
	}

	return StatusRunning
}

func (c *Context) hasError() bool {
	for _, child := range c.Children() {
		switch e := child.(type) {
		case *LogEntry:
			if e.Kind == KindError {
				return true
			}
		case *Context:
			if e.hasError() {
				return true
			}
		}
	}

	return false
}

// latest returns the end time when ended, otherwise the most recent timestamp found
// among ended descendants and logs.
func (c *Context) latest() (time.Time, bool) {
	if end, ended := c.EndTime(); ended {
		return end, true
	}

	var (
		latest time.Time
		found  bool
	)

	for _, child := range c.Children() {
		var (
			t  time.Time
			ok bool
		)

		switch e := child.(type) {
		case *LogEntry:
			t, ok = e.Timestamp, true
		case *Context:
			t, ok = e.latest()
		}

		if ok && (!found || t.After(latest)) {
			latest, found = t, true
		}
	}

	return latest, found
}

// Elapsed approximates the wall-clock span of the context, even while running.
func (c *Context) Elapsed() time.Duration {
	return c.ElapsedFrom(c.start)
}

// ElapsedFrom is Elapsed measured from an arbitrary instant.
func (c *Context) ElapsedFrom(from time.Time) time.Duration {
	latest, ok := c.latest()
	if !ok {
		return 0
	}

	return latest.Sub(from)
}
