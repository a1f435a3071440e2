package tracing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type diagnosticError struct {
	payload string
}

func (e *diagnosticError) Error() string { return "diagnostic failure" }

func (e *diagnosticError) Diagnostic() any { return e.payload }

func childContexts(c *Context) []*Context {
	var contexts []*Context

	for _, child := range c.Children() {
		if ctx, ok := child.(*Context); ok {
			contexts = append(contexts, ctx)
		}
	}

	return contexts
}

func TestContext_UserContextIsCopied(t *testing.T) {
	uc := map[string]any{"trace": "t1"}
	root := New("root", uc)
	uc["trace"] = "mutated"

	child := root.StartChild("child", map[string]any{"stage": "a"})

	assert.Equal(t, map[string]any{"trace": "t1"}, root.UserContext())
	assert.Equal(t, map[string]any{"trace": "t1", "stage": "a"}, child.UserContext())

	got := child.UserContext()
	got["trace"] = "leak"
	assert.Equal(t, "t1", child.UserContext()["trace"])
	assert.Same(t, root, child.Parent())
}

func TestContext_WithChild_Success(t *testing.T) {
	root := New("root", nil)

	value, err := Child(root, "compute", func(ctx *Context) (int, error) {
		ctx.Info("computing", nil)

		return 42, nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 42, value)

	children := childContexts(root)
	require.Len(t, children, 1)
	_, ended := children[0].EndTime()
	assert.True(t, ended)
	assert.Equal(t, StatusSuccess, children[0].Status())
	assert.Equal(t, StatusRunning, root.Status())
}

func TestContext_WithChild_Error(t *testing.T) {
	root := New("root", nil)
	failure := &diagnosticError{payload: "details"}

	err := root.WithChild("failing", func(*Context) error {
		return failure
	}, nil)

	assert.Same(t, failure, err)

	children := childContexts(root)
	require.Len(t, children, 1)

	end, ended := children[0].EndTime()
	require.True(t, ended)
	assert.Equal(t, StatusFailed, children[0].Status())
	assert.Equal(t, StatusFailed, root.Status())

	logs := children[0].Children()
	require.Len(t, logs, 1)
	entry := logs[0].(*LogEntry)
	assert.Equal(t, KindError, entry.Kind)
	assert.Equal(t, "details", entry.Data)

	children[0].End()
	again, _ := children[0].EndTime()
	assert.Equal(t, end, again)
}

func TestContext_WithChild_Panic(t *testing.T) {
	root := New("root", nil)

	assert.PanicsWithValue(t, "boom", func() {
		_ = root.WithChild("panicking", func(*Context) error {
			panic("boom")
		}, nil)
	})

	children := childContexts(root)
	require.Len(t, children, 1)
	_, ended := children[0].EndTime()
	assert.True(t, ended)
	assert.Equal(t, StatusFailed, children[0].Status())
}

func TestContext_StatusPropagatesFromDeepDescendants(t *testing.T) {
	root := New("root", nil)
	level1 := root.StartChild("level1", nil)
	level2 := level1.StartChild("level2", nil)
	level2.Warning("just a warning", nil)

	root.End()
	assert.Equal(t, StatusSuccess, root.Status())

	level2.Error(errors.New("deep"), nil)
	assert.Equal(t, StatusFailed, root.Status())
	assert.Equal(t, StatusFailed, level1.Status())
}

func TestContext_Elapsed(t *testing.T) {
	root := New("root", nil)
	assert.Equal(t, time.Duration(0), root.Elapsed())

	child := root.StartChild("child", nil)
	time.Sleep(2 * time.Millisecond)
	child.End()

	running := root.Elapsed()
	assert.GreaterOrEqual(t, running, 2*time.Millisecond)

	root.End()
	assert.GreaterOrEqual(t, root.Elapsed(), running)
	assert.Greater(t, root.ElapsedFrom(root.StartTime().Add(-time.Second)), time.Second)
}

func TestContext_LogChannels(t *testing.T) {
	all := NewMemorySink()
	errs := NewMemorySink()
	root := New("root", nil,
		NewLogChannel(AllLogs, all),
		NewLogChannel(ErrorsOnly, errs),
	)

	root.Info("info", 1)
	_ = root.WithChild("child", func(ctx *Context) error {
		ctx.Warning("warning", nil)

		return errors.New("failure")
	}, nil)

	assert.Len(t, all.Entries(), 3)
	require.Len(t, errs.Entries(), 1)
	assert.Equal(t, "failure", errs.Last().Text)
	assert.Equal(t, "child", errs.Last().Context.Title())
}

func TestContext_Snapshot(t *testing.T) {
	root := New("root", map[string]any{"k": "v"})
	_ = root.WithChild("child", func(ctx *Context) error {
		ctx.Info("hello", nil)

		return nil
	}, nil)
	root.End()

	node := root.Snapshot()
	assert.Equal(t, "context", node.Type)
	assert.Equal(t, StatusSuccess, node.Status)
	require.Len(t, node.Children, 1)
	require.Len(t, node.Children[0].Children, 1)
	assert.Equal(t, "hello", node.Children[0].Children[0].Text)
	assert.NotNil(t, node.EndTime)
}
