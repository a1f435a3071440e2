package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type physicalModel struct {
	id int
}

func newCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()

	c, err := New(opts...)
	require.NoError(t, err)

	return c
}

func counting(calls *int, value string) func(*tracing.Context) (string, error) {
	return func(*tracing.Context) (string, error) {
		*calls++

		return value, nil
	}
}

func TestGetOrCreate_ReferenceKey(t *testing.T) {
	c := newCache(t)
	model := &physicalModel{id: 1}
	calls := 0

	value, cached, err := GetOrCreateWithStatus(c, NewReferenceKey("model", model), counting(&calls, "result"), nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "result", value)

	value, cached, err = GetOrCreateWithStatus(c, NewReferenceKey("model", model), counting(&calls, "other"), nil)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "result", value)
	assert.Equal(t, 1, calls)
}

func TestGetOrCreate_ReferenceKeyDistinguishesObjects(t *testing.T) {
	c := newCache(t, WithCapacity(5))
	calls := 0

	_, _, err := GetOrCreateWithStatus(c, NewReferenceKey("model", &physicalModel{id: 1}), counting(&calls, "a"), nil)
	require.NoError(t, err)

	_, cached, err := GetOrCreateWithStatus(c, NewReferenceKey("model", &physicalModel{id: 1}), counting(&calls, "b"), nil)
	require.NoError(t, err)
	assert.False(t, cached)

	model := &physicalModel{id: 2}
	_, _, _ = GetOrCreateWithStatus(c, NewReferenceKey("model", model), counting(&calls, "c"), nil)
	_, cached, _ = GetOrCreateWithStatus(c, NewReferenceKey("other", model), counting(&calls, "d"), nil)
	assert.False(t, cached)
	assert.Equal(t, 4, calls)
}

func TestGetOrCreate_ValueKey(t *testing.T) {
	c := newCache(t)
	calls := 0

	first := map[string]any{"operation": "sum", "weights": []any{1, 2}}
	second := map[string]any{"weights": []any{1, 2}, "operation": "sum"}

	_, cached, err := GetOrCreateWithStatus(c, NewValueKey("config", first), counting(&calls, "result"), nil)
	require.NoError(t, err)
	assert.False(t, cached)

	value, cached, err := GetOrCreateWithStatus(c, NewValueKey("config", second), counting(&calls, "other"), nil)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "result", value)
	assert.Equal(t, 1, calls)
}

func TestCache_CapacityOneOverwrites(t *testing.T) {
	c := newCache(t, WithCapacity(3))
	calls := 0

	_, _ = GetOrCreate(c, NewValueKey("k", 1), counting(&calls, "one"), nil)
	c.SetCapacity(1)
	assert.Equal(t, 1, c.Len())

	_, _ = GetOrCreate(c, NewValueKey("k", 2), counting(&calls, "two"), nil)
	assert.Equal(t, 1, c.Len())

	_, cached, _ := GetOrCreateWithStatus(c, NewValueKey("k", 1), counting(&calls, "one again"), nil)
	assert.False(t, cached)
	assert.Equal(t, 3, calls)
}

func TestCache_FIFOEviction(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := newCache(t, WithCapacity(2), WithMetrics(registry, "test"))
	calls := 0

	for _, v := range []int{1, 2, 3} {
		_, err := GetOrCreate(c, NewValueKey("k", v), counting(&calls, "v"), nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Len())

	_, cached, _ := GetOrCreateWithStatus(c, NewValueKey("k", 3), counting(&calls, "v"), nil)
	assert.True(t, cached)
	_, cached, _ = GetOrCreateWithStatus(c, NewValueKey("k", 2), counting(&calls, "v"), nil)
	assert.True(t, cached)
	_, cached, _ = GetOrCreateWithStatus(c, NewValueKey("k", 1), counting(&calls, "v"), nil)
	assert.False(t, cached)

	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.hits), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(c.metrics.misses), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.evictions), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.size), 0)
}

func TestGetOrCreate_ValueOfAnotherTypeIsReplaced(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := newCache(t, WithCapacity(4), WithMetrics(registry, "typed"))
	key := NewValueKey("config", map[string]any{"a": 1})

	_, err := GetOrCreate(c, key, func(*tracing.Context) (int, error) { return 42, nil }, nil)
	require.NoError(t, err)

	calls := 0

	value, cached, err := GetOrCreateWithStatus(c, key, counting(&calls, "text"), nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "text", value)

	value, cached, err = GetOrCreateWithStatus(c, key, counting(&calls, "text"), nil)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "text", value)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.hits), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.misses), 0)
}

func TestCache_MetricsReusedForSameComponent(t *testing.T) {
	registry := prometheus.NewRegistry()

	_, err := New(WithMetrics(registry, "module-a"))
	require.NoError(t, err)

	_, err = New(WithMetrics(registry, "module-a"))
	require.NoError(t, err)
}

func TestGetOrCreate_TracesHitsAndMisses(t *testing.T) {
	c := newCache(t)
	root := tracing.New("root", nil)
	key := NewValueKey("expensive", "input")

	var creationCtx *tracing.Context

	_, err := GetOrCreate(c, key, func(ctx *tracing.Context) (int, error) {
		creationCtx = ctx

		return 42, nil
	}, root)
	require.NoError(t, err)

	require.NotNil(t, creationCtx)
	assert.Equal(t, "Cache -> expensive: Value creation", creationCtx.Title())
	_, ended := creationCtx.EndTime()
	assert.True(t, ended)

	value, err := GetOrCreate(c, key, func(*tracing.Context) (int, error) { return 0, nil }, root)
	require.NoError(t, err)
	assert.Equal(t, 42, value)

	children := root.Children()
	require.Len(t, children, 2)
	entry, ok := children[1].(*tracing.LogEntry)
	require.True(t, ok)
	assert.Equal(t, tracing.KindInfo, entry.Kind)
	assert.Equal(t, "Cache -> expensive: Value retrieved from cache", entry.Text)
}

func TestGetOrCreate_FailedCreationIsNotStored(t *testing.T) {
	c := newCache(t)
	root := tracing.New("root", nil)
	failure := errors.New("creation failed")

	_, err := GetOrCreate(c, NewValueKey("k", 1), func(*tracing.Context) (int, error) {
		return 0, failure
	}, root)

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, tracing.StatusFailed, root.Status())
}

func TestGetOrCreateAsync(t *testing.T) {
	c := newCache(t)
	root := tracing.New("root", nil)
	key := NewReferenceKey("model", &physicalModel{id: 7})
	release := make(chan struct{})

	var creationCtx *tracing.Context

	results := GetOrCreateAsync(c, key, func(ctx *tracing.Context) <-chan Result[int] {
		creationCtx = ctx
		out := make(chan Result[int], 1)

		go func() {
			<-release
			out <- Result[int]{Value: 42}
			close(out)
		}()

		return out
	}, root)

	require.NotNil(t, creationCtx)
	_, ended := creationCtx.EndTime()
	assert.False(t, ended)

	close(release)

	select {
	case result := <-results:
		require.NoError(t, result.Err)
		assert.Equal(t, 42, result.Value)
		assert.False(t, result.Cached)
	case <-time.After(time.Second):
		t.Fatal("asynchronous creation did not complete")
	}

	_, ended = creationCtx.EndTime()
	assert.True(t, ended)

	result := <-GetOrCreateAsync(c, key, func(*tracing.Context) <-chan Result[int] {
		return Resolved(0)
	}, nil)
	assert.True(t, result.Cached)
	assert.Equal(t, 42, result.Value)
}

func TestSameReference(t *testing.T) {
	model := &physicalModel{id: 1}
	items := []int{1, 2, 3}
	config := map[string]any{"a": 1}

	assert.True(t, sameReference(model, model))
	assert.False(t, sameReference(model, &physicalModel{id: 1}))
	assert.True(t, sameReference(items, items))
	assert.False(t, sameReference(items, items[:2]))
	assert.True(t, sameReference(config, config))
	assert.False(t, sameReference(config, map[string]any{"a": 1}))
	assert.True(t, sameReference("x", "x"))
	assert.False(t, sameReference(1, int64(1)))
	assert.True(t, sameReference(nil, nil))
}
