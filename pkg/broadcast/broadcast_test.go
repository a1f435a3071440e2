package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannel_ReplaysLastValue(t *testing.T) {
	c := New[int]()

	var early []int
	c.Subscribe(func(v int) { early = append(early, v) })

	c.Publish(1)
	c.Publish(2)

	var late []int
	c.Subscribe(func(v int) { late = append(late, v) })
	c.Publish(3)

	assert.Equal(t, []int{1, 2, 3}, early)
	assert.Equal(t, []int{2, 3}, late)

	last, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, 3, last)
}

func TestChannel_NoReplayBeforeFirstPublish(t *testing.T) {
	c := New[string]()

	calls := 0
	c.Subscribe(func(string) { calls++ })

	assert.Equal(t, 0, calls)

	_, ok := c.Last()
	assert.False(t, ok)
}

func TestChannel_Unsubscribe(t *testing.T) {
	c := New[int]()

	var first, second []int
	s1 := c.Subscribe(func(v int) { first = append(first, v) })
	c.Subscribe(func(v int) { second = append(second, v) })

	c.Publish(1)
	s1.Unsubscribe()
	s1.Unsubscribe()
	c.Publish(2)

	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{1, 2}, second)
	assert.Equal(t, 1, c.Subscribers())
}

func TestChannel_SubscriberMayPublish(t *testing.T) {
	c := New[int]()

	var seen []int
	c.Subscribe(func(v int) {
		seen = append(seen, v)
		if v < 3 {
			c.Publish(v + 1)
		}
	})

	c.Publish(1)

	assert.Equal(t, []int{1, 2, 3}, seen)
}
