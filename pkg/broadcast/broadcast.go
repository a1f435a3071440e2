// Package broadcast provides the last-value-replaying channel backing output slots.
package broadcast

import "sync"

// Subscription is returned by Subscribe and detaches its subscriber.
type Subscription interface {
	Unsubscribe()
}

// Channel delivers each published value to its subscribers, synchronously and in
// subscription order. A new subscriber immediately receives the last published value.
type Channel[T any] struct {
	mu          sync.Mutex
	last        T
	hasLast     bool
	nextID      uint64
	subscribers []*subscriber[T]
}

type subscriber[T any] struct {
	id      uint64
	channel *Channel[T]
	fn      func(T)
	once    sync.Once
}

func New[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Publish records value as the last value and delivers it. Delivery happens outside
// the lock so subscribers may publish or subscribe in turn.
func (c *Channel[T]) Publish(value T) {
	c.mu.Lock()
	c.last, c.hasLast = value, true
	subscribers := append([]*subscriber[T](nil), c.subscribers...)
	c.mu.Unlock()

	for _, s := range subscribers {
		s.fn(value)
	}
}

// Subscribe registers fn; it is called right away with the last value, if any.
func (c *Channel[T]) Subscribe(fn func(T)) Subscription {
	c.mu.Lock()
	c.nextID++
	s := &subscriber[T]{id: c.nextID, channel: c, fn: fn}
	c.subscribers = append(c.subscribers, s)
	last, hasLast := c.last, c.hasLast
	c.mu.Unlock()

	if hasLast {
		fn(last)
	}

	return s
}

// Last returns the last published value.
func (c *Channel[T]) Last() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.last, c.hasLast
}

// Subscribers returns the number of live subscriptions.
func (c *Channel[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subscribers)
}

func (s *subscriber[T]) Unsubscribe() {
	s.once.Do(func() {
		c := s.channel

		c.mu.Lock()
		defer c.mu.Unlock()

		for i, candidate := range c.subscribers {
			if candidate.id == s.id {
				c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)

				break
			}
		}
	})
}
