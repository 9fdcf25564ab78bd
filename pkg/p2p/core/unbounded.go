package core

import "github.com/gammazero/deque"

// Unbounded is an order-preserving queue between one or more producers and a
// single consumer, backed by a relay goroutine and a growable ring buffer.
// spec.md §4.1 requires commands, internal inputs, and events to flow over
// unbounded queues so a slow consumer on one side never deadlocks a
// producer on the other; a fixed-capacity buffered channel is still a
// bound, just a larger one, and a producer can always be made to fill it.
type Unbounded[T any] struct {
	in  chan T
	out chan T
}

// NewUnbounded starts the relay goroutine and returns the queue ends. In
// accepts sends unconditionally; the goroutine behind it is always ready to
// receive, so a producer only ever waits on a consumer's own processing
// time, never on queue capacity. Closing In drains whatever is still
// buffered onto Out before closing Out, the same way draining a regular
// channel after close lets a final in-flight batch be read out.
func NewUnbounded[T any]() *Unbounded[T] {
	u := &Unbounded[T]{in: make(chan T), out: make(chan T)}
	go u.relay()
	return u
}

func (u *Unbounded[T]) In() chan<- T  { return u.in }
func (u *Unbounded[T]) Out() <-chan T { return u.out }

func (u *Unbounded[T]) relay() {
	var buf deque.Deque[T]
	for {
		if buf.Len() == 0 {
			v, ok := <-u.in
			if !ok {
				close(u.out)
				return
			}
			buf.PushBack(v)
			continue
		}

		select {
		case v, ok := <-u.in:
			if !ok {
				for buf.Len() > 0 {
					u.out <- buf.PopFront()
				}
				close(u.out)
				return
			}
			buf.PushBack(v)
		case u.out <- buf.Front():
			buf.PopFront()
		}
	}
}
