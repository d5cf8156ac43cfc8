package events

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	ErrOutboxFull   = errors.New("event outbox full")
	ErrOutboxClosed = errors.New("event outbox closed")
)

// Sink delivers one message to the broker.
type Sink interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Outbox buffers messages and hands them to a Sink from a single goroutine, in
// enqueue order. Enqueue never blocks.
type Outbox struct {
	sink  Sink
	queue chan Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func NewOutbox(sink Sink, size int) *Outbox {
	o := &Outbox{
		sink:  sink,
		queue: make(chan Message, size),
		done:  make(chan struct{}),
	}
	go o.run()
	return o
}

// Enqueue drops the message and returns ErrOutboxFull when the buffer is full.
func (o *Outbox) Enqueue(m Message) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrOutboxClosed
	}
	select {
	case o.queue <- m:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Close stops accepting messages and waits until the buffered ones are delivered.
func (o *Outbox) Close() {
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.queue)
		o.mu.Unlock()
	})
	<-o.done
}

func (o *Outbox) run() {
	defer close(o.done)
	for m := range o.queue {
		if err := o.sink.Publish(context.Background(), m.RoutingKey, m.Payload); err != nil {
			log.Printf("[Outbox] publish %s failed: %v", m.RoutingKey, err)
		}
	}
}
