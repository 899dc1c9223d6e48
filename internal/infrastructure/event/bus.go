package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/shared"
)

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// InMemoryEventBus delivers events to handlers in the same process.
//
// Handlers run in publish order on the caller's goroutine unless the bus is
// built WithAsyncDispatch. Async handlers get a context that survives the
// publisher's cancellation, and Stop waits for them. A failing or panicking
// handler is logged and never stops delivery to the others.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	async    bool
	inflight sync.WaitGroup
}

type BusOption func(*InMemoryEventBus)

// WithAsyncDispatch makes Publish return before handlers finish
func WithAsyncDispatch() BusOption {
	return func(b *InMemoryEventBus) { b.async = true }
}

func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{registry: NewHandlerRegistry(), logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands every event to its handlers. It always returns nil;
// handler errors are logged.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.async {
		ctx = context.WithoutCancel(ctx)
	}
	for _, ev := range events {
		for _, h := range b.registry.GetHandlers(ev.EventType()) {
			if !b.async {
				b.deliver(ctx, h, ev)
				continue
			}
			b.inflight.Add(1)
			go func() {
				defer b.inflight.Done()
				b.deliver(ctx, h, ev)
			}()
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for handler.EventTypes()
// when none are given.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.logger.Info("Event bus started", zap.Bool("async", b.async))
	return nil
}

// Stop waits for in-flight async handlers until ctx is done
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) {
	if err := safeHandle(ctx, h, ev); err != nil {
		b.logger.Error("handler failed to process event",
			zap.String("event_type", ev.EventType()),
			zap.Stringer("event_id", ev.EventID()),
			zap.Error(err))
	}
}

func safeHandle(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}
