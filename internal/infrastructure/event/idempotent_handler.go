package event

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/shared"
)

// IdempotencyStats counts what an IdempotentHandler did with the events it saw
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotentHandler runs the wrapped handler at most once per key and TTL
// window. The post-published summary job uses it so that republishing a post
// in quick succession triggers a single AI call.
type IdempotentHandler struct {
	next   shared.EventHandler
	store  shared.IdempotencyStore
	cfg    shared.IdempotencyConfig
	logger *zap.Logger

	processed, duplicate, failed atomic.Int64
}

type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides DefaultIdempotencyConfig
func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.cfg = cfg }
}

func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{next: next, store: store, cfg: shared.DefaultIdempotencyConfig(), logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string { return h.next.EventTypes() }

// Handle skips events whose key is already marked. If the store cannot be
// reached the event is handled anyway. Keys stay marked after a handler
// failure and only expire with the TTL.
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if h.cfg.Enabled && !h.claim(ctx, evt) {
		h.duplicate.Add(1)
		return nil
	}
	if err := h.next.Handle(ctx, evt); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// claim reports whether this call owns the event
func (h *IdempotentHandler) claim(ctx context.Context, evt shared.DomainEvent) bool {
	key := IdempotencyKey(evt)
	fresh, err := h.store.MarkProcessed(ctx, key, h.cfg.TTL)
	switch {
	case err != nil:
		h.logger.Warn("Idempotency store unavailable, handling event anyway",
			zap.String("key", key), zap.String("event_type", evt.EventType()), zap.Error(err))
		return true
	case !fresh:
		h.logger.Debug("Skipping already handled event",
			zap.String("key", key), zap.String("event_type", evt.EventType()))
		return false
	default:
		return true
	}
}

func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: h.processed.Load(),
		EventsDuplicate: h.duplicate.Load(),
		EventsFailed:    h.failed.Load(),
	}
}

// IdempotencyKey prefers the event's own DedupKey and falls back to
// "<type>:<event id>".
func IdempotencyKey(evt shared.DomainEvent) string {
	if d, ok := evt.(shared.Deduplicated); ok && d.DedupKey() != "" {
		return d.DedupKey()
	}
	return evt.EventType() + ":" + evt.EventID().String()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
