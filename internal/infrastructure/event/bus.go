package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// InMemoryEventBus hands committed client, ledger and company events to the
// subscribed handlers on the publishing goroutine. Handler failures are
// logged and never reach the caller, whose write has already committed.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	closed   atomic.Bool
}

// NewInMemoryEventBus returns a bus that delivers until Stop is called
func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryEventBus{registry: NewHandlerRegistry(), logger: log.Named("eventbus")}
}

// Subscribe registers handler for eventTypes, falling back to the handler's
// own EventTypes. An empty set subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Publish delivers each event to its handlers in subscription order. It
// always returns nil; events arriving while stopped are dropped.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.closed.Load() {
		b.logger.Debug("dropping events on stopped bus", zap.Int("count", len(events)))
		return nil
	}
	log := logger.WithTraceContext(ctx, b.logger)
	for _, ev := range events {
		for _, h := range b.registry.GetHandlers(ev.EventType()) {
			if err := deliver(ctx, h, ev); err != nil {
				log.Error("event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.Stringer("event_id", ev.EventID()),
					zap.Stringer("tenant_id", ev.TenantID()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.closed.Store(false)
	b.logger.Info("event bus started", zap.Int("handlers", b.registry.Len()))
	return nil
}

// Stop refuses further events. Delivery is synchronous, so nothing is in
// flight once publishers have returned.
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.closed.Store(true)
	b.logger.Info("event bus stopped")
	return nil
}

// deliver runs one handler and reports a panic as an error
func deliver(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}
