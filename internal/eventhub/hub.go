package eventhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shothook/internal/logging"
	"shothook/internal/services"
)

// Handler processes one matching event. A non-nil map result is published as
// the reply payload.
type Handler func(ctx context.Context, ev Event) (map[string]any, error)

// Transport moves events between the hub and the host event server.
type Transport interface {
	Publish(ctx context.Context, ev Event) error
	// Consume delivers events to fn until ctx is cancelled or the transport
	// fails. Deliveries are sequential.
	Consume(ctx context.Context, fn func(context.Context, Event)) error
	Close() error
}

// SubscribeOption customizes a subscription.
type SubscribeOption func(*subscription)

// WithoutReply suppresses reply publishing, including error replies.
func WithoutReply() SubscribeOption {
	return func(s *subscription) { s.reply = false }
}

// WithName labels the subscription in logs and status output.
func WithName(name string) SubscribeOption {
	return func(s *subscription) { s.name = name }
}

// WithPriority orders subscribers; lower runs first. Default 100.
func WithPriority(priority int) SubscribeOption {
	return func(s *subscription) { s.priority = priority }
}

type subscription struct {
	id       string
	name     string
	expr     Expression
	handler  Handler
	reply    bool
	priority int
	calls    atomic.Int64
}

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Calls      int64  `json:"calls"`
}

// Stats summarizes hub activity.
type Stats struct {
	Events      int64     `json:"events"`
	Replies     int64     `json:"replies"`
	Errors      int64     `json:"errors"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitempty"`
}

// Hub routes events from a transport to subscribed handlers.
type Hub struct {
	transport  Transport
	replyTopic string
	logger     *slog.Logger

	mu   sync.RWMutex
	subs []*subscription

	events  atomic.Int64
	replies atomic.Int64
	errors  atomic.Int64

	errMu       sync.Mutex
	lastError   string
	lastErrorAt time.Time
}

// New constructs a hub on top of transport.
func New(transport Transport, replyTopic string, logger *slog.Logger) *Hub {
	if replyTopic == "" {
		replyTopic = TopicReply
	}
	return &Hub{
		transport:  transport,
		replyTopic: replyTopic,
		logger:     logging.NewComponentLogger(logger, "eventhub"),
	}
}

// Subscribe registers handler for events matching expression.
func (h *Hub) Subscribe(expression string, handler Handler, opts ...SubscribeOption) (string, error) {
	if handler == nil {
		return "", errors.New("subscribe: handler is nil")
	}
	expr, err := ParseExpression(expression)
	if err != nil {
		return "", fmt.Errorf("subscribe: %w", err)
	}
	sub := &subscription{
		id:       uuid.NewString(),
		expr:     expr,
		handler:  handler,
		reply:    true,
		priority: 100,
	}
	for _, opt := range opts {
		opt(sub)
	}
	if sub.name == "" {
		sub.name = expr.String()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	idx := len(h.subs)
	for i, existing := range h.subs {
		if sub.priority < existing.priority {
			idx = i
			break
		}
	}
	h.subs = append(h.subs, nil)
	copy(h.subs[idx+1:], h.subs[idx:])
	h.subs[idx] = sub
	h.logger.Debug("subscribed",
		logging.String("subscription", sub.name),
		logging.String("expression", expr.String()),
	)
	return sub.id, nil
}

// Subscriptions lists registered subscriptions in dispatch order.
func (h *Hub) Subscriptions() []SubscriptionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]SubscriptionInfo, 0, len(h.subs))
	for _, sub := range h.subs {
		out = append(out, SubscriptionInfo{ID: sub.id, Name: sub.name, Expression: sub.expr.String(), Calls: sub.calls.Load()})
	}
	return out
}

// Stats returns activity counters.
func (h *Hub) Stats() Stats {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return Stats{
		Events:      h.events.Load(),
		Replies:     h.replies.Load(),
		Errors:      h.errors.Load(),
		LastError:   h.lastError,
		LastErrorAt: h.lastErrorAt,
	}
}

// Run consumes events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	if h.transport == nil {
		return errors.New("eventhub: transport not configured")
	}
	h.logger.Info("event hub started", logging.Int("subscriptions", len(h.Subscriptions())))
	err := h.transport.Consume(ctx, func(ctx context.Context, ev Event) {
		h.Dispatch(ctx, ev)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	h.logger.Info("event hub stopped")
	return nil
}

// Publish sends ev through the transport.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if h.transport == nil {
		return errors.New("eventhub: transport not configured")
	}
	return h.transport.Publish(ctx, ev)
}

// Dispatch runs every matching subscriber in order on the calling goroutine.
// It stops early when a handler calls Stop on its context.
func (h *Hub) Dispatch(ctx context.Context, ev Event) {
	h.events.Add(1)
	h.mu.RLock()
	subs := append([]*subscription(nil), h.subs...)
	h.mu.RUnlock()

	ctx = services.WithEventID(ctx, ev.ID)
	if user := ev.Username(); user != "" {
		ctx = services.WithUser(ctx, user)
	}
	for _, sub := range subs {
		if !sub.expr.Match(ev) {
			continue
		}
		sub.calls.Add(1)
		state := &dispatchState{}
		subCtx := context.WithValue(ctx, dispatchKey{}, state)
		payload, err := h.invoke(subCtx, sub, ev)
		if err != nil {
			h.recordError(err)
			logger := logging.WithContext(subCtx, h.logger)
			logging.ErrorWithContext(logger, "handler failed", "handler_error",
				logging.String("subscription", sub.name),
				logging.String(logging.FieldTopic, ev.Topic),
				logging.String(logging.FieldErrorKind, services.Classify(err)),
				logging.Error(err),
			)
			payload = map[string]any{"success": false, "message": err.Error()}
		}
		if payload != nil && sub.reply {
			h.publishReply(subCtx, ev, payload)
		}
		if state.stopped.Load() {
			break
		}
	}
}

func (h *Hub) invoke(ctx context.Context, sub *subscription, ev Event) (payload map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", sub.name, r)
		}
	}()
	return sub.handler(ctx, ev)
}

func (h *Hub) publishReply(ctx context.Context, ev Event, payload map[string]any) {
	reply := ev.Reply(h.replyTopic, payload)
	if err := h.Publish(ctx, reply); err != nil {
		h.recordError(err)
		h.logger.Warn("reply publish failed",
			logging.String(logging.FieldEventID, ev.ID),
			logging.Error(err),
			logging.String(logging.FieldEventType, "reply_failed"),
			logging.String(logging.FieldImpact, "host menu will not update"),
		)
		return
	}
	h.replies.Add(1)
}

func (h *Hub) recordError(err error) {
	h.errors.Add(1)
	h.errMu.Lock()
	h.lastError = err.Error()
	h.lastErrorAt = time.Now().UTC()
	h.errMu.Unlock()
}

type dispatchKey struct{}

type dispatchState struct {
	stopped atomic.Bool
}

// Stop prevents later subscribers from receiving the event currently being
// dispatched on ctx.
func Stop(ctx context.Context) {
	if state, ok := ctx.Value(dispatchKey{}).(*dispatchState); ok {
		state.stopped.Store(true)
	}
}
