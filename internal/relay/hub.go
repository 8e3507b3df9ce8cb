package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ErrHubStopped is returned when a command is sent after Run has returned.
var ErrHubStopped = errors.New("relay hub stopped")

const (
	commandBuffer  = 256
	outboundBuffer = 256
)

// Hub is the relay's event loop. It owns the Registry and applies joins,
// leaves and broadcasts one at a time in arrival order, so frames from one
// sender reach each observer in the order they were sent.
type Hub struct {
	id       string
	registry *Registry
	broker   Broker
	metrics  *Metrics
	logger   *slog.Logger

	cmds     chan func()
	outbound chan Envelope
	done     chan struct{}
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBroker fans broadcasts out to other instances through b.
func WithBroker(b Broker) HubOption {
	return func(h *Hub) { h.broker = b }
}

// WithInstanceID overrides the generated instance ID used as envelope origin.
func WithInstanceID(id string) HubOption {
	return func(h *Hub) {
		if id != "" {
			h.id = id
		}
	}
}

// WithMetrics records hub activity on m.
func WithMetrics(m *Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithLogger sets the hub's logger.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates a hub. Call Run to start processing.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		id:       uuid.New().String(),
		registry: NewRegistry(),
		logger:   slog.Default(),
		cmds:     make(chan func(), commandBuffer),
		outbound: make(chan Envelope, outboundBuffer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics(nil)
	}
	return h
}

// ID returns the instance ID stamped on outgoing envelopes.
func (h *Hub) ID() string {
	return h.id
}

// Metrics returns the collectors the hub records on.
func (h *Hub) Metrics() *Metrics {
	return h.metrics
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	var remote <-chan Envelope
	if h.broker != nil {
		sub, err := h.broker.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe to broker: %w", err)
		}
		remote = sub
		go h.forward(ctx)
	}

	h.logger.Info("Relay hub started", "instance_id", h.id, "broker", h.broker != nil)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Relay hub stopped", "instance_id", h.id)
			return nil

		case cmd := <-h.cmds:
			cmd()
			h.metrics.ActiveGroups.Set(float64(h.registry.Groups()))

		case env, ok := <-remote:
			if !ok {
				h.logger.Warn("Broker subscription closed; relaying to local observers only")
				remote = nil
				continue
			}
			if env.Origin == h.id {
				continue
			}
			h.fanOut(env.GroupID, nil, env.Payload)
		}
	}
}

// forward publishes local broadcasts to the broker in order.
func (h *Hub) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-h.outbound:
			if err := h.broker.Publish(ctx, env); err != nil {
				h.metrics.Dropped.WithLabelValues(dropBrokerError).Inc()
				h.logger.Warn("Broker publish failed", "group_id", env.GroupID, "error", err)
			}
		}
	}
}

func (h *Hub) enqueue(ctx context.Context, cmd func()) error {
	select {
	case h.cmds <- cmd:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join registers o as an observer of groupID, leaving any previous group.
func (h *Hub) Join(ctx context.Context, o Observer, groupID string) error {
	return h.enqueue(ctx, func() {
		h.registry.Register(o, groupID)
	})
}

// Leave removes o from its group. Safe for observers that never joined.
func (h *Hub) Leave(ctx context.Context, o Observer) error {
	return h.enqueue(ctx, func() {
		h.registry.Unregister(o)
	})
}

// Publish forwards payload to the other observers of the sender's current
// group. Frames from observers that have not joined are dropped.
func (h *Hub) Publish(ctx context.Context, sender Observer, payload []byte) error {
	return h.enqueue(ctx, func() {
		groupID, ok := h.registry.GroupOf(sender)
		if !ok {
			h.metrics.Dropped.WithLabelValues(dropNotJoined).Inc()
			h.logger.Debug("Dropping frame from unjoined connection")
			return
		}

		h.fanOut(groupID, sender, payload)

		if h.broker == nil {
			return
		}
		select {
		case h.outbound <- Envelope{Origin: h.id, GroupID: groupID, Payload: payload}:
		default:
			h.metrics.Dropped.WithLabelValues(dropBrokerBacklog).Inc()
			h.logger.Warn("Broker backlog full; frame not sent to other instances", "group_id", groupID)
		}
	})
}

func (h *Hub) fanOut(groupID string, sender Observer, payload []byte) {
	delivered, skipped := h.registry.Broadcast(groupID, sender, payload)
	h.metrics.Deliveries.Add(float64(delivered))
	if skipped > 0 {
		h.metrics.Dropped.WithLabelValues(dropNotOpen).Add(float64(skipped))
		h.logger.Debug("Skipped observers that could not accept frame",
			"group_id", groupID,
			"skipped", skipped,
		)
	}
}

// Observers returns how many local observers watch groupID.
func (h *Hub) Observers(ctx context.Context, groupID string) (int, error) {
	result := make(chan int, 1)
	if err := h.enqueue(ctx, func() {
		result <- h.registry.Observers(groupID)
	}); err != nil {
		return 0, err
	}
	select {
	case n := <-result:
		return n, nil
	case <-h.done:
		return 0, ErrHubStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// GroupOf returns the group o currently watches.
func (h *Hub) GroupOf(ctx context.Context, o Observer) (string, bool, error) {
	type answer struct {
		group string
		ok    bool
	}
	result := make(chan answer, 1)
	if err := h.enqueue(ctx, func() {
		g, ok := h.registry.GroupOf(o)
		result <- answer{g, ok}
	}); err != nil {
		return "", false, err
	}
	select {
	case a := <-result:
		return a.group, a.ok, nil
	case <-h.done:
		return "", false, ErrHubStopped
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}
