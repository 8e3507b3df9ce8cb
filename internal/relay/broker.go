package relay

import "context"

// Envelope carries one broadcast frame between relay instances.
type Envelope struct {
	// Origin is the instance ID of the hub that received the frame.
	Origin string `json:"origin"`
	// GroupID is the group the frame was sent to.
	GroupID string `json:"group"`
	// Payload is the frame exactly as the client sent it.
	Payload []byte `json:"payload"`
}

// Broker fans envelopes out to every relay instance.
// Instances receive their own envelopes back and must skip them by Origin.
type Broker interface {
	// Publish sends env to all subscribed instances.
	Publish(ctx context.Context, env Envelope) error

	// Subscribe starts receiving envelopes for every group.
	// The channel is closed when ctx ends or the broker is closed.
	Subscribe(ctx context.Context) (<-chan Envelope, error)

	// Close releases the broker's connections.
	Close() error
}
