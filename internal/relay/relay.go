package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnauthorized is returned when a join names a group the connection's
// user does not belong to, or a user other than the authenticated one.
var ErrUnauthorized = errors.New("not authorized to observe group")

const defaultMembershipTimeout = 5 * time.Second

// MembershipChecker answers whether a user belongs to a group.
// storage.GroupStore satisfies it.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// Channel is an observer bound to an authenticated user.
type Channel interface {
	Observer
	UserID() string
}

// Relay classifies inbound frames and applies them to the Hub.
// It never closes a channel; every error is logged and returned for the
// caller's bookkeeping only.
type Relay struct {
	hub               *Hub
	members           MembershipChecker
	logger            *slog.Logger
	membershipTimeout time.Duration
}

// NewRelay creates a relay that authorizes joins against members.
func NewRelay(hub *Hub, members MembershipChecker, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		hub:               hub,
		members:           members,
		logger:            logger,
		membershipTimeout: defaultMembershipTimeout,
	}
}

// HandleMessage applies one inbound frame from ch.
//
//   - join: checks that the claimed user is ch's user and a member of the
//     group, then registers ch. No acknowledgment is sent.
//   - idea, vote, contribution: forwarded verbatim to the other observers
//     of ch's current group.
//   - anything else: logged and dropped.
func (r *Relay) HandleMessage(ctx context.Context, ch Channel, raw []byte) (Kind, error) {
	metrics := r.hub.Metrics()

	msg, err := ParseMessage(raw)
	if err != nil {
		reason := dropMalformed
		if errors.Is(err, ErrUnknownType) {
			reason = dropUnknownType
		}
		metrics.Dropped.WithLabelValues(reason).Inc()
		r.logger.Warn("Dropping relay frame",
			"user_id", ch.UserID(),
			"reason", reason,
			"error", err,
		)
		if msg != nil {
			return msg.Kind, err
		}
		return "", err
	}

	metrics.Messages.WithLabelValues(string(msg.Kind)).Inc()

	if msg.Kind == KindJoin {
		return KindJoin, r.join(ctx, ch, msg.Join)
	}

	if err := r.hub.Publish(ctx, ch, msg.Raw); err != nil {
		return msg.Kind, fmt.Errorf("publish %s: %w", msg.Kind, err)
	}
	return msg.Kind, nil
}

func (r *Relay) join(ctx context.Context, ch Channel, join *JoinPayload) error {
	userID := ch.UserID()

	if join.UserID != userID {
		r.hub.Metrics().Dropped.WithLabelValues(dropUnauthorized).Inc()
		r.logger.Warn("Refusing join for a different user",
			"user_id", userID,
			"claimed_user_id", join.UserID,
			"group_id", join.GroupID,
		)
		return ErrUnauthorized
	}

	checkCtx, cancel := context.WithTimeout(ctx, r.membershipTimeout)
	defer cancel()

	member, err := r.members.IsMember(checkCtx, join.GroupID, userID)
	if err != nil {
		r.logger.Error("Membership check failed",
			"user_id", userID,
			"group_id", join.GroupID,
			"error", err,
		)
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		r.hub.Metrics().Dropped.WithLabelValues(dropUnauthorized).Inc()
		r.logger.Warn("Refusing join from non-member",
			"user_id", userID,
			"group_id", join.GroupID,
		)
		return ErrUnauthorized
	}

	if err := r.hub.Join(ctx, ch, join.GroupID); err != nil {
		return fmt.Errorf("join %s: %w", join.GroupID, err)
	}

	r.logger.Debug("Connection joined group", "user_id", userID, "group_id", join.GroupID)
	return nil
}
