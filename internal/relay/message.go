package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMalformed is returned for frames that are not a JSON object with a type.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType is returned for well-formed frames with an unrecognized type.
	ErrUnknownType = errors.New("unknown message type")
)

// Kind tags a relay frame.
type Kind string

const (
	KindJoin         Kind = "join"
	KindIdea         Kind = "idea"
	KindVote         Kind = "vote"
	KindContribution Kind = "contribution"
)

// Broadcasts reports whether frames of this kind are forwarded to other observers.
func (k Kind) Broadcasts() bool {
	switch k {
	case KindIdea, KindVote, KindContribution:
		return true
	}
	return false
}

// JoinPayload is the body of a join frame.
type JoinPayload struct {
	GroupID string
	UserID  string
}

// Message is a parsed inbound frame. Join carries its decoded payload;
// broadcast kinds keep only the raw frame, which is forwarded untouched.
type Message struct {
	Kind Kind
	Join *JoinPayload
	Raw  []byte
}

// ParseMessage classifies a frame by its type tag. Only join frames are
// decoded further.
func ParseMessage(raw []byte) (*Message, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.Type == nil || *head.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	msg := &Message{Kind: Kind(*head.Type), Raw: raw}
	switch msg.Kind {
	case KindJoin:
		var body struct {
			GroupID ID `json:"groupId"`
			UserID  ID `json:"userId"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("%w: join: %v", ErrMalformed, err)
		}
		if body.GroupID == "" || body.UserID == "" {
			return nil, fmt.Errorf("%w: join requires groupId and userId", ErrMalformed)
		}
		msg.Join = &JoinPayload{GroupID: string(body.GroupID), UserID: string(body.UserID)}
	case KindIdea, KindVote, KindContribution:
	default:
		return msg, fmt.Errorf("%w: %q", ErrUnknownType, *head.Type)
	}
	return msg, nil
}

// ID is an identifier that clients may send as a JSON string or number.
type ID string

// UnmarshalJSON accepts "abc", 42 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = ID(n.String())
		return nil
	}
}
