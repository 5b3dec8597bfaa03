package event

import (
	"encoding/json"
	"fmt"

	"chat-console/errors"
)

// Envelope frames every event on the wire as {"event": name, "data": payload}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode frames a named payload for the wire.
func Encode(name string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		data = raw
	}
	return json.Marshal(Envelope{Event: name, Data: data})
}

// Decode parses an envelope and returns the typed payload for known
// server-pushed events. Unknown names return errors.ErrUnknownEvent so
// the channel can log and drop them without dying.
func Decode(raw []byte) (string, any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	payload, err := decodePayload(env)
	if err != nil {
		return env.Event, nil, err
	}
	return env.Event, payload, nil
}

func decodePayload(env Envelope) (any, error) {
	switch env.Event {
	case ReceiveMessageName:
		return unmarshal[ReceiveMessage](env)
	case MessageReadName:
		return unmarshal[MessageRead](env)
	case UserListName:
		// Roster change is a pure trigger; the payload is ignored.
		return UserList{}, nil
	case ShowTypingName:
		return unmarshal[ShowTyping](env)
	case HideTypingName:
		return unmarshal[HideTyping](env)
	case UpdateReactionsName:
		return unmarshal[UpdateReactions](env)
	case GroupDeletedName:
		return unmarshal[GroupDeleted](env)
	case GroupAdminOnlyErrorName:
		return unmarshal[GroupAdminOnlyError](env)
	case NewUserRequestName:
		return unmarshal[NewUserRequest](env)
	case NewPasswordResetRequestName:
		return unmarshal[NewPasswordResetRequest](env)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, env.Event)
	}
}

func unmarshal[T any](env Envelope) (T, error) {
	var payload T
	if len(env.Data) == 0 {
		return payload, fmt.Errorf("%w: %s without data", errors.ErrInvalidPayload, env.Event)
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return payload, fmt.Errorf("%w: %s: %v", errors.ErrInvalidPayload, env.Event, err)
	}
	return payload, nil
}
