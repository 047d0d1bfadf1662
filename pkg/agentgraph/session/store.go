// Package session provides persistent conversation storage between turns.
//
// A session is the conversation a caller carries across turns; the
// session ID is the opaque identifier used to correlate traces in the
// observability service. Within a turn the conversation is exclusively
// owned by the turn's execution; stores only see completed turns.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// Turn is the persisted result of one completed turn: the messages the
// turn added to the conversation (user input included).
type Turn struct {
	// Sequence orders turns within a session. Assigned by the store.
	Sequence int `json:"sequence"`

	// Messages is the turn's contribution to the conversation.
	Messages []llm.Message `json:"messages"`

	// GuardrailTriggered records whether the guardrail overrode the turn.
	GuardrailTriggered bool `json:"guardrail_triggered"`

	// Timestamp is when the turn was stored. Assigned by the store.
	Timestamp time.Time `json:"timestamp"`
}

// Info provides session metadata without loading messages.
type Info struct {
	SessionID    string
	Turns        int
	LastActivity time.Time
}

// Store persists session transcripts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a completed turn at the end of a session.
	// The store assigns Sequence and Timestamp.
	Append(sessionID string, turn Turn) error

	// Turns returns all turns for a session, ordered by sequence.
	// Returns an empty slice (not an error) for an unknown session.
	Turns(sessionID string) ([]Turn, error)

	// History returns the session's full conversation: every turn's
	// messages concatenated in sequence order.
	History(sessionID string) ([]llm.Message, error)

	// Sessions lists known sessions, ordered by last activity.
	Sessions() ([]Info, error)

	// DeleteSession removes a session and all its turns.
	// Returns nil if the session doesn't exist.
	DeleteSession(sessionID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("session store closed")
)

// marshalMessages serializes a turn's messages for storage.
func marshalMessages(messages []llm.Message) ([]byte, error) {
	return json.Marshal(messages)
}

// unmarshalMessages deserializes stored messages.
func unmarshalMessages(data []byte) ([]llm.Message, error) {
	var messages []llm.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
