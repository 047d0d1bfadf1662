package agent

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/session"
)

// Runner drives multi-turn conversations against a session store.
//
// Each turn loads the session's conversation history, appends the new
// user input, runs the turn, and persists the turn's contribution back
// to the store. Guardrail-blocked turns are not persisted: a blocked
// input never becomes part of the history the model sees on later
// turns.
//
// Runner is safe for concurrent use across distinct session IDs.
// Concurrent turns on the same session race on the stored history;
// callers serialize per session.
type Runner struct {
	agent *Agent
	store session.Store
	log   *slog.Logger
}

// NewRunner creates a multi-turn runner over a session store.
func NewRunner(a *Agent, store session.Store) *Runner {
	return &Runner{
		agent: a,
		store: store,
		log:   a.logger,
	}
}

// RunTurn executes one turn of the session's conversation.
//
// The turn sees the full stored history plus the new user input. On a
// clear turn the user input and everything the turn produced after it
// are appended to the store. The inserted system message is excluded
// from storage; it is re-inserted on every turn from config, so
// changing the configured prompt takes effect mid-session.
func (r *Runner) RunTurn(ctx context.Context, sessionID, input string, opts ...TurnOption) (*Result, error) {
	history, err := r.store.History(sessionID)
	if err != nil {
		return nil, err
	}

	conversation := append(append([]llm.Message(nil), history...), llm.UserMessage(input))

	result, err := r.agent.RunTurn(ctx, conversation, opts...)
	if err != nil {
		return nil, err
	}

	if result.GuardrailTriggered {
		r.log.Info("turn blocked, not persisted",
			slog.String("session_id", sessionID),
		)
		return result, nil
	}

	delta := turnDelta(result.Conversation, len(history))
	if err := r.store.Append(sessionID, session.Turn{Messages: delta}); err != nil {
		return nil, err
	}

	r.log.Debug("turn persisted",
		slog.String("session_id", sessionID),
		slog.Int("messages", len(delta)),
	)
	return result, nil
}

// History returns the session's stored conversation.
func (r *Runner) History(sessionID string) ([]llm.Message, error) {
	return r.store.History(sessionID)
}

// turnDelta strips the stored history prefix (and the per-turn system
// message, which is never stored) from a final conversation.
func turnDelta(final []llm.Message, historyLen int) []llm.Message {
	if len(final) > 0 && final[0].Role == llm.RoleSystem {
		final = final[1:]
	}
	if historyLen >= len(final) {
		return nil
	}
	return final[historyLen:]
}
