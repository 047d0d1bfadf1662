package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/guardrail"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tracelog"
)

// guardrailCheck screens the latest user message against the configured
// guardrail policy.
//
// Disabled screening (no policy configured) never calls the service.
// A triggered verdict replaces the entire conversation with one
// assistant message carrying the service's override text. A service
// fault is logged and treated as clear: blocking every turn because the
// guardrail is down is worse than letting the model answer.
func (a *Agent) guardrailCheck(ctx agentgraph.Context, s State) (State, error) {
	s.GuardrailTriggered = false

	if !a.GuardrailEnabled() {
		return s, nil
	}

	input := latestUserContent(s.Messages)
	if input == "" {
		return s, nil
	}

	verdict, err := a.guard.Check(ctx, guardrail.Payload{Input: input}, a.cfg.GuardrailPolicyID)
	if err != nil {
		observability.LogGuardrailFault(ctx.Logger(), a.cfg.GuardrailPolicyID, err)
		return s, nil
	}
	if verdict == nil {
		return s, nil
	}

	if tr := traceFrom(ctx); tr != nil {
		tr.AddGuardrailSpan(tracelog.GuardrailSpan{
			PolicyID:  a.cfg.GuardrailPolicyID,
			Input:     input,
			Triggered: verdict.Triggered(),
		})
	}

	if verdict.Triggered() {
		observability.LogGuardrailTriggered(ctx.Logger(), a.cfg.GuardrailPolicyID)
		// Deliberate override, not an error: the turn's visible
		// conversation becomes the single rejection message.
		s.Messages = []llm.Message{llm.AssistantMessage(verdict.OverrideText)}
		s.GuardrailTriggered = true
	}

	return s, nil
}

// routeAfterGuardrail skips straight to END when the turn was blocked.
func (a *Agent) routeAfterGuardrail(ctx agentgraph.Context, s State) string {
	if s.GuardrailTriggered {
		return agentgraph.END
	}
	return nodeChatCompletion
}

// chatCompletion invokes the model with the full ordered conversation
// and appends exactly one assistant message.
//
// The system prompt is inserted at the head of the conversation only if
// no system message is present, so re-entry from the tool loop never
// inserts a second one.
func (a *Agent) chatCompletion(ctx agentgraph.Context, s State) (State, error) {
	if a.cfg.SystemPrompt != "" && !hasSystemMessage(s.Messages) {
		s.Messages = append([]llm.Message{llm.SystemMessage(a.cfg.SystemPrompt)}, s.Messages...)
	}

	req := llm.CompletionRequest{
		Messages:    s.Messages,
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
	}
	if a.tools.Len() > 0 {
		req.Tools = a.tools.Schemas()
	}

	start := time.Now()
	resp, err := a.model.Complete(ctx, req)
	if err != nil {
		return s, &ModelError{Round: s.ToolRounds, Err: err}
	}

	if tr := traceFrom(ctx); tr != nil {
		tr.AddLLMSpan(tracelog.LLMSpan{
			Name:         fmt.Sprintf("llm call (round %d)", s.ToolRounds),
			Input:        latestUserContent(s.Messages),
			Output:       resp.Message.Content,
			Model:        resp.Model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
			Duration:     time.Since(start),
		})
	}

	s.Messages = append(s.Messages, resp.Message)
	return s, nil
}

// routeAfterChat loops into tool dispatch while the model keeps
// requesting tools.
func (a *Agent) routeAfterChat(ctx agentgraph.Context, s State) string {
	if len(s.Messages) == 0 {
		return agentgraph.END
	}
	if s.Messages[len(s.Messages)-1].HasToolCalls() {
		return nodeToolDispatch
	}
	return agentgraph.END
}

// toolDispatch executes every tool call attached to the most recent
// assistant message, in order, producing one tool-result message per
// call with matching call IDs.
//
// Unknown tool names and tool failures become error-text results; all
// requested calls run even if earlier ones fail. Only exceeding the
// round cap fails the turn.
func (a *Agent) toolDispatch(ctx agentgraph.Context, s State) (State, error) {
	s.ToolRounds++
	if s.ToolRounds > a.cfg.MaxToolRounds {
		return s, &ToolRoundsError{Max: a.cfg.MaxToolRounds}
	}

	last := s.Messages[len(s.Messages)-1]
	for _, call := range last.ToolCalls {
		start := time.Now()
		result, failed := a.invokeTool(ctx, call)
		duration := time.Since(start)

		if failed {
			observability.LogToolError(ctx.Logger(), call.Name, call.ID, fmt.Errorf("%s", result))
		} else {
			observability.LogToolCall(ctx.Logger(), call.Name, call.ID, float64(duration.Milliseconds()))
		}

		if tr := traceFrom(ctx); tr != nil {
			tr.AddToolSpan(tracelog.ToolSpan{
				Name:     call.Name,
				CallID:   call.ID,
				Input:    string(call.Arguments),
				Output:   result,
				Failed:   failed,
				Duration: duration,
			})
		}

		s.Messages = append(s.Messages, llm.ToolResultMessage(call.ID, call.Name, result))
	}

	return s, nil
}

// invokeTool runs one tool call, converting every failure mode
// (unknown name, returned error, panic) into an error-text result.
func (a *Agent) invokeTool(ctx context.Context, call llm.ToolCall) (result string, failed bool) {
	t, ok := a.tools.Get(call.Name)
	if !ok {
		return fmt.Sprintf("tool error: unknown tool %q", call.Name), true
	}

	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("tool error: %s panicked: %v", call.Name, r)
			failed = true
		}
	}()

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	out, err := t.Func(ctx, args)
	if err != nil {
		return fmt.Sprintf("tool error: %v", err), true
	}
	return out, false
}

// hasSystemMessage reports whether any message has the system role.
func hasSystemMessage(messages []llm.Message) bool {
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			return true
		}
	}
	return false
}
