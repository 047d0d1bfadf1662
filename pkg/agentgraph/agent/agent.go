// Package agent implements the guardrailed agent turn: one complete
// pass from user input to a final assistant-visible result.
//
// A turn flows through a fixed control graph:
//
//	guardrail_check -> chat_completion <-> tool_dispatch -> END
//
// guardrail_check screens the latest user message against an external
// policy service and can replace the whole conversation with a single
// override message. chat_completion invokes the model with the full
// message history and appends exactly one assistant message. If that
// message requests tool calls, tool_dispatch executes every call in
// order and loops back to chat_completion; otherwise the turn ends.
//
// All external calls block and honor the caller's context. A turn has
// no internal parallelism; callers may run many turns concurrently
// because each turn exclusively owns its state.
package agent

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/guardrail"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tracelog"
)

// Node IDs of the turn graph.
const (
	nodeGuardrailCheck = "guardrail_check"
	nodeChatCompletion = "chat_completion"
	nodeToolDispatch   = "tool_dispatch"
)

// defaultMaxToolRounds bounds the tool-call loop when the config
// leaves MaxToolRounds unset.
const defaultMaxToolRounds = 10

// State is the conversation state flowing through one turn.
// It grows monotonically: nodes only append messages, with the single
// exception of a guardrail trigger, which replaces the conversation
// with one override message.
type State struct {
	// Messages is the ordered conversation.
	Messages []llm.Message `json:"messages"`

	// GuardrailTriggered records whether the guardrail overrode this turn.
	GuardrailTriggered bool `json:"guardrail_triggered"`

	// ToolRounds counts completed tool-dispatch rounds within the turn.
	ToolRounds int `json:"tool_rounds"`
}

// Config enumerates everything an agent needs, explicitly.
// No field is read from the environment; see the config package for
// loading these values from files or env vars.
type Config struct {
	// Project identifies the owning project in trace logs.
	Project string

	// LogStream identifies the log stream traces are written to.
	LogStream string

	// SystemPrompt is inserted once at the head of the conversation
	// before the first model call. Empty means no system message.
	SystemPrompt string

	// GuardrailPolicyID selects the guardrail policy to screen inputs
	// with. Empty disables screening entirely: the guardrail service
	// is never called and no turn is ever marked triggered.
	GuardrailPolicyID string

	// Tools is the fixed tool set available to the model.
	Tools []tool.Tool

	// MaxToolRounds caps tool-dispatch loops per turn. The model
	// decides when to stop requesting tools, so the cap is the
	// caller's only defense against unbounded loops. Zero means the
	// default of 10. Exceeding the cap fails the turn with
	// ErrMaxToolRounds.
	MaxToolRounds int

	// LogBlockedTurns controls whether guardrail-triggered turns are
	// still recorded to the trace logger. Off by default.
	LogBlockedTurns bool

	// Model overrides the model client's default model, if set.
	Model string

	// Temperature is passed through to the model on every call.
	Temperature float64
}

// Result is the outcome of one turn.
type Result struct {
	// Conversation is the full message history at turn end.
	// For guardrail-triggered turns it is exactly one override message.
	Conversation []llm.Message

	// GuardrailTriggered reports whether the guardrail blocked the turn.
	GuardrailTriggered bool
}

// FinalMessage returns the last message of the conversation, or a zero
// Message for an empty conversation.
func (r *Result) FinalMessage() llm.Message {
	if len(r.Conversation) == 0 {
		return llm.Message{}
	}
	return r.Conversation[len(r.Conversation)-1]
}

// Agent executes guardrailed turns against a fixed tool set.
// Agent is immutable after New and safe for concurrent RunTurn calls.
type Agent struct {
	cfg    Config
	model  llm.Client
	guard  guardrail.Client
	tools  *tool.Registry
	graph  *agentgraph.CompiledGraph[State]
	logger *slog.Logger
	traces *tracelog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithGuardrail sets the guardrail service client.
// Required when Config.GuardrailPolicyID is set.
func WithGuardrail(client guardrail.Client) Option {
	return func(a *Agent) { a.guard = client }
}

// WithLogger sets the structured logger for turn execution.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithTraceLogger sets the trace logger that records turn spans.
func WithTraceLogger(traces *tracelog.Logger) Option {
	return func(a *Agent) { a.traces = traces }
}

// New builds an agent from the config and model client.
//
// Configuration faults are fatal here, before any turn can run:
// a nil model client, a guardrail policy without a guardrail client,
// and invalid or duplicate tool names all fail construction.
func New(cfg Config, model llm.Client, opts ...Option) (*Agent, error) {
	a := &Agent{
		cfg:    cfg,
		model:  model,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.model == nil {
		return nil, &ConfigError{Field: "model", Err: ErrNilModelClient}
	}
	if a.cfg.GuardrailPolicyID != "" && a.guard == nil {
		return nil, &ConfigError{Field: "guardrail_policy_id", Err: ErrGuardrailClientMissing}
	}
	if a.cfg.MaxToolRounds <= 0 {
		a.cfg.MaxToolRounds = defaultMaxToolRounds
	}

	a.tools = tool.NewRegistry()
	if err := a.tools.RegisterAll(cfg.Tools); err != nil {
		return nil, &ConfigError{Field: "tools", Err: err}
	}

	graph, err := a.buildGraph()
	if err != nil {
		return nil, &ConfigError{Field: "graph", Err: err}
	}
	a.graph = graph

	return a, nil
}

// buildGraph wires the turn control graph.
func (a *Agent) buildGraph() (*agentgraph.CompiledGraph[State], error) {
	return agentgraph.NewGraph[State]().
		AddNode(nodeGuardrailCheck, a.guardrailCheck).
		AddNode(nodeChatCompletion, a.chatCompletion).
		AddNode(nodeToolDispatch, a.toolDispatch).
		AddConditionalEdge(nodeGuardrailCheck, a.routeAfterGuardrail).
		AddConditionalEdge(nodeChatCompletion, a.routeAfterChat).
		AddEdge(nodeToolDispatch, nodeChatCompletion).
		SetEntry(nodeGuardrailCheck).
		Compile()
}

// Tools returns the registered tool names.
func (a *Agent) Tools() []string {
	return a.tools.Names()
}

// GuardrailEnabled reports whether turns are screened.
func (a *Agent) GuardrailEnabled() bool {
	return a.cfg.GuardrailPolicyID != ""
}

// TurnOption configures a single turn.
type TurnOption func(*turnConfig)

// turnConfig holds per-turn settings.
type turnConfig struct {
	runID string
}

// WithTurnID sets the run identifier for one turn, used to correlate
// logs and spans. Auto-generated if unset.
func WithTurnID(id string) TurnOption {
	return func(c *turnConfig) { c.runID = id }
}

// RunTurn routes one user turn through guardrail screening, model
// invocation, and zero or more tool-call cycles, until a final
// assistant message (or rejection) is produced.
//
// The input conversation is never mutated; the returned Result carries
// the complete final conversation and the guardrail flag. Model faults
// abort the turn and are returned as a *ModelError wrapped in node
// context; guardrail and tool faults never abort the turn.
func (a *Agent) RunTurn(ctx context.Context, conversation []llm.Message, opts ...TurnOption) (*Result, error) {
	tc := turnConfig{}
	for _, opt := range opts {
		opt(&tc)
	}
	if tc.runID == "" {
		tc.runID = uuid.New().String()
	}

	// Exclusive copy: the turn owns its state.
	initial := State{
		Messages: append([]llm.Message(nil), conversation...),
	}

	var tr *tracelog.Trace
	if a.traces != nil {
		tr = a.traces.StartTrace(ctx, latestUserContent(initial.Messages), "turn "+tc.runID)
		ctx = withTrace(ctx, tr)
	}

	gctx := agentgraph.NewContext(ctx,
		agentgraph.WithLogger(a.logger),
		agentgraph.WithContextRunID(tc.runID),
	)

	// Each tool round costs two node executions (dispatch + follow-up
	// completion); the rest of the graph is three nodes at most.
	maxIterations := 3 + 2*a.cfg.MaxToolRounds

	final, err := a.graph.Run(gctx, initial,
		agentgraph.WithRunID(tc.runID),
		agentgraph.WithObservabilityLogger(a.logger),
		agentgraph.WithMaxIterations(maxIterations),
	)

	if tr != nil {
		a.concludeTrace(tr, final, err)
	}

	if err != nil {
		return nil, err
	}

	return &Result{
		Conversation:       final.Messages,
		GuardrailTriggered: final.GuardrailTriggered,
	}, nil
}

// concludeTrace finishes the turn's trace, honoring the blocked-turn
// logging choice.
func (a *Agent) concludeTrace(tr *tracelog.Trace, final State, err error) {
	switch {
	case err != nil:
		tr.ConcludeError(err)
	case final.GuardrailTriggered && !a.cfg.LogBlockedTurns:
		tr.Discard()
	default:
		output := ""
		if len(final.Messages) > 0 {
			output = final.Messages[len(final.Messages)-1].Content
		}
		tr.Conclude(output)
	}
}

// latestUserContent returns the content of the most recent user message,
// or empty if the conversation has none.
func latestUserContent(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// traceKey carries the per-turn trace through node contexts.
type traceKey struct{}

// withTrace attaches a trace to the context.
func withTrace(ctx context.Context, tr *tracelog.Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, tr)
}

// traceFrom retrieves the per-turn trace, or nil.
func traceFrom(ctx context.Context) *tracelog.Trace {
	if tr, ok := ctx.Value(traceKey{}).(*tracelog.Trace); ok {
		return tr
	}
	return nil
}
