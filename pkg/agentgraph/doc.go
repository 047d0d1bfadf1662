/*
Package agentgraph provides graph-based orchestration for guardrailed
LLM agent turns.

# Overview

agentgraph is a Go library for building and executing small directed
graphs where nodes perform work and edges define flow. It exists to
drive one agent turn at a time: guardrail screening, model invocation,
and tool-dispatch loops, each expressed as a node with explicit, total
state transitions.

The library is inspired by LangGraph-style state graphs but built for
Go with:
  - Type-safe generics for state management
  - Compile-time validation of graph structure
  - Strictly sequential execution within a run (one node at a time)
  - OpenTelemetry integration for observability

# Basic Usage

Create a graph with nodes and edges, then compile and run:

	type State struct {
	    Input  string
	    Output string
	}

	func process(ctx agentgraph.Context, s State) (State, error) {
	    s.Output = "Processed: " + s.Input
	    return s, nil
	}

	func main() {
	    graph := agentgraph.NewGraph[State]().
	        AddNode("process", process).
	        AddEdge("process", agentgraph.END).
	        SetEntry("process")

	    compiled, err := graph.Compile()
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := agentgraph.NewContext(context.Background())
	    result, err := compiled.Run(ctx, State{Input: "hello"})
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(result.Output) // "Processed: hello"
	}

# Conditional Branching

Use conditional edges for decision points:

	graph.AddConditionalEdge("screen", func(ctx agentgraph.Context, s State) string {
	    if s.Blocked {
	        return agentgraph.END
	    }
	    return "respond"
	})

The router function returns the ID of the next node to execute.
Invalid return values (referencing non-existent nodes) cause runtime
errors.

# Loops

Create loops by having conditional edges that return to earlier nodes.
The canonical agentgraph loop is tool dispatch: the model node routes
to a tools node, which unconditionally routes back to the model node
until the model stops requesting tools. Loops are bounded by a maximum
iteration count (default 100, see WithMaxIterations); exceeding it is a
reported failure, never a silent hang, because the model deciding when
to stop is not something the caller controls.

# Cancellation

Context cancellation and deadlines are checked before every node.
A cancelled run returns a CancellationError carrying the state at the
point of cancellation.

# Error Handling

Errors include context about which node failed:

	result, err := compiled.Run(ctx, state)
	var nodeErr *agentgraph.NodeError
	if errors.As(err, &nodeErr) {
	    log.Printf("node %s failed: %v", nodeErr.NodeID, nodeErr.Err)
	}

Panics in nodes are recovered and converted to PanicError with a stack
trace.

# Thread Safety

  - Graph[S] is NOT safe for concurrent use during construction
  - CompiledGraph[S] IS safe for concurrent use (immutable)
  - Context IS safe for concurrent use
  - State within one run is exclusively owned by that run

# Subpackages

  - agent: the guardrail -> chat -> tools turn graph built on this core
  - llm: model client interface and OpenAI-compatible implementation
  - tool: tool descriptors and registry
  - guardrail: guardrail service client and policy types
  - tracelog: session/trace/span logging for turns
  - session: conversation persistence (memory, SQLite)
  - observability: logging, metrics, and tracing helpers
  - config: file- and environment-based configuration
  - dataset, experiment: offline evaluation over CSV datasets
*/
package agentgraph
