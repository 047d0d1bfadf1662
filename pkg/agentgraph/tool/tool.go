// Package tool provides tool descriptors and a registry for agent turns.
//
// A tool is a named, schema-typed function the model may request be
// executed on its behalf mid-turn. The tool set is fixed when the agent
// is constructed and immutable during execution.
package tool

import (
	"context"
	"encoding/json"
	"strings"
)

// Func is the synchronous tool implementation.
// It receives the validated JSON arguments supplied by the model and
// returns a text result. Failures surface as errors here; the dispatch
// layer converts them to error-text results so a failing tool never
// aborts the turn.
type Func func(ctx context.Context, args json.RawMessage) (string, error)

// Tool describes one invocable tool.
type Tool struct {
	// Name uniquely identifies the tool within a registry.
	Name string

	// Description tells the model what the tool does.
	Description string

	// Parameters is the JSON Schema for the tool's arguments.
	Parameters json.RawMessage

	// Func executes the tool.
	Func Func
}

// Validate checks the descriptor is usable.
func (t Tool) Validate() error {
	if t.Name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(t.Name, " \t\n\r") {
		return ErrInvalidName
	}
	if t.Func == nil {
		return ErrNilFunc
	}
	return nil
}

// New creates a tool from a name, description, JSON Schema, and function.
//
// Example:
//
//	weather := tool.New("get_weather", "Get the current weather for a location",
//	    json.RawMessage(`{"type":"object","properties":{"location":{"type":"string"}},"required":["location"]}`),
//	    func(ctx context.Context, args json.RawMessage) (string, error) {
//	        var in struct{ Location string `json:"location"` }
//	        if err := json.Unmarshal(args, &in); err != nil {
//	            return "", err
//	        }
//	        return lookupWeather(in.Location), nil
//	    })
func New(name, description string, parameters json.RawMessage, fn Func) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		Func:        fn,
	}
}
