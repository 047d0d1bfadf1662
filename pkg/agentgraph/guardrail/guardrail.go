// Package guardrail provides the client contract for an external
// content-screening service and the policy types used to administer it.
//
// The service itself is an external collaborator: this package only
// defines the fixed request/response contract (Check) and an HTTP
// implementation of it. Policy evaluation happens server-side.
package guardrail

import (
	"context"
	"errors"
)

// Status is the outcome of a guardrail check.
type Status string

// Check outcomes.
const (
	// StatusClear means no rule matched; the input passes through.
	StatusClear Status = "clear"

	// StatusTriggered means a rule matched and the service supplied
	// override text to show instead of processing the input.
	StatusTriggered Status = "triggered"
)

// Payload is the input to a guardrail check.
type Payload struct {
	// Input is the text to screen, typically the latest user message.
	Input string `json:"input"`
}

// Verdict is the result of a guardrail check.
type Verdict struct {
	Status Status `json:"status"`

	// OverrideText replaces the conversation when Status is triggered.
	OverrideText string `json:"text,omitempty"`
}

// Triggered reports whether the verdict blocks the input.
func (v Verdict) Triggered() bool {
	return v.Status == StatusTriggered
}

// Client checks inputs against a named guardrail policy.
// Implementations must honor context cancellation. A non-nil error
// means the service itself failed; callers treat that as a pass but
// must surface the fault.
type Client interface {
	Check(ctx context.Context, payload Payload, policyID string) (*Verdict, error)
}

// ErrPolicyNotFound indicates a referenced policy does not exist.
// Agents treat this as a construction-time configuration fault.
var ErrPolicyNotFound = errors.New("guardrail policy not found")

// Operator selects how rule target values are matched.
type Operator string

// Rule operators.
const (
	// OperatorAny matches when any target value is detected.
	OperatorAny Operator = "any"

	// OperatorAll matches only when all target values are detected.
	OperatorAll Operator = "all"
)

// Rule matches a metric's findings against target values.
//
// Example: metric "input_pii" with OperatorAny and target values
// ["ssn", "email"] triggers when the input contains an SSN or an email
// address.
type Rule struct {
	Metric       string   `json:"metric"`
	Operator     Operator `json:"operator"`
	TargetValues []string `json:"target_value"`
}

// OverrideAction replaces blocked input with one of the given choices.
type OverrideAction struct {
	Choices []string `json:"choices"`
}

// Ruleset pairs rules with the action taken when they match.
type Ruleset struct {
	Rules  []Rule         `json:"rules"`
	Action OverrideAction `json:"action"`
}

// StageType scopes where a policy stage runs.
type StageType string

// Stage types.
const (
	// StageTypeCentral runs the stage server-side for every caller.
	StageTypeCentral StageType = "central"

	// StageTypeLocal runs the stage only for callers that opt in.
	StageTypeLocal StageType = "local"
)

// Stage is a named guardrail policy: an ordered list of rulesets
// evaluated against inputs.
type Stage struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Project     string    `json:"project_name,omitempty"`
	Type        StageType `json:"type"`
	Description string    `json:"description,omitempty"`
	Rulesets    []Ruleset `json:"prioritized_rulesets"`
}
