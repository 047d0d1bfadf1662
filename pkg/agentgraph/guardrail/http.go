package guardrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to a guardrail service over its JSON HTTP API.
// It implements Client and adds stage administration calls.
type HTTPClient struct {
	baseURL string
	apiKey  string
	project string
	httpc   *http.Client
}

// HTTPOption configures HTTPClient.
type HTTPOption func(*HTTPClient)

// NewHTTPClient creates a guardrail service client.
// baseURL is the service root, e.g. "https://guardrail.example.com".
func NewHTTPClient(baseURL, apiKey string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithProject scopes stage lookups to a project.
func WithProject(project string) HTTPOption {
	return func(c *HTTPClient) { c.project = project }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.httpc = httpc }
}

// checkRequest is the wire shape of an invoke call.
type checkRequest struct {
	Payload Payload `json:"payload"`
	StageID string  `json:"stage_id"`
	Project string  `json:"project_name,omitempty"`
}

// Check implements Client.
// A triggered verdict carries the service's override text.
func (c *HTTPClient) Check(ctx context.Context, payload Payload, policyID string) (*Verdict, error) {
	body := checkRequest{
		Payload: payload,
		StageID: policyID,
		Project: c.project,
	}

	var verdict Verdict
	if err := c.post(ctx, "/v1/protect/invoke", body, &verdict); err != nil {
		return nil, fmt.Errorf("guardrail check: %w", err)
	}

	if verdict.Status == "" {
		verdict.Status = StatusClear
	}
	return &verdict, nil
}

// CreateStage registers a new policy stage with the service.
// Returns the created stage including its server-assigned ID.
func (c *HTTPClient) CreateStage(ctx context.Context, stage Stage) (*Stage, error) {
	if stage.Project == "" {
		stage.Project = c.project
	}

	var created Stage
	if err := c.post(ctx, "/v1/protect/stages", stage, &created); err != nil {
		return nil, fmt.Errorf("create stage %q: %w", stage.Name, err)
	}
	return &created, nil
}

// GetStage looks up a policy stage by name.
// Returns ErrPolicyNotFound if the stage does not exist.
func (c *HTTPClient) GetStage(ctx context.Context, name string) (*Stage, error) {
	q := url.Values{"stage_name": {name}}
	if c.project != "" {
		q.Set("project_name", c.project)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/protect/stages?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("get stage %q: %w", name, err)
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get stage %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("get stage %q: %w", name, ErrPolicyNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get stage %q: %s", name, readErrorBody(resp))
	}

	var stage Stage
	if err := json.NewDecoder(resp.Body).Decode(&stage); err != nil {
		return nil, fmt.Errorf("get stage %q: decode response: %w", name, err)
	}
	return &stage, nil
}

// post sends a JSON request and decodes the JSON response into out.
func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s", readErrorBody(resp))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setHeaders applies standard headers to a request.
func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// readErrorBody summarizes a non-OK response for error messages.
func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}

	var wire struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, wire.Message)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, body)
}
