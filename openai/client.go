// Package openai provides a model.Transport implementation backed by the
// OpenAI Responses API streaming endpoint. It translates normalized requests
// into the Responses wire format and decodes the resulting server-sent event
// stream into model.Event values; the events unmarshal directly since the
// model package mirrors the Responses event taxonomy.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go/packages/ssestream"

	"goa.design/agentloop/model"
	"goa.design/agentloop/tools"
)

// DefaultEndpoint is the OpenAI Responses API streaming endpoint.
const DefaultEndpoint = "https://api.openai.com/v1/responses"

// Doer captures the subset of http.Client used by the adapter.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures the Responses adapter.
type Options struct {
	// APIKey authenticates requests. Required.
	APIKey string
	// Endpoint overrides the Responses endpoint, e.g. for proxies or
	// compatible providers. Defaults to DefaultEndpoint.
	Endpoint string
	// HTTPClient overrides the HTTP client. Defaults to http.DefaultClient.
	HTTPClient Doer
	// ExtraHeaders are added to every request, e.g. OpenAI-Organization.
	ExtraHeaders map[string]string
}

// Client implements model.Transport via the OpenAI Responses API.
type Client struct {
	apiKey   string
	endpoint string
	http     Doer
	headers  map[string]string
}

// New builds a Responses-backed transport from the provided options.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:   opts.APIKey,
		endpoint: endpoint,
		http:     httpClient,
		headers:  opts.ExtraHeaders,
	}, nil
}

// NewFromAPIKey constructs a transport using the default HTTP client and
// endpoint.
func NewFromAPIKey(apiKey string) (*Client, error) {
	return New(Options{APIKey: apiKey})
}

// CreateStream sends the request with streaming enabled and returns the
// decoded event stream. Non-2xx responses are read and surfaced as errors.
func (c *Client) CreateStream(ctx context.Context, req model.Request) (model.Stream, error) {
	body, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai responses: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai responses: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		_ = res.Body.Close()
		return nil, fmt.Errorf("openai responses: status %d: %s", res.StatusCode, bytes.TrimSpace(payload))
	}
	return &eventStream{stream: ssestream.NewStream[model.Event](ssestream.NewDecoder(res), nil)}, nil
}

// eventStream adapts an ssestream.Stream to the model.Stream interface.
type eventStream struct {
	stream *ssestream.Stream[model.Event]
}

// Recv returns the next decoded event, io.EOF at end of stream, or the stream
// error. The SSE decoder converts provider error events into stream errors, so
// they surface here rather than as error-typed events.
func (s *eventStream) Recv() (model.Event, error) {
	if s.stream.Next() {
		return s.stream.Current(), nil
	}
	if err := s.stream.Err(); err != nil {
		return model.Event{}, fmt.Errorf("openai responses stream: %w", err)
	}
	return model.Event{}, io.EOF
}

// Close releases the underlying HTTP response.
func (s *eventStream) Close() error {
	return s.stream.Close()
}

// wireRequest is the Responses API request body.
type wireRequest struct {
	Model              string         `json:"model"`
	Input              []model.Item   `json:"input"`
	Instructions       string         `json:"instructions,omitempty"`
	Tools              []wireTool     `json:"tools,omitempty"`
	ToolChoice         any            `json:"tool_choice,omitempty"`
	PreviousResponseID string         `json:"previous_response_id,omitempty"`
	MaxOutputTokens    int            `json:"max_output_tokens,omitempty"`
	Reasoning          *wireReasoning `json:"reasoning,omitempty"`
	Stream             bool           `json:"stream"`
}

// wireTool is the flattened Responses function tool schema.
type wireTool struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"`
}

type wireReasoning struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func encodeRequest(req model.Request) ([]byte, error) {
	if req.Model == "" {
		return nil, errors.New("openai responses: model is required")
	}
	if len(req.Input) == 0 && req.PreviousResponseID == "" {
		return nil, errors.New("openai responses: input is required")
	}
	wire := wireRequest{
		Model:              req.Model,
		Input:              req.Input,
		Instructions:       req.Instructions,
		PreviousResponseID: req.PreviousResponseID,
		MaxOutputTokens:    req.MaxOutputTokens,
		Stream:             true,
	}
	if req.Input == nil {
		// The input field is mandatory even when chaining; send an empty list
		// rather than null.
		wire.Input = []model.Item{}
	}
	for _, def := range req.Tools {
		wire.Tools = append(wire.Tools, wireTool{
			Type:        "function",
			Name:        string(def.Name),
			Description: def.Description,
			Parameters:  def.InputSchema,
		})
	}
	choice, err := encodeToolChoice(req)
	if err != nil {
		return nil, err
	}
	wire.ToolChoice = choice
	if req.Reasoning != nil {
		wire.Reasoning = &wireReasoning{Effort: req.Reasoning.Effort, Summary: req.Reasoning.Summary}
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("openai responses: marshal request: %w", err)
	}
	return body, nil
}

func encodeToolChoice(req model.Request) (any, error) {
	switch req.ToolChoice.Mode {
	case "":
		// Provider default; omit the field.
		return nil, nil
	case model.ToolChoiceModeAuto:
		return "auto", nil
	case model.ToolChoiceModeNone:
		return "none", nil
	case model.ToolChoiceModeRequired:
		return "required", nil
	case model.ToolChoiceModeTool:
		name := req.ToolChoice.Name
		if name == "" {
			return nil, fmt.Errorf("openai responses: tool choice mode %q requires a tool name", req.ToolChoice.Mode)
		}
		if !hasToolDefinition(req.Tools, name) {
			return nil, fmt.Errorf("openai responses: tool choice name %q does not match any tool", name)
		}
		return map[string]string{"type": "function", "name": string(name)}, nil
	default:
		return nil, fmt.Errorf("openai responses: unsupported tool choice mode %q", req.ToolChoice.Mode)
	}
}

func hasToolDefinition(defs []model.ToolDefinition, name tools.Ident) bool {
	for _, def := range defs {
		if def.Name == name {
			return true
		}
	}
	return false
}
