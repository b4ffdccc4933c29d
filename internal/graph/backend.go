// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/pdiddy/notegraph/pkg/types"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo"

	// DefaultBaseURL points at Together AI's OpenAI-compatible API.
	DefaultBaseURL = "https://api.together.xyz/v1"
)

// Request is one completion call.
type Request struct {
	Prompt string
	Model  string

	// Schema constrains JSON-mode output. Nil sends plain JSON mode.
	Schema *jsonschema.Schema
}

// Backend abstracts the completion service so tests can supply canned
// output. Complete returns the message content of the first choice.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAIBackend calls an OpenAI-compatible chat completion endpoint in
// JSON-object mode. Timeouts and retries are the client library defaults.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend builds a backend from cfg. httpClient may be nil; extra
// options are applied last and override the configured ones.
func NewOpenAIBackend(cfg types.AIConfig, httpClient *http.Client, opts ...option.RequestOption) *OpenAIBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	all := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
	}
	if httpClient != nil {
		all = append(all, option.WithHTTPClient(httpClient))
	}
	all = append(all, opts...)

	return &OpenAIBackend{client: openai.NewClient(all...)}
}

// Complete sends a single user message and returns the first choice's content.
func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	// Together reads the schema from response_format.schema, which the
	// OpenAI JSON-object format has no field for.
	var reqOpts []option.RequestOption
	if req.Schema != nil {
		reqOpts = append(reqOpts, option.WithJSONSet("response_format.schema", req.Schema))
	}

	resp, err := b.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		return "", fmt.Errorf("calling completion API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// UpstreamStatus returns the HTTP status carried by a completion API error,
// or 0 when err did not come from an API response.
func UpstreamStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
