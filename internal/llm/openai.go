// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/tool"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// OpenAIClient is a Client for OpenAI-compatible chat completion APIs. It
// never retries: a failed call is returned to the caller as-is.
type OpenAIClient struct {
	client openai.Client
	model  string
	info   types.ModelInfo
	keyErr error
	logger *zap.Logger
}

// Option configures an OpenAIClient.
type Option func(*clientOptions)

type clientOptions struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// NewOpenAIClient builds a client from cfg. The API key provider is called
// once here; an empty or failing key is not an error yet but makes every
// Chat call fail with ErrMissingAPIKey.
func NewOpenAIClient(cfg types.ModelConfig, opts ...Option) *OpenAIClient {
	o := clientOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	var key string
	var keyErr error
	if cfg.APIKey != nil {
		k, err := cfg.APIKey()
		if err != nil {
			keyErr = fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
		}
		key = strings.TrimSpace(k)
	}
	if key == "" && keyErr == nil {
		keyErr = ErrMissingAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = types.DefaultModelBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	model := cfg.Model
	if model == "" {
		model = types.DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  model,
		info:   cfg.Info,
		keyErr: keyErr,
		logger: o.logger,
	}
}

// Info returns the declared model capabilities.
func (c *OpenAIClient) Info() types.ModelInfo { return c.info }

// Model returns the model identifier sent with each request.
func (c *OpenAIClient) Model() string { return c.model }

// Chat sends req and converts the first choice into a Response.
func (c *OpenAIClient) Chat(ctx context.Context, req Request) (Response, error) {
	if c.keyErr != nil {
		return Response{}, c.keyErr
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: convertMessages(req.Messages),
	}
	if c.info.FunctionCalling && len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return Response{}, err
		}
		params.Tools = tools
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		c.logger.Debug("model call failed",
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return Response{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, fmt.Errorf("chat completion returned no choices")
	}

	choice := completion.Choices[0]
	resp := Response{
		Message: Message{
			Role:    RoleAssistant,
			Content: choice.Message.Content,
		},
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
		},
	}
	for i, tc := range choice.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		resp.Message.ToolCalls = append(resp.Message.ToolCalls, ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	c.logger.Debug("model call completed",
		zap.String("model", c.model),
		zap.String("request_id", completion.ID),
		zap.Int("tool_calls", len(resp.Message.ToolCalls)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", duration),
	)
	return resp, nil
}

func convertMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			am := &openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				am.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				}
			}
			if m.Name != "" {
				am.Name = openai.String(m.Name)
			}
			for _, tc := range m.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: am})
		case RoleTool:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
					ToolCallID: m.ToolCallID,
				},
			})
		default:
			um := &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(m.Content),
				},
			}
			if m.Name != "" {
				um.Name = openai.String(m.Name)
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfUser: um})
		}
	}
	return out
}

func convertTools(decls []tool.Declaration) ([]openai.ChatCompletionToolParam, error) {
	out := make([]openai.ChatCompletionToolParam, 0, len(decls))
	for _, d := range decls {
		params, err := tool.ParametersMap(d)
		if err != nil {
			return nil, err
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  shared.FunctionParameters(params),
			},
		})
	}
	return out, nil
}
