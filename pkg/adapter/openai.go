package adapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to any OpenAI compatible chat completion endpoint
type OpenAI struct {
	client *openai.Client
}

type OpenAIOption func(*openai.ClientConfig)

// WithBaseURL replaces the API endpoint, e.g. for local or third party providers
func WithBaseURL(url string) OpenAIOption {
	return func(cfg *openai.ClientConfig) {
		if url != "" {
			cfg.BaseURL = url
		}
	}
}

func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(cfg *openai.ClientConfig) {
		cfg.HTTPClient = client
	}
}

func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, goerr.New("API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}

	return &OpenAI{client: openai.NewClientWithConfig(cfg)}, nil
}

func (x *OpenAI) Complete(ctx context.Context, req *model.CompletionRequest) (*model.Turn, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Turns),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req.Tools)
		chatReq.ToolChoice = req.ToolChoice
	}

	resp, err := x.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, goerr.Wrap(classifyOpenAIError(err), "failed to create chat completion", goerr.V("model", req.Model))
	}
	if len(resp.Choices) == 0 {
		return nil, goerr.New("no choice in chat completion response", goerr.V("model", req.Model))
	}

	msg := resp.Choices[0].Message
	turn := &model.Turn{
		Role:    model.RoleAssistant,
		Content: msg.Content,
	}
	for _, call := range msg.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, model.ToolCallRequest{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}

	return turn, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return classifyStatus(0, err)
}

func toOpenAIMessages(turns []model.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		msg := openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		}

		switch turn.Role {
		case model.RoleAssistant:
			for _, call := range turn.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
		case model.RoleTool:
			msg.ToolCallID = turn.ToolCallID
			msg.Name = turn.Name
		}

		messages = append(messages, msg)
	}
	return messages
}

func toOpenAITools(schemas []*model.ToolSchema) []openai.Tool {
	tools := make([]openai.Tool, len(schemas))
	for i, s := range schemas {
		params := s.Parameters
		if params == nil {
			params = &jsonschema.Schema{Type: "object"}
		}
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		}
	}
	return tools
}
