package adapter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
	"google.golang.org/genai"
)

// Gemini is the completion backend for Gemini API and Vertex AI
type Gemini struct {
	client *genai.Client
}

type GeminiOption func(*genai.ClientConfig)

// WithGeminiAPIKey uses Gemini API with the API key
func WithGeminiAPIKey(apiKey string) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.APIKey = apiKey
		cfg.Backend = genai.BackendGeminiAPI
	}
}

// WithVertexAI uses Vertex AI with application default credentials
func WithVertexAI(projectID, location string) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.Project = projectID
		cfg.Location = location
		cfg.Backend = genai.BackendVertexAI
	}
}

func NewGemini(ctx context.Context, opts ...GeminiOption) (*Gemini, error) {
	cfg := &genai.ClientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.APIKey == "" && cfg.Project == "" {
		return nil, goerr.New("Gemini API key or Vertex AI project is required")
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	return &Gemini{client: client}, nil
}

func (x *Gemini) Complete(ctx context.Context, req *model.CompletionRequest) (*model.Turn, error) {
	config, contents, err := toGenaiRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := x.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(classifyGeminiError(err), "failed to generate content", goerr.V("model", req.Model))
	}

	return fromGenaiResponse(resp)
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return classifyStatus(0, err)
}

func toGenaiRequest(req *model.CompletionRequest) (*genai.GenerateContentConfig, []*genai.Content, error) {
	config := &genai.GenerateContentConfig{
		Temperature: &req.Temperature,
		TopP:        &req.TopP,
	}

	if len(req.Tools) > 0 {
		tool := &genai.Tool{}
		for _, s := range req.Tools {
			params, err := convertSchema(s.Parameters)
			if err != nil {
				return nil, nil, goerr.Wrap(err, "failed to convert tool schema", goerr.V("tool", s.Name))
			}
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			})
		}
		config.Tools = []*genai.Tool{tool}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	var contents []*genai.Content
	for _, turn := range req.Turns {
		switch turn.Role {
		case model.RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(turn.Content, genai.RoleUser)

		case model.RoleUser:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleUser))

		case model.RoleAssistant:
			content := &genai.Content{Role: genai.RoleModel}
			if turn.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: decodeObject(call.Arguments, "arguments"),
					},
				})
			}
			contents = append(contents, content)

		case model.RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       turn.ToolCallID,
					Name:     turn.Name,
					Response: decodeObject(turn.Content, "output"),
				},
			}
			// Consecutive tool results go back in a single user content
			if n := len(contents); n > 0 && isFunctionResponse(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
			} else {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
			}
		}
	}

	return config, contents, nil
}

func isFunctionResponse(content *genai.Content) bool {
	return content.Role == genai.RoleUser && len(content.Parts) > 0 && content.Parts[0].FunctionResponse != nil
}

// decodeObject parses a JSON object, or wraps any other text under key
func decodeObject(raw string, key string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		if raw == "" {
			return map[string]any{}
		}
		return map[string]any{key: raw}
	}
	return obj
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) (*model.Turn, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("no candidate in generate content response")
	}

	turn := &model.Turn{Role: model.RoleAssistant}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			turn.Content += part.Text
		}
		if part.FunctionCall != nil {
			callArgs := part.FunctionCall.Args
			if callArgs == nil {
				callArgs = map[string]any{}
			}
			args, err := json.Marshal(callArgs)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to marshal function call arguments", goerr.V("name", part.FunctionCall.Name))
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = uuid.NewString()
			}
			turn.ToolCalls = append(turn.ToolCalls, model.ToolCallRequest{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		}
	}

	return turn, nil
}
