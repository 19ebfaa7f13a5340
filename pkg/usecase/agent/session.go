package agent

import (
	"context"
	"io"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/adapter"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/utils/logging"
	"github.com/m-mizutani/toolagent/pkg/utils/term"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.6
	DefaultTopP        = 0.9
)

// Session is a conversation with the model. Turns are only appended.
type Session struct {
	llm        adapter.LLM
	dispatcher *Dispatcher
	console    *term.Console

	model       string
	temperature float32
	topP        float32

	history []model.Turn
}

type Option func(*Session)

func WithModel(name string) Option {
	return func(s *Session) {
		s.model = name
	}
}

func WithTemperature(v float32) Option {
	return func(s *Session) {
		s.temperature = v
	}
}

func WithTopP(v float32) Option {
	return func(s *Session) {
		s.topP = v
	}
}

func WithConsole(console *term.Console) Option {
	return func(s *Session) {
		s.console = console
	}
}

// WithSystemPrompt seeds the history with a system turn
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) {
		s.history = append(s.history, model.NewSystemTurn(prompt))
	}
}

func New(llm adapter.LLM, dispatcher *Dispatcher, opts ...Option) *Session {
	s := &Session{
		llm:         llm,
		dispatcher:  dispatcher,
		console:     term.NewConsole(io.Discard, io.Discard),
		model:       DefaultModel,
		temperature: DefaultTemperature,
		topP:        DefaultTopP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns a copy of all turns so far
func (s *Session) History() []model.Turn {
	return slices.Clone(s.history)
}

// Send appends a user turn and runs the loop until the model answers without
// requesting tools. A completion failure ends the turn and is returned; the
// session stays usable.
func (s *Session) Send(ctx context.Context, text string) error {
	logger := logging.From(ctx)
	s.history = append(s.history, model.NewUserTurn(text))

	for {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "session canceled")
		}

		req := &model.CompletionRequest{
			Model:       s.model,
			Turns:       s.History(),
			Tools:       s.dispatcher.registry.Schemas(),
			ToolChoice:  model.ToolChoiceAuto,
			Temperature: s.temperature,
			TopP:        s.topP,
		}

		stop := s.console.Wait("Waiting for assistant...")
		reply, err := s.llm.Complete(ctx, req)
		stop()
		if err != nil {
			return goerr.Wrap(err, "API call failed, cannot continue this turn", goerr.V("model", s.model))
		}

		reply.Role = model.RoleAssistant
		s.history = append(s.history, *reply)
		logger.Debug("assistant replied", "tool_calls", len(reply.ToolCalls), "content_length", len(reply.Content))

		if len(reply.ToolCalls) == 0 {
			if reply.Content != "" {
				s.console.Assistant(reply.Content)
			}
			return nil
		}

		for _, result := range s.dispatcher.Dispatch(ctx, reply.ToolCalls) {
			s.history = append(s.history, model.NewToolTurn(result))
		}
	}
}
