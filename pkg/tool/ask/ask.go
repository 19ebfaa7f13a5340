package ask

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/utils/term"
)

type askInput struct {
	Question string `json:"question"`
}

type askOutput struct {
	Response *string `json:"response"`
	Error    string  `json:"error,omitempty"`
}

// Ask asks the operator a question and returns the typed line
type Ask struct {
	reader term.LineReader
	out    io.Writer
}

// New creates a new ask_user tool
func New(reader term.LineReader, out io.Writer) *Ask {
	return &Ask{reader: reader, out: out}
}

func (x *Ask) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "ask_user",
		Description: "Asks the human user a question and returns their response.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"question": {
					Type:        "string",
					Description: "The question to ask the user.",
				},
			},
			Required: []string{"question"},
		},
	}
}

func (x *Ask) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input askInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	fmt.Fprintf(x.out, "\nAssistant asks: %s\n", input.Question)
	line, err := x.reader.ReadLine("Your response: ")
	if err != nil {
		// EOF and Ctrl-C are an answer too: the operator declined to respond
		return &askOutput{Error: "User interrupted or input closed."}, nil
	}

	return &askOutput{Response: &line}, nil
}
