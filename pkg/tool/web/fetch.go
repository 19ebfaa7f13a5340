package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/urfave/cli/v3"
	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout   = 10
	defaultUserAgent = "toolagent/1.0"
	maxBodySize      = 10 << 20
)

type fetchInput struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type fetchOutput struct {
	Content    *string `json:"content"`
	StatusCode *int    `json:"status_code"`
	Error      string  `json:"error,omitempty"`
}

// Fetch retrieves the text content of a URL
type Fetch struct {
	userAgent  string
	httpClient *http.Client
}

// Option is a functional option for Fetch
type Option func(*Fetch)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetch) {
		f.httpClient = client
	}
}

// New creates a new fetch_web_page tool
func New(opts ...Option) *Fetch {
	f := &Fetch{
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flags returns CLI flags for this tool
func (x *Fetch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "user-agent",
			Usage:       "User-Agent header sent by fetch_web_page",
			Value:       defaultUserAgent,
			Sources:     cli.EnvVars("TOOLAGENT_USER_AGENT"),
			Destination: &x.userAgent,
		},
	}
}

func (x *Fetch) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "fetch_web_page",
		Description: "Fetches the text content of a given URL. Requires user approval.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url": {
					Type:        "string",
					Description: "The URL to fetch (must include http:// or https://).",
				},
				"timeout_seconds": {
					Type:        "integer",
					Description: fmt.Sprintf("Optional timeout in seconds (default: %d).", defaultTimeout),
				},
			},
			Required: []string{"url"},
		},
		Danger: &tool.Danger{
			Action:    "Fetch Web Page",
			DetailArg: "url",
		},
	}
}

func (x *Fetch) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	input := fetchInput{TimeoutSeconds: defaultTimeout}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.TimeoutSeconds <= 0 {
		input.TimeoutSeconds = defaultTimeout
	}

	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return &fetchOutput{Error: "URL must start with http:// or https://"}, nil
	}

	timeout := time.Duration(input.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return &fetchOutput{Error: fmt.Sprintf("Fetch failed: %v", err)}, nil
	}
	req.Header.Set("User-Agent", x.userAgent)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &fetchOutput{Error: fmt.Sprintf("Timeout (%ds)", input.TimeoutSeconds)}, nil
		}
		return &fetchOutput{Error: fmt.Sprintf("Fetch failed: %v", err)}, nil
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	output := &fetchOutput{StatusCode: &status}
	if status < 200 || status >= 300 {
		output.Error = fmt.Sprintf("Fetch failed: %s for url: %s (Status: %d)", resp.Status, input.URL, status)
		return output, nil
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	var data []byte
	if err == nil {
		data, err = io.ReadAll(body)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			output.Error = fmt.Sprintf("Timeout (%ds)", input.TimeoutSeconds)
			return output, nil
		}
		output.Error = fmt.Sprintf("Fetch failed: %v", err)
		return output, nil
	}

	content := string(data)
	output.Content = &content
	return output, nil
}
