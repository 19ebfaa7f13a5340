package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/adapter"
	"github.com/m-mizutani/toolagent/pkg/repository"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/tool/python"
	"github.com/m-mizutani/toolagent/pkg/tool/web"
	"github.com/m-mizutani/toolagent/pkg/usecase/agent"
	"github.com/m-mizutani/toolagent/pkg/usecase/memory"
	"github.com/m-mizutani/toolagent/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"

	defaultGeminiModel = "gemini-2.5-flash"
	defaultMemoryFile  = "agent_memory.json"
)

// config holds configuration values
type config struct {
	// Completion service
	provider       string
	model          string
	temperature    float64
	topP           float64
	apiKey         string
	baseURL        string
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string

	memoryFile string
	logLevel   string
	configFile string

	// memoryRequested is true when a memory location was given in any way
	memoryRequested bool
}

// configFlags returns flags of the root command with destination config
func configFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Completion service provider (openai, gemini)",
			Value:       providerOpenAI,
			Sources:     cli.EnvVars("TOOLAGENT_PROVIDER"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Model name",
			Value:       agent.DefaultModel,
			Sources:     cli.EnvVars("TOOLAGENT_MODEL"),
			Destination: &cfg.model,
		},
		&cli.FloatFlag{
			Name:        "temperature",
			Aliases:     []string{"t"},
			Usage:       "Sampling temperature",
			Value:       agent.DefaultTemperature,
			Destination: &cfg.temperature,
		},
		&cli.FloatFlag{
			Name:        "top-p",
			Aliases:     []string{"p"},
			Usage:       "Nucleus sampling 'top_p'",
			Value:       agent.DefaultTopP,
			Destination: &cfg.topP,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Aliases:     []string{"k"},
			Usage:       "API key of the OpenAI compatible service",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.apiKey,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Aliases:     []string{"b"},
			Usage:       "API base URL for non-OpenAI providers",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Destination: &cfg.baseURL,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "memory-file",
			Usage:       "Path (or gs://bucket/object) of the JSON file for persistent memory. Memory is disabled if omitted; an empty value uses " + defaultMemoryFile,
			Sources:     cli.EnvVars("TOOLAGENT_MEMORY_FILE"),
			Destination: &cfg.memoryFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("TOOLAGENT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "YAML file providing default values of flags",
			Sources:     cli.EnvVars("TOOLAGENT_CONFIG"),
			Destination: &cfg.configFile,
		},
	}
}

// configurableTools are tools having their own flags. They are created before
// flag parsing so the flags can bind to them.
type configurableTools struct {
	python *python.Execute
	fetch  *web.Fetch
}

func (x *configurableTools) Flags() []cli.Flag {
	return tool.New(x.fetch, x.python).Flags()
}

// fileConfig is the schema of the --config file. Unset keys keep flag values.
type fileConfig struct {
	Provider       *string  `yaml:"provider"`
	Model          *string  `yaml:"model"`
	Temperature    *float64 `yaml:"temperature"`
	TopP           *float64 `yaml:"top_p"`
	BaseURL        *string  `yaml:"base_url"`
	GeminiProject  *string  `yaml:"gemini_project"`
	GeminiLocation *string  `yaml:"gemini_location"`
	MemoryFile     *string  `yaml:"memory_file"`
	LogLevel       *string  `yaml:"log_level"`
	Python         *string  `yaml:"python"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	return &fc, nil
}

// load completes config after flag parsing. Values from the config file are
// applied to flags not given on the command line or by environment variables.
func (cfg *config) load(c *cli.Command, tools *configurableTools) error {
	cfg.memoryRequested = c.IsSet("memory-file")

	if cfg.configFile != "" {
		fc, err := loadFileConfig(cfg.configFile)
		if err != nil {
			return err
		}
		cfg.applyFileConfig(c, fc, tools)
	}

	if cfg.provider == providerGemini && cfg.model == agent.DefaultModel && !c.IsSet("model") {
		cfg.model = defaultGeminiModel
	}

	return nil
}

func (cfg *config) applyFileConfig(c *cli.Command, fc *fileConfig, tools *configurableTools) {
	setString := func(flag string, dst *string, v *string) {
		if v != nil && !c.IsSet(flag) {
			*dst = *v
		}
	}
	setFloat := func(flag string, dst *float64, v *float64) {
		if v != nil && !c.IsSet(flag) {
			*dst = *v
		}
	}

	setString("provider", &cfg.provider, fc.Provider)
	setString("model", &cfg.model, fc.Model)
	setFloat("temperature", &cfg.temperature, fc.Temperature)
	setFloat("top-p", &cfg.topP, fc.TopP)
	setString("base-url", &cfg.baseURL, fc.BaseURL)
	setString("gemini-project", &cfg.geminiProject, fc.GeminiProject)
	setString("gemini-location", &cfg.geminiLocation, fc.GeminiLocation)
	setString("log-level", &cfg.logLevel, fc.LogLevel)
	if fc.MemoryFile != nil && !c.IsSet("memory-file") {
		cfg.memoryFile = *fc.MemoryFile
		cfg.memoryRequested = true
	}
	if fc.Python != nil && !c.IsSet("python") {
		tools.python.SetInterpreter(*fc.Python)
	}
}

// newLLM creates the completion service client of the selected provider
func (cfg *config) newLLM(ctx context.Context) (adapter.LLM, error) {
	switch cfg.provider {
	case providerOpenAI:
		if cfg.apiKey == "" {
			return nil, goerr.New("API key required via --api-key or environment variable $OPENAI_API_KEY")
		}
		client, err := adapter.NewOpenAI(cfg.apiKey, adapter.WithBaseURL(cfg.baseURL))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize OpenAI client")
		}
		return client, nil

	case providerGemini:
		var opt adapter.GeminiOption
		switch {
		case cfg.geminiAPIKey != "":
			opt = adapter.WithGeminiAPIKey(cfg.geminiAPIKey)
		case cfg.geminiProject != "":
			opt = adapter.WithVertexAI(cfg.geminiProject, cfg.geminiLocation)
		default:
			return nil, goerr.New("gemini-api-key or gemini-project is required")
		}
		client, err := adapter.NewGemini(ctx, opt)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize Gemini client")
		}
		return client, nil

	default:
		return nil, goerr.New("unsupported provider", goerr.V("provider", cfg.provider))
	}
}

// newMemoryStore opens the memory store. Without a location the store is disabled.
func (cfg *config) newMemoryStore(ctx context.Context) (*memory.Store, error) {
	if !cfg.memoryRequested {
		return memory.New(ctx, nil), nil
	}

	location := cfg.memoryFile
	if location == "" {
		location = defaultMemoryFile
		logging.From(ctx).Warn("no path specified for --memory-file, using default", "path", defaultMemoryFile)
	}

	if !repository.IsObjectURL(location) {
		return memory.New(ctx, repository.NewFile(location)), nil
	}

	bucket, key, err := repository.ParseObjectURL(location)
	if err != nil {
		return nil, err
	}
	storage, err := adapter.NewStorage(ctx, bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage", goerr.V("bucket", bucket))
	}
	return memory.New(ctx, repository.NewObject(storage, key)), nil
}
