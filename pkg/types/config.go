package types

import (
	"os"
	"time"
)

// Defaults shared by every host.
const (
	DefaultModel         = "deepseek/deepseek-r1-0528:free"
	DefaultModelBaseURL  = "https://openrouter.ai/api/v1"
	DefaultModelFamily   = "deepseek"
	DefaultAPIKeyEnv     = "OPENROUTER_API_KEY"
	DefaultMaxTurns      = 20
	DefaultPapers        = 5
	DefaultSearchResults = 5
	DefaultOverFetch     = 5
	DefaultUserAgent     = "survey-engine/0.1"
	DefaultHTTPTimeout   = 60 * time.Second
	DefaultServeAddr     = ":8080"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchBackend identifies the scholarly index queried by the search tool.
type SearchBackend string

const (
	BackendArxiv           SearchBackend = "arxiv"
	BackendSemanticScholar SearchBackend = "semantic_scholar"
)

// SearchConfig holds settings for the search capability.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the index: arxiv (default) or semantic_scholar.
	Backend SearchBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// MaxResults is the cap used when a caller does not give one (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`
}

// ModelInfo declares what the model behind a client supports.
type ModelInfo struct {
	Family          string `json:"family" yaml:"family" mapstructure:"family"`
	Vision          bool   `json:"vision" yaml:"vision" mapstructure:"vision"`
	FunctionCalling bool   `json:"function_calling" yaml:"function_calling" mapstructure:"function_calling"`
	JSONOutput      bool   `json:"json_output" yaml:"json_output" mapstructure:"json_output"`
}

// APIKeyProvider returns the secret used to authenticate model calls.
type APIKeyProvider func() (string, error)

// ModelConfig holds settings for the shared language-model client.
type ModelConfig struct {
	// BaseURL is the OpenAI-compatible API root (default OpenRouter).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the model identifier sent with every request.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Info declares the model capabilities.
	Info ModelInfo `json:"info" yaml:"info" mapstructure:"info"`

	// APIKey supplies the API key. It is called once when the client is built.
	APIKey APIKeyProvider `json:"-" yaml:"-" mapstructure:"-"`
}

// TeamConfig holds settings for the two-agent team.
type TeamConfig struct {
	Model ModelConfig `json:"model" yaml:"model" mapstructure:"model"`

	// MaxTurns bounds the number of agent turns across both agents (default 20).
	MaxTurns int `json:"max_turns" yaml:"max_turns" mapstructure:"max_turns"`

	// StopOnReport ends the run once the summarizer has spoken.
	StopOnReport bool `json:"stop_on_report" yaml:"stop_on_report" mapstructure:"stop_on_report"`
}

// ServeConfig holds settings for the web form host.
type ServeConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AllowOrigins lists CORS origins; empty allows all.
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins" mapstructure:"allow_origins"`
}

// ArchiveConfig holds settings for the optional run archive.
type ArchiveConfig struct {
	// Path is the SQLite database file. Empty disables archiving.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// SurveyConfig groups all stage configurations.
type SurveyConfig struct {
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Team    TeamConfig    `json:"team" yaml:"team" mapstructure:"team"`
	Serve   ServeConfig   `json:"serve" yaml:"serve" mapstructure:"serve"`
	Archive ArchiveConfig `json:"archive" yaml:"archive" mapstructure:"archive"`
}

// EnvAPIKey returns a provider that reads the named environment variable at
// call time. An unset variable yields "" and no error: a missing key is only
// discovered when the model is first used.
func EnvAPIKey(name string) APIKeyProvider {
	return func() (string, error) {
		return os.Getenv(name), nil
	}
}

// DefaultModelConfig returns the OpenRouter model settings.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		BaseURL: DefaultModelBaseURL,
		Model:   DefaultModel,
		Info: ModelInfo{
			Family:          DefaultModelFamily,
			Vision:          true,
			FunctionCalling: true,
			JSONOutput:      false,
		},
		APIKey: EnvAPIKey(DefaultAPIKeyEnv),
	}
}

// DefaultSurveyConfig returns the configuration used when nothing is overridden.
func DefaultSurveyConfig() SurveyConfig {
	return SurveyConfig{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   DefaultHTTPTimeout,
				UserAgent: DefaultUserAgent,
			},
			Backend:    BackendArxiv,
			MaxResults: DefaultSearchResults,
		},
		Team: TeamConfig{
			Model:        DefaultModelConfig(),
			MaxTurns:     DefaultMaxTurns,
			StopOnReport: true,
		},
		Serve: ServeConfig{
			Addr: DefaultServeAddr,
		},
	}
}
