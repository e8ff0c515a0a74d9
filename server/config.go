package server

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/tickertape/pkg/assistant"
)

// Collaborator transports.
const (
	TransportA2A = "a2a"
	TransportMCP = "mcp"
)

// AgentConfig addresses one lookup collaborator.
type AgentConfig struct {
	// URL of the agent endpoint (e.g., "http://localhost:5003/a2a")
	URL string `toml:"url"`

	// Transport is "a2a" (default) or "mcp".
	Transport string `toml:"transport"`

	// Tool and Argument select the MCP tool and the argument that receives
	// the request text. Ignored for a2a.
	Tool     string `toml:"tool"`
	Argument string `toml:"argument"`
}

// Config is the tickertape server configuration.
type Config struct {
	// Address to listen on (e.g., ":5000")
	ListenAddr string `toml:"listen"`

	// Inference backend
	OllamaHost   string `toml:"ollama_host"`
	Model        string `toml:"model"`
	SystemPrompt string `toml:"system_prompt"`

	TickerAgent AgentConfig `toml:"ticker_agent"`
	PriceAgent  AgentConfig `toml:"price_agent"`

	// AgentTimeout bounds each collaborator call, BackendTimeout each
	// inference call.
	AgentTimeout   Duration `toml:"agent_timeout"`
	BackendTimeout Duration `toml:"backend_timeout"`

	// VocabularyPath optionally points at a TOML keyword table that is
	// reloaded on change.
	VocabularyPath string `toml:"vocabulary"`

	// DBPath is the path to the SQLite transcript database.
	// Empty means in-memory.
	DBPath string `toml:"db_path"`
}

// Duration is a time.Duration decoded from strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":5000",
		OllamaHost:     "http://localhost:11434",
		Model:          "llama3",
		SystemPrompt:   assistant.DefaultSystemPrompt,
		TickerAgent:    AgentConfig{URL: "http://localhost:5003/a2a", Transport: TransportA2A},
		PriceAgent:     AgentConfig{URL: "http://localhost:5004/a2a", Transport: TransportA2A},
		AgentTimeout:   Duration{30 * time.Second},
		BackendTimeout: Duration{5 * time.Minute},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.OllamaHost == "" {
		return fmt.Errorf("ollama_host is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	for name, a := range map[string]AgentConfig{"ticker_agent": c.TickerAgent, "price_agent": c.PriceAgent} {
		if a.URL == "" {
			return fmt.Errorf("%s.url is required", name)
		}
		switch a.Transport {
		case "", TransportA2A:
		case TransportMCP:
			if a.Tool == "" {
				return fmt.Errorf("%s.tool is required for mcp transport", name)
			}
		default:
			return fmt.Errorf("%s.transport %q is not supported", name, a.Transport)
		}
	}
	if c.AgentTimeout.Duration < 0 || c.BackendTimeout.Duration < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
