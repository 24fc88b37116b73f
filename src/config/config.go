package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the voice bridge. Values come from a YAML
// file when one is provided, with environment variables taking precedence.
type Config struct {
	// Azure OpenAI realtime endpoint (wss://...) and API key
	OpenAIEndpoint string `yaml:"openai_endpoint"`
	OpenAIAPIKey   string `yaml:"openai_api_key"`

	// Azure AI Search connection settings
	SearchEndpoint     string `yaml:"search_endpoint"`
	SearchAPIKey       string `yaml:"search_api_key"`
	SearchIndex        string `yaml:"search_index"`
	SearchSemanticConf string `yaml:"search_semantic_configuration"`

	// HTTP listen port for the incoming-call and media-stream endpoints
	Port int `yaml:"port"`

	// Synthesized voice used by the realtime session
	Voice string `yaml:"voice"`
}

const (
	defaultPort  = 5050
	defaultVoice = "alloy"
)

// Load builds a Config from the optional YAML file at path (empty path skips
// the file) and the process environment. Environment variables override file
// values.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:  defaultPort,
		Voice: defaultVoice,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Voice == "" {
		cfg.Voice = defaultVoice
	}

	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	setString(&c.OpenAIEndpoint, "AZURE_OPENAI_API_ENDPOINT")
	setString(&c.OpenAIAPIKey, "AZURE_OPENAI_API_KEY")
	setString(&c.SearchEndpoint, "AZURE_SEARCH_ENDPOINT")
	setString(&c.SearchAPIKey, "AZURE_SEARCH_KEY")
	setString(&c.SearchIndex, "AZURE_SEARCH_INDEX")
	setString(&c.SearchSemanticConf, "AZURE_SEARCH_SEMANTIC_CONFIGURATION")
	setString(&c.Voice, "VOICE")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

func (c *Config) validate() error {
	if c.OpenAIEndpoint == "" {
		return fmt.Errorf("missing Azure OpenAI endpoint")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("missing Azure OpenAI API key")
	}
	if c.SearchEndpoint == "" {
		return fmt.Errorf("missing Azure Search endpoint")
	}
	if c.SearchAPIKey == "" {
		return fmt.Errorf("missing Azure Search key")
	}
	if c.SearchIndex == "" {
		return fmt.Errorf("missing Azure Search index")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
