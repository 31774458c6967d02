package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type ModelSettings struct {
	BaseURL    string `yaml:"base_url"`
	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`
}

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// PublicURL is the page address used in share links. Empty means
		// derive it from the incoming request.
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`
	Provider   string        `yaml:"provider"`
	Gemini     ModelSettings `yaml:"gemini"`
	OpenAI     ModelSettings `yaml:"openai"`
	Generation struct {
		TimeoutSeconds float64 `yaml:"timeout_seconds"`
		FailureMessage string  `yaml:"failure_message"`
	} `yaml:"generation"`
	Card struct {
		Scale                int     `yaml:"scale"`
		CacheTTLMinutes      float64 `yaml:"cache_ttl_minutes"`
		ExportFailureMessage string  `yaml:"export_failure_message"`
	} `yaml:"card"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

func defaults() *Config {
	config := &Config{}
	config.Server.Port = "8080"
	config.Provider = ProviderGemini
	config.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	config.Gemini.TextModel = "gemini-2.5-flash"
	config.Gemini.ImageModel = "gemini-2.5-flash-image"
	config.OpenAI.BaseURL = "https://api.openai.com/v1/"
	config.OpenAI.TextModel = "gpt-4o-mini"
	config.OpenAI.ImageModel = "dall-e-3"
	config.Generation.TimeoutSeconds = 90
	config.Generation.FailureMessage = "Ops! O servidor caiu na daily. Tente novamente."
	config.Card.Scale = 2
	config.Card.CacheTTLMinutes = 10
	config.Card.ExportFailureMessage = "Não foi possível salvar a imagem. Tente tirar um print!"
	config.Log.Level = "info"
	return config
}

// LoadConfig reads path over the built-in defaults. A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	config := defaults()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Card.Scale < 1 || c.Card.Scale > 4 {
		return fmt.Errorf("card scale must be between 1 and 4, got %d", c.Card.Scale)
	}
	return nil
}

// APIKeyEnv names the environment variable holding the credential for the
// selected provider
func (c *Config) APIKeyEnv() string {
	if c.Provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// Models returns the settings of the selected provider
func (c *Config) Models() ModelSettings {
	if c.Provider == ProviderOpenAI {
		return c.OpenAI
	}
	return c.Gemini
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSeconds * float64(time.Second))
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Card.CacheTTLMinutes * float64(time.Minute))
}
