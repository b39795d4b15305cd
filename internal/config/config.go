// Package config centralizes memoryctl's environment-driven configuration.
package config

import "github.com/caarlos0/env/v10"

// Config is the full set of environment-driven knobs the memory subsystem
// needs. Fields without an envDefault are optional: an empty DATABASE_URL,
// SQVECT_PATH or REDIS_ADDR switches that backend off, and an empty API key
// leaves the matching HTTP client unconfigured.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	SqvectPath  string `env:"SQVECT_PATH"`
	SqvectDim   int    `env:"SQVECT_DIM" envDefault:"1536"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	EmbeddingBaseURL string `env:"EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1/embeddings"`
	EmbeddingAPIKey  string `env:"EMBEDDING_API_KEY"`
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1/chat/completions"`
	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	// FSRSWeightsOverride, when set, must contain exactly 21 comma-separated
	// floats. Empty uses the documented defaults.
	FSRSWeightsOverride string `env:"FSRS_WEIGHTS_OVERRIDE"`
}

// Load reads Config from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
