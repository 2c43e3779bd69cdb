package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	GitHub  GitHubConfig  `koanf:"github"`
	AWS     AWSConfig     `koanf:"aws"`
	Rules   []RuleConfig  `koanf:"rules"`
	Storage StorageConfig `koanf:"storage"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type GitHubConfig struct {
	WebhookSecret string `koanf:"webhook_secret"`
}

type AWSConfig struct {
	Region string `koanf:"region"`
}

// RuleConfig maps one path prefix to the pipelines it triggers.
type RuleConfig struct {
	Prefix    string   `koanf:"prefix"`
	Pipelines []string `koanf:"pipelines"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory, none
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from an optional YAML file and HOOKD_-prefixed
// environment variables, env taking precedence. A missing file is fine; the
// Lambda deployment runs on env vars alone.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("HOOKD_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HOOKD_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Defaults
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "none")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// The secret is usually given as ${GITHUB_WEBHOOK_SECRET} in the file so
	// the file itself stays committable.
	cfg.GitHub.WebhookSecret = substituteEnvVars(cfg.GitHub.WebhookSecret)
	if cfg.GitHub.WebhookSecret == "" {
		cfg.GitHub.WebhookSecret = os.Getenv("GITHUB_WEBHOOK_SECRET")
	}

	if len(cfg.Rules) == 0 {
		cfg.Rules = DefaultRules()
	}

	return &cfg, nil
}

// DefaultRules is the monorepo layout this service was built for: one
// pipeline per Lambda directory, and a shared layer that rebuilds both.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{Prefix: "lambda1", Pipelines: []string{"lambda1-pipeline"}},
		{Prefix: "lambda2", Pipelines: []string{"lambda2-pipeline"}},
		{Prefix: "layers/shared", Pipelines: []string{"lambda1-pipeline", "lambda2-pipeline"}},
	}
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
