package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/natserract/mkm/pkg/oauth"
)

const (
	EnvAppToken          = "MKM_APP_TOKEN"
	EnvAppSecret         = "MKM_APP_SECRET"
	EnvAccessToken       = "MKM_ACCESS_TOKEN"
	EnvAccessTokenSecret = "MKM_ACCESS_TOKEN_SECRET"
	EnvSandbox           = "MKM_SANDBOX"
	EnvUseJSON           = "MKM_USE_JSON"
	EnvConfigFile        = "MKM_CONFIG_FILE"
)

type Config struct {
	Credentials oauth.Credentials `yaml:"credentials"`
	// Sandbox selects the sandbox origin instead of production.
	Sandbox bool `yaml:"sandbox"`
	// UseJSON switches bodies and responses from XML to JSON.
	UseJSON bool `yaml:"use_json"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory and the YAML file named by MKM_CONFIG_FILE are used when
// present; environment variables win over the file.
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv(EnvConfigFile); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads a YAML configuration file without validating it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Credentials.ConsumerKey, EnvAppToken)
	setString(&c.Credentials.ConsumerSecret, EnvAppSecret)
	setString(&c.Credentials.AccessToken, EnvAccessToken)
	setString(&c.Credentials.AccessTokenSecret, EnvAccessTokenSecret)
	if err := setBool(&c.Sandbox, EnvSandbox); err != nil {
		return err
	}
	return setBool(&c.UseJSON, EnvUseJSON)
}

func (c *Config) Validate() error {
	if c.Credentials.ConsumerKey == "" {
		return fmt.Errorf("%s is required", EnvAppToken)
	}
	if c.Credentials.ConsumerSecret == "" {
		return fmt.Errorf("%s is required", EnvAppSecret)
	}
	// The access token pair is optional: public endpoints only need the app keys.
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}
