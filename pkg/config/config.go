package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no -config flag is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-validator.
// Values come from a YAML file with environment variable overrides.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	Version string `yaml:"-"` // Set at load time, not from config

	Log        LogConfig        `yaml:"log"`
	LLM        LLMConfig        `yaml:"llm"`
	Datasource DatasourceConfig `yaml:"datasource"`
	History    HistoryConfig    `yaml:"history"`
	Retry      RetryConfig      `yaml:"retry"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	MCP        MCPConfig        `yaml:"mcp"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"` // console or json
}

// LLMConfig selects the model used for reconciliation, narrative, rule
// inference and table recommendation.
type LLMConfig struct {
	Provider   string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"` // openai, azure or anthropic
	Endpoint   string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model      string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIVersion string `yaml:"api_version" env:"LLM_API_VERSION" env-default:""` // Azure only
	MaxTokens  int    `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`
	APIKey     string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// DatasourceConfig describes the database holding the target tables.
// Only the fields relevant to Type are used.
type DatasourceConfig struct {
	Type     string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"postgres"` // postgres, mssql or sqlite
	Host     string `yaml:"host" env:"DATASOURCE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DATASOURCE_PORT" env-default:"0"` // 0 uses the adapter default
	User     string `yaml:"user" env:"DATASOURCE_USER" env-default:""`
	Database string `yaml:"database" env:"DATASOURCE_DATABASE" env-default:""`
	Schema   string `yaml:"schema" env:"DATASOURCE_SCHEMA" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"DATASOURCE_SSL_MODE" env-default:""`
	Path     string `yaml:"path" env:"DATASOURCE_PATH" env-default:""` // sqlite file

	// SQL Server
	AuthMethod string `yaml:"auth_method" env:"DATASOURCE_AUTH_METHOD" env-default:""`
	Encrypt    string `yaml:"encrypt" env:"DATASOURCE_ENCRYPT" env-default:""`
	TenantID   string `yaml:"tenant_id" env:"DATASOURCE_TENANT_ID" env-default:""`
	ClientID   string `yaml:"client_id" env:"DATASOURCE_CLIENT_ID" env-default:""`

	Password     string `yaml:"-" env:"DATASOURCE_PASSWORD"`      // Secret - not in YAML
	ClientSecret string `yaml:"-" env:"DATASOURCE_CLIENT_SECRET"` // Secret - not in YAML
}

type HistoryConfig struct {
	Dir   string `yaml:"dir" env:"HISTORY_DIR" env-default:"schema_history"`
	Depth int    `yaml:"depth" env:"HISTORY_DEPTH" env-default:"3"`
}

// RetryConfig bounds retries of rate-limited LLM calls.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" env-default:"3"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"RETRY_INITIAL_DELAY" env-default:"60s"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"RETRY_MAX_DELAY" env-default:"180s"`
}

type PipelineConfig struct {
	// MaxConcurrent bounds how many validation units run at once.
	MaxConcurrent int `yaml:"max_concurrent" env:"PIPELINE_MAX_CONCURRENT" env-default:"4"`

	// Compatibility picks the type compatibility table: "default" knows the
	// generic SQL spellings, "extended" adds catalog spellings such as BIGINT
	// or CHARACTER VARYING.
	Compatibility string `yaml:"compatibility" env:"PIPELINE_COMPATIBILITY" env-default:"default"`
}

// MetricsConfig selects where pipeline metrics go.
type MetricsConfig struct {
	Backend        string   `yaml:"backend" env:"METRICS_BACKEND" env-default:"none"` // none, prometheus or datadog
	PushgatewayURL string   `yaml:"pushgateway_url" env:"METRICS_PUSHGATEWAY_URL" env-default:""`
	Job            string   `yaml:"job" env:"METRICS_JOB" env-default:"ekaya-validator"`
	StatsdAddr     string   `yaml:"statsd_addr" env:"METRICS_STATSD_ADDR" env-default:"127.0.0.1:8125"`
	Namespace      string   `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"validator."`
	Tags           []string `yaml:"tags" env:"METRICS_TAGS" env-separator:","`
}

// MCPConfig configures the MCP tool server started by "serve".
type MCPConfig struct {
	BindAddr string `yaml:"bind_addr" env:"MCP_BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"MCP_PORT" env-default:"8765"`
	BaseURL  string `yaml:"base_url" env:"MCP_BASE_URL" env-default:""` // Auto-derived from Port if empty
	// FileRoot confines file_path tool arguments to one directory.
	FileRoot string        `yaml:"file_root" env:"MCP_FILE_ROOT" env-default:""`
	Auth     MCPAuthConfig `yaml:"auth"`
}

// MCPAuthConfig holds bearer-token settings for the MCP endpoint.
type MCPAuthConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_AUTH_ENABLED" env-default:"false"`

	// EnableVerification controls whether JWT signatures are checked.
	// A false YAML value is indistinguishable from unset, so turn it off with
	// AUTH_ENABLE_VERIFICATION=false for local development.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	Audience      string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:""`
	RequiredScope string `yaml:"required_scope" env:"AUTH_REQUIRED_SCOPE" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// Load reads path (DefaultPath when empty) with environment overrides.
// A .env file in the working directory is loaded into the environment first.
// A missing file is only an error when path was given explicitly.
func Load(path, version string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := &Config{Version: version}
	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.parseComplexFields()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() {
	c.MCP.Auth.JWKSEndpoints = parseJWKSEndpoints(c.MCP.Auth.JWKSEndpointsStr)
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Datasource.Type = strings.ToLower(strings.TrimSpace(c.Datasource.Type))
	c.Metrics.Backend = strings.ToLower(strings.TrimSpace(c.Metrics.Backend))
	c.Pipeline.Compatibility = strings.ToLower(strings.TrimSpace(c.Pipeline.Compatibility))

	if c.MCP.BaseURL == "" {
		c.MCP.BaseURL = "http://localhost:" + c.MCP.Port
	}
	c.MCP.BaseURL = strings.TrimSuffix(c.MCP.BaseURL, "/")
}

// Validate checks values cleanenv cannot check on its own.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case "openai", "azure", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be openai, azure or anthropic, got %q", c.LLM.Provider))
	}
	if c.Datasource.Type == "" {
		errs = append(errs, errors.New("datasource.type is required"))
	}
	if c.History.Depth < 1 {
		errs = append(errs, fmt.Errorf("history.depth must be at least 1, got %d", c.History.Depth))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		errs = append(errs, errors.New("retry.max_delay must not be below retry.initial_delay"))
	}
	if c.Pipeline.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("pipeline.max_concurrent must be at least 1, got %d", c.Pipeline.MaxConcurrent))
	}
	switch c.Pipeline.Compatibility {
	case "", "default", "extended":
	default:
		errs = append(errs, fmt.Errorf("pipeline.compatibility must be default or extended, got %q", c.Pipeline.Compatibility))
	}

	switch c.Metrics.Backend {
	case "", "none":
	case "prometheus":
		if c.Metrics.PushgatewayURL == "" {
			errs = append(errs, errors.New("metrics.pushgateway_url is required for the prometheus backend"))
		}
	case "datadog":
		if c.Metrics.StatsdAddr == "" {
			errs = append(errs, errors.New("metrics.statsd_addr is required for the datadog backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("metrics.backend must be none, prometheus or datadog, got %q", c.Metrics.Backend))
	}

	if _, err := strconv.Atoi(c.MCP.Port); err != nil {
		errs = append(errs, fmt.Errorf("mcp.port must be numeric, got %q", c.MCP.Port))
	}
	if c.MCP.Auth.Enabled && len(c.MCP.Auth.JWKSEndpoints) == 0 {
		errs = append(errs, errors.New("mcp.auth.jwks_endpoints is required when mcp.auth.enabled is true"))
	}

	return errors.Join(errs...)
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		issuer, jwksURL, ok := strings.Cut(pair, "=")
		if ok && strings.TrimSpace(issuer) != "" {
			endpoints[strings.TrimSpace(issuer)] = strings.TrimSpace(jwksURL)
		}
	}
	return endpoints
}

// ProviderConfig returns the datasource settings in the generic form schema
// provider factories accept. Unset fields are omitted so adapter defaults
// apply.
func (d *DatasourceConfig) ProviderConfig() map[string]any {
	m := make(map[string]any)
	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("host", d.Host)
	set("user", d.User)
	set("database", d.Database)
	set("schema", d.Schema)
	set("ssl_mode", d.SSLMode)
	set("path", d.Path)
	set("auth_method", d.AuthMethod)
	set("encrypt", d.Encrypt)
	set("tenant_id", d.TenantID)
	set("client_id", d.ClientID)
	set("password", d.Password)
	set("client_secret", d.ClientSecret)
	if d.Port > 0 {
		m["port"] = d.Port
	}
	return m
}

// ListenAddr is the host:port the MCP server binds.
func (m *MCPConfig) ListenAddr() string {
	return m.BindAddr + ":" + m.Port
}

// YAML renders the effective configuration. Secrets are never included.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
