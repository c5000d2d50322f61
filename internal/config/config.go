// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// config.go - Configuration loading for the NetBox assistant.
//
// Configuration is assembled in layers, each overriding the previous one:
//   1. INI file (NETBOX_ASSISTANT_INI, default resources/db_config.ini when present)
//      with [netbox], [openai], [anthropic] and [slack] sections
//   2. Environment variables (see the envconfig tags below)
//   3. Optional JSON config file (NETBOX_ASSISTANT_CONFIG), comments allowed
// Defaults are applied last to anything still unset.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/kelseyhightower/envconfig"
	"github.com/tidwall/jsonc"

	"github.com/gebl/netbox-assistant/internal/logging"
)

const (
	DefaultINIPath        = "resources/db_config.ini"
	DefaultCatalogPath    = "netbox_apis.json"
	DefaultRequestTimeout = 30 * time.Second
	DefaultLLMTimeout     = 60 * time.Second
	DefaultMaxIterations  = 10
	DefaultOpenAIModel    = "gpt-4o"
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
	DefaultAuditSubject   = "netbox.assistant.audit"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	ModeAgent      = "agent"
	ModeStandalone = "standalone"
)

// Config holds every resolved setting the assistant needs.
type Config struct {
	// NetBox inventory API
	NetBoxURL   string `json:"netbox_url" envconfig:"NETBOX_URL"`
	NetBoxToken string `json:"netbox_token" envconfig:"NETBOX_TOKEN"`
	// InsecureSkipVerify turns off TLS certificate verification toward NetBox.
	// It defaults to true: the inventory API is an internal endpoint that
	// commonly runs with a self-signed certificate. This is the only place
	// certificate checking is controlled.
	InsecureSkipVerify *bool         `json:"insecure_skip_verify,omitempty" envconfig:"NETBOX_INSECURE_SKIP_VERIFY"`
	RequestTimeout     time.Duration `json:"-" envconfig:"NETBOX_TIMEOUT"`
	CatalogPath        string        `json:"catalog_path" envconfig:"NETBOX_CATALOG"`
	ReadOnly           bool          `json:"read_only" envconfig:"READ_ONLY"`
	// EndpointPermissions maps endpoint patterns ("/api/dcim/**") to
	// none|read|write. From the environment: "pattern:level,pattern:level".
	EndpointPermissions map[string]string `json:"endpoint_permissions" envconfig:"ENDPOINT_PERMISSIONS"`

	// Language model
	LLMProvider        string        `json:"llm_provider" envconfig:"LLM_PROVIDER"`
	LLMMode            string        `json:"llm_mode" envconfig:"LLM_MODE"`
	LLMTimeout         time.Duration `json:"-" envconfig:"LLM_TIMEOUT"`
	AgentMaxIterations int           `json:"agent_max_iterations" envconfig:"AGENT_MAX_ITERATIONS"`
	OpenAIAPIKey       string        `json:"openai_api_key" envconfig:"OPENAI_API_KEY"`
	OpenAIModel        string        `json:"openai_model" envconfig:"OPENAI_MODEL"`
	OpenAIBaseURL      string        `json:"openai_base_url" envconfig:"OPENAI_BASE_URL"`
	AnthropicAPIKey    string        `json:"anthropic_api_key" envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel     string        `json:"anthropic_model" envconfig:"ANTHROPIC_MODEL"`

	// Slack
	SlackBotToken string `json:"slack_bot_token" envconfig:"SLACK_BOT_TOKEN"`
	SlackAppToken string `json:"slack_app_token" envconfig:"SLACK_APP_TOKEN"`

	// MCP / HTTP surfaces
	MCPAuthEnabled bool   `json:"mcp_auth_enabled" envconfig:"MCP_AUTH_ENABLED"`
	MCPBearerToken string `json:"mcp_bearer_token" envconfig:"MCP_BEARER_TOKEN"`
	Stateless      bool   `json:"stateless" envconfig:"MCP_STATELESS"`

	// Audit events
	AuditNATSURL string `json:"audit_nats_url" envconfig:"AUDIT_NATS_URL"`
	AuditSubject string `json:"audit_subject" envconfig:"AUDIT_SUBJECT"`

	// Logging
	LogLevel        string `json:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat       string `json:"log_format" envconfig:"LOG_FORMAT"`
	LogFile         string `json:"log_file" envconfig:"LOG_FILE"`
	ContentLogLevel string `json:"content_log_level" envconfig:"CONTENT_LOG_LEVEL"`
}

// Load assembles the configuration from the INI file, the environment and
// the optional JSON file.
func Load() (*Config, error) {
	logger := logging.ConfigLogger
	logger.Debug("Loading configuration")
	cfg := &Config{}

	iniPath := os.Getenv("NETBOX_ASSISTANT_INI")
	explicitINI := iniPath != ""
	if !explicitINI {
		iniPath = DefaultINIPath
	}
	if err := cfg.loadINI(iniPath, explicitINI); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if path := os.Getenv("NETBOX_ASSISTANT_CONFIG"); path != "" {
		logger.Debug("Loading from config file", "path", path)
		if err := cfg.loadJSON(path); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	logger.Debug("Final config", "config", cfg.Redacted())
	return cfg, nil
}

// loadINI reads the legacy INI layout. A missing default file is not an error.
func (c *Config) loadINI(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if required {
			return fmt.Errorf("configuration file not found: %s", path)
		}
		logging.ConfigLogger.Debug("No INI configuration file", "path", path)
		return nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to parse INI configuration %s: %w", path, err)
	}
	logging.ConfigLogger.Debug("Loading from INI file", "path", path)

	set := func(section, key string, dst *string) {
		sec, err := file.GetSection(section)
		if err != nil {
			return
		}
		if v := strings.TrimSpace(sec.Key(key).String()); v != "" {
			*dst = v
		}
	}
	set("netbox", "NETBOX_URL", &c.NetBoxURL)
	set("netbox", "NETBOX_TOKEN", &c.NetBoxToken)
	set("openai", "OPENAI_API_KEY", &c.OpenAIAPIKey)
	set("openai", "OPENAI_MODEL", &c.OpenAIModel)
	set("anthropic", "ANTHROPIC_API_KEY", &c.AnthropicAPIKey)
	set("anthropic", "ANTHROPIC_MODEL", &c.AnthropicModel)
	set("slack", "SLACK_BOT_TOKEN", &c.SlackBotToken)
	set("slack", "SLACK_APP_TOKEN", &c.SlackAppToken)
	return nil
}

func (c *Config) loadJSON(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.InsecureSkipVerify == nil {
		skip := true
		c.InsecureSkipVerify = &skip
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.CatalogPath == "" {
		c.CatalogPath = DefaultCatalogPath
	}
	if c.LLMProvider == "" {
		c.LLMProvider = ProviderOpenAI
	}
	c.LLMProvider = strings.ToLower(c.LLMProvider)
	if c.LLMMode == "" {
		c.LLMMode = ModeAgent
	}
	c.LLMMode = strings.ToLower(c.LLMMode)
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = DefaultLLMTimeout
	}
	if c.AgentMaxIterations <= 0 {
		c.AgentMaxIterations = DefaultMaxIterations
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = DefaultOpenAIModel
	}
	if c.AnthropicModel == "" {
		c.AnthropicModel = DefaultAnthropicModel
	}
	if c.AuditSubject == "" {
		c.AuditSubject = DefaultAuditSubject
	}
}

// SkipTLSVerify reports whether NetBox certificates are left unverified.
func (c *Config) SkipTLSVerify() bool {
	return c.InsecureSkipVerify == nil || *c.InsecureSkipVerify
}

// Validate checks the NetBox credentials every mode needs.
func (c *Config) Validate() error {
	var errs []error
	if c.NetBoxURL == "" {
		errs = append(errs, errors.New("NETBOX_URL is required"))
	}
	if c.NetBoxToken == "" {
		errs = append(errs, errors.New("NETBOX_TOKEN is required"))
	}
	return errors.Join(errs...)
}

// ValidateForLLM checks that the selected language model provider is usable.
func (c *Config) ValidateForLLM() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		if c.LLMMode == ModeAgent {
			return errors.New("the anthropic provider only supports LLM_MODE=standalone")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.LLMMode {
	case ModeAgent, ModeStandalone:
		return nil
	default:
		return fmt.Errorf("unknown LLM_MODE %q", c.LLMMode)
	}
}

// ValidateForSlack checks the Slack socket-mode tokens.
func (c *Config) ValidateForSlack() error {
	var errs []error
	if c.SlackBotToken == "" {
		errs = append(errs, errors.New("SLACK_BOT_TOKEN is required"))
	}
	if c.SlackAppToken == "" {
		errs = append(errs, errors.New("SLACK_APP_TOKEN is required"))
	} else if !strings.HasPrefix(c.SlackAppToken, "xapp-") {
		errs = append(errs, errors.New("SLACK_APP_TOKEN must be an app-level token (xapp-...)"))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to log: secrets are reduced to their length.
func (c *Config) Redacted() map[string]any {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return fmt.Sprintf("<redacted:%d>", len(s))
	}
	return map[string]any{
		"netbox_url":           c.NetBoxURL,
		"netbox_token":         mask(c.NetBoxToken),
		"insecure_skip_verify": c.SkipTLSVerify(),
		"request_timeout":      c.RequestTimeout.String(),
		"catalog_path":         c.CatalogPath,
		"read_only":            c.ReadOnly,
		"endpoint_permissions": c.EndpointPermissions,
		"llm_provider":         c.LLMProvider,
		"llm_mode":             c.LLMMode,
		"llm_timeout":          c.LLMTimeout.String(),
		"openai_api_key":       mask(c.OpenAIAPIKey),
		"openai_model":         c.OpenAIModel,
		"anthropic_api_key":    mask(c.AnthropicAPIKey),
		"anthropic_model":      c.AnthropicModel,
		"slack_bot_token":      mask(c.SlackBotToken),
		"slack_app_token":      mask(c.SlackAppToken),
		"mcp_auth_enabled":     c.MCPAuthEnabled,
		"audit_nats_url":       c.AuditNATSURL,
		"audit_subject":        c.AuditSubject,
	}
}

// LoggingConfig implementation

func (c *Config) GetLogLevel() string        { return c.LogLevel }
func (c *Config) GetLogFormat() string       { return c.LogFormat }
func (c *Config) GetLogFile() string         { return c.LogFile }
func (c *Config) GetContentLogLevel() string { return c.ContentLogLevel }
