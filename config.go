package oramcp

import (
	"context"
	"time"
)

// Config is the base configuration used by library mode via New().
type Config struct {
	Pool         PoolConfig        `json:"pool"`
	Query        QueryConfig       `json:"query"`
	ErrorPrompts []ErrorPromptRule `json:"error_prompts"`
	Redaction    []RedactionRule   `json:"redaction"`

	DefaultHookTimeoutSeconds int `json:"default_hook_timeout_seconds"`

	// Library mode: Go function hooks (not serializable).
	// Mutually exclusive with ServerConfig.ServerHooks.
	BeforeQueryHooks []BeforeQueryHookEntry `json:"-"`
	AfterQueryHooks  []AfterQueryHookEntry  `json:"-"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Connection  ConnectionConfig  `json:"connection"`
	Server      ServerSettings    `json:"server"`
	Logging     LoggingConfig     `json:"logging"`
	ServerHooks ServerHooksConfig `json:"server_hooks"`
}

// ConnectionConfig holds database connection parameters used by CLI
// mode. Credentials are never stored here — DB_USER / DB_PASSWORD /
// DB_DSN come from the environment (or a .env file), with an
// interactive prompt as fallback.
type ConnectionConfig struct {
	// DSN is the Oracle connect descriptor, e.g. "localhost:1521/FREEPDB1".
	// The DB_DSN environment variable takes precedence when set.
	DSN string `json:"dsn"`
}

// PoolConfig holds connection pool settings, mapped onto database/sql.
type PoolConfig struct {
	MaxConns        int    `json:"max_conns"`
	MinConns        int    `json:"min_conns"`
	MaxConnLifetime string `json:"max_conn_lifetime"`
	MaxConnIdleTime string `json:"max_conn_idle_time"`
}

// ServerSettings holds transport settings for CLI mode. Transport is
// "stdio" (default) or "http" (streamable HTTP with optional health
// check endpoint).
type ServerSettings struct {
	Transport          string `json:"transport"`
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stderr, stdout, or file path
}

// QueryConfig holds query execution settings.
type QueryConfig struct {
	DefaultTimeoutSeconds       int `json:"default_timeout_seconds"`
	ListTablesTimeoutSeconds    int `json:"list_tables_timeout_seconds"`
	DescribeTableTimeoutSeconds int `json:"describe_table_timeout_seconds"`

	// MaxSQLLength bounds submitted statement text (bytes).
	MaxSQLLength int `json:"max_sql_length"`
	// MaxResultLength is the ceiling a request's max_length is clamped to.
	MaxResultLength int `json:"max_result_length"`
	// MaxRows is the ceiling a request's max_rows is clamped to.
	MaxRows int `json:"max_rows"`

	TimeoutRules []TimeoutRule `json:"timeout_rules"`
}

// TimeoutRule maps a SQL pattern to a specific timeout duration.
type TimeoutRule struct {
	Pattern        string `json:"pattern"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// ErrorPromptRule maps an error message pattern to a guidance message.
type ErrorPromptRule struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

// RedactionRule defines a regex-based result-value redaction rule.
type RedactionRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}

// ServerHooksConfig holds command-based hook configuration for CLI mode.
type ServerHooksConfig struct {
	BeforeQuery []HookEntry `json:"before_query"`
	AfterQuery  []HookEntry `json:"after_query"`
}

// HookEntry defines a single command-based hook.
type HookEntry struct {
	Pattern        string   `json:"pattern"`
	Command        string   `json:"command"`
	Args           []string `json:"args"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

// BeforeQueryHook can inspect and rewrite SQL before classification
// and execution.
type BeforeQueryHook interface {
	Run(ctx context.Context, query string) (string, error)
}

// AfterQueryHook can inspect and rewrite the formatted result text.
type AfterQueryHook interface {
	Run(ctx context.Context, result string) (string, error)
}

// BeforeQueryHookEntry wraps a BeforeQueryHook with metadata.
type BeforeQueryHookEntry struct {
	Name    string
	Timeout time.Duration
	Hook    BeforeQueryHook
}

// AfterQueryHookEntry wraps an AfterQueryHook with metadata.
type AfterQueryHookEntry struct {
	Name    string
	Timeout time.Duration
	Hook    AfterQueryHook
}
