package domain

import "time"

// LogLevel is the configured verbosity.
type LogLevel string

// Log levels in increasing verbosity.
const (
	LogNone  LogLevel = "NONE"
	LogError LogLevel = "ERROR"
	LogWarn  LogLevel = "WARN"
	LogInfo  LogLevel = "INFO"
	LogDebug LogLevel = "DEBUG"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Configuration defaults.
const (
	DefaultCacheDuration  = 60
	DefaultAutoCheckDelay = 10
	DefaultListenAddr     = "127.0.0.1:7777"
	DefaultNotionBaseURL  = "https://api.notion.com/v1"
	DefaultNotionVersion  = "2022-06-28"
	DefaultNotionRate     = 3.0
	DefaultPageSize       = 100
)

// AutoCheckStates selects which states re-trigger a reconciled check after the auto-check delay.
// GRAY always re-checks.
type AutoCheckStates struct {
	Red    bool `yaml:"red" mapstructure:"red" json:"red"`
	Orange bool `yaml:"orange" mapstructure:"orange" json:"orange"`
	Green  bool `yaml:"green" mapstructure:"green" json:"green"`
}

// Enabled reports whether a status in state s should be re-checked.
func (a AutoCheckStates) Enabled(s State) bool {
	switch s {
	case StateGray:
		return true
	case StateRed:
		return a.Red
	case StateOrange:
		return a.Orange
	case StateGreen:
		return a.Green
	default:
		return false
	}
}

// StoreConfig selects and configures the key/value store backend.
type StoreConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend" json:"backend" validate:"oneof=memory file sqlite redis postgres"`
	// Path is the directory (file) or database file (sqlite).
	Path string `yaml:"path,omitempty" mapstructure:"path" json:"path,omitempty"`
	// Addr is the redis address.
	Addr string `yaml:"addr,omitempty" mapstructure:"addr" json:"addr,omitempty" validate:"required_if=Backend redis"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn,omitempty" mapstructure:"dsn" json:"dsn,omitempty" validate:"required_if=Backend postgres"`
}

// NotionConfig tunes the Notion API client.
type NotionConfig struct {
	BaseURL string `yaml:"baseUrl" mapstructure:"baseUrl" json:"baseUrl" validate:"required,url"`
	Version string `yaml:"version" mapstructure:"version" json:"version" validate:"required"`
	// RateLimit is the number of requests per second.
	RateLimit float64 `yaml:"rateLimit" mapstructure:"rateLimit" json:"rateLimit" validate:"gt=0"`
}

// ServerConfig configures the local HTTP service.
type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen" json:"listen" validate:"required,hostname_port"`
}

// Config is the user configuration.
type Config struct {
	IntegrationToken       string          `yaml:"integrationToken,omitempty" mapstructure:"integrationToken" json:"-"`
	AccessToken            string          `yaml:"accessToken,omitempty" mapstructure:"accessToken" json:"-"`
	DatabaseID             string          `yaml:"databaseId,omitempty" mapstructure:"databaseId" json:"databaseId,omitempty"`
	PropertyName           string          `yaml:"propertyName,omitempty" mapstructure:"propertyName" json:"propertyName,omitempty"`
	LastEditedPropertyName string          `yaml:"lastEditedPropertyName,omitempty" mapstructure:"lastEditedPropertyName" json:"lastEditedPropertyName,omitempty"`
	CacheDuration          int             `yaml:"cacheDuration" mapstructure:"cacheDuration" json:"cacheDuration" validate:"gte=1"`
	AggressiveCaching      bool            `yaml:"aggressiveCachingEnabled" mapstructure:"aggressiveCachingEnabled" json:"aggressiveCachingEnabled"`
	LogLevel               LogLevel        `yaml:"logLevel" mapstructure:"logLevel" json:"logLevel" validate:"oneof=NONE ERROR WARN INFO DEBUG"`
	AutoCheckEnabled       bool            `yaml:"autoCheckEnabled" mapstructure:"autoCheckEnabled" json:"autoCheckEnabled"`
	AutoCheckDelay         int             `yaml:"autoCheckDelay" mapstructure:"autoCheckDelay" json:"autoCheckDelay" validate:"gte=0"`
	AutoCheckStates        AutoCheckStates `yaml:"autoCheckStates" mapstructure:"autoCheckStates" json:"autoCheckStates"`
	DomainRules            []DomainRule    `yaml:"domainRules,omitempty" mapstructure:"domainRules" json:"domainRules,omitempty" validate:"dive"`
	NeedsAuthentication    bool            `yaml:"needsAuthentication,omitempty" mapstructure:"needsAuthentication" json:"needsAuthentication,omitempty"`
	Store                  StoreConfig     `yaml:"store" mapstructure:"store" json:"store"`
	Notion                 NotionConfig    `yaml:"notion" mapstructure:"notion" json:"notion"`
	Server                 ServerConfig    `yaml:"server" mapstructure:"server" json:"server"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		CacheDuration:   DefaultCacheDuration,
		LogLevel:        LogInfo,
		AutoCheckDelay:  DefaultAutoCheckDelay,
		AutoCheckStates: AutoCheckStates{Red: true, Orange: true},
		Store: StoreConfig{
			Backend: BackendFile,
		},
		Notion: NotionConfig{
			BaseURL:   DefaultNotionBaseURL,
			Version:   DefaultNotionVersion,
			RateLimit: DefaultNotionRate,
		},
		Server: ServerConfig{
			Listen: DefaultListenAddr,
		},
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.DomainRules = append([]DomainRule(nil), c.DomainRules...)
	return &clone
}

// CacheTTL returns the GREEN entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	minutes := c.CacheDuration
	if minutes <= 0 {
		minutes = DefaultCacheDuration
	}
	return time.Duration(minutes) * time.Minute
}

// SyncInterval returns the period of the background delta sync.
func (c *Config) SyncInterval() time.Duration {
	return c.CacheTTL()
}

// AutoCheckWait returns the debounce delay before an automatic reconciled check.
func (c *Config) AutoCheckWait() time.Duration {
	return time.Duration(c.AutoCheckDelay) * time.Second
}

// LookupConfigured reports whether the remote store can be queried. A rejected token
// blocks queries until new credentials are set, even when the token comes from the environment.
func (c *Config) LookupConfigured() bool {
	return !c.NeedsAuthentication &&
		c.IntegrationToken != "" && c.DatabaseID != "" && c.PropertyName != ""
}

// SyncConfigured reports whether delta syncs can be scheduled.
func (c *Config) SyncConfigured() bool {
	return c.LookupConfigured() && c.LastEditedPropertyName != ""
}

// ClearCredentials drops the stored tokens and flags the need to re-authenticate.
func (c *Config) ClearCredentials() {
	c.IntegrationToken = ""
	c.AccessToken = ""
	c.NeedsAuthentication = true
}

// Target returns the remote query target derived from the configuration.
func (c *Config) Target() Target {
	return Target{
		Token:          c.IntegrationToken,
		DatabaseID:     c.DatabaseID,
		URLProperty:    c.PropertyName,
		EditedProperty: c.LastEditedPropertyName,
	}
}
