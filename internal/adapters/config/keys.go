package config

import (
	"reflect"
	"slices"
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// fields maps the keys settable from the command line to the config field they address.
var fields = map[string]func(cfg *domain.Config) any{
	"integrationToken":         func(c *domain.Config) any { return &c.IntegrationToken },
	"accessToken":              func(c *domain.Config) any { return &c.AccessToken },
	"databaseId":               func(c *domain.Config) any { return &c.DatabaseID },
	"propertyName":             func(c *domain.Config) any { return &c.PropertyName },
	"lastEditedPropertyName":   func(c *domain.Config) any { return &c.LastEditedPropertyName },
	"cacheDuration":            func(c *domain.Config) any { return &c.CacheDuration },
	"aggressiveCachingEnabled": func(c *domain.Config) any { return &c.AggressiveCaching },
	"logLevel":                 func(c *domain.Config) any { return &c.LogLevel },
	"autoCheckEnabled":         func(c *domain.Config) any { return &c.AutoCheckEnabled },
	"autoCheckDelay":           func(c *domain.Config) any { return &c.AutoCheckDelay },
	"autoCheckStates.red":      func(c *domain.Config) any { return &c.AutoCheckStates.Red },
	"autoCheckStates.orange":   func(c *domain.Config) any { return &c.AutoCheckStates.Orange },
	"autoCheckStates.green":    func(c *domain.Config) any { return &c.AutoCheckStates.Green },
	"domainRules":              func(c *domain.Config) any { return &c.DomainRules },
	"needsAuthentication":      func(c *domain.Config) any { return &c.NeedsAuthentication },
	"store.backend":            func(c *domain.Config) any { return &c.Store.Backend },
	"store.path":               func(c *domain.Config) any { return &c.Store.Path },
	"store.addr":               func(c *domain.Config) any { return &c.Store.Addr },
	"store.dsn":                func(c *domain.Config) any { return &c.Store.DSN },
	"notion.baseUrl":           func(c *domain.Config) any { return &c.Notion.BaseURL },
	"notion.version":           func(c *domain.Config) any { return &c.Notion.Version },
	"notion.rateLimit":         func(c *domain.Config) any { return &c.Notion.RateLimit },
	"server.listen":            func(c *domain.Config) any { return &c.Server.Listen },
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the value of key in cfg.
func Get(cfg *domain.Config, key string) (any, error) {
	field, ok := fields[key]
	if !ok {
		return nil, unknownKey(key)
	}
	return reflect.ValueOf(field(cfg)).Elem().Interface(), nil
}

// Set parses value as YAML into the field addressed by key. Lists such as domainRules take a
// YAML or JSON sequence. Setting a credential clears needsAuthentication.
func Set(cfg *domain.Config, key, value string) error {
	field, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}

	target := field(cfg)
	if s, ok := target.(*string); ok {
		*s = strings.TrimSpace(value)
	} else if err := yaml.Unmarshal([]byte(value), target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "key", key)
	}

	if key == "logLevel" {
		cfg.LogLevel = domain.LogLevel(strings.ToUpper(string(cfg.LogLevel)))
	}
	if (key == "integrationToken" || key == "accessToken") && value != "" {
		cfg.NeedsAuthentication = false
	}
	return nil
}

func unknownKey(key string) error {
	return zerr.With(zerr.Wrap(domain.ErrUnknownConfigKey, "config key"), "key", key)
}
