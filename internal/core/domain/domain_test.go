package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

func TestCacheEntry_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour

	tests := []struct {
		name    string
		status  domain.State
		age     time.Duration
		expired bool
	}{
		{name: "fresh green", status: domain.StateGreen, age: 59 * time.Minute, expired: false},
		{name: "green at ttl", status: domain.StateGreen, age: time.Hour, expired: true},
		{name: "old green", status: domain.StateGreen, age: 48 * time.Hour, expired: true},
		{name: "old red", status: domain.StateRed, age: 365 * 24 * time.Hour, expired: false},
		{name: "old orange", status: domain.StateOrange, age: 365 * 24 * time.Hour, expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := domain.NewCacheEntry("https://example.com", tt.status, domain.EntryDetails{}, now.Add(-tt.age))
			assert.Equal(t, tt.expired, entry.Expired(now, ttl))
		})
	}
}

func TestNewCacheEntry_CopiesMatchingURLs(t *testing.T) {
	matches := []string{"https://example.com"}
	entry := domain.NewCacheEntry("https://example.com/a", domain.StateOrange,
		domain.EntryDetails{MatchingURLs: matches}, time.Now())

	matches[0] = "mutated"
	assert.Equal(t, []string{"https://example.com"}, entry.MatchingURLs)
	assert.Equal(t, "urlCache:https://example.com/a", domain.CacheKey(entry.URL))
}

func TestStatus_Stamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status domain.Status
		text   string
	}{
		{name: "green", status: domain.Status{State: domain.StateGreen}, text: "URL found in Notion."},
		{name: "red", status: domain.Status{State: domain.StateRed}, text: "URL not found in Notion."},
		{
			name:   "red excluded",
			status: domain.Status{State: domain.StateRed, DomainExcluded: true},
			text:   "URL excluded by domain rules.",
		},
		{
			name:   "orange counts matches",
			status: domain.Status{State: domain.StateOrange, MatchingURLs: []string{"a", "b"}},
			text:   "Found 2 similar URLs.",
		},
		{
			name:   "gray error",
			status: domain.Status{State: domain.StateGray, Error: "boom"},
			text:   "Error: boom",
		},
		{
			name:   "gray excluded",
			status: domain.Status{State: domain.StateGray, DomainExcluded: true},
			text:   "URL excluded by domain rules.",
		},
		{name: "gray checking", status: domain.Status{State: domain.StateGray}, text: "Checking status..."},
		{
			name:   "explicit text kept",
			status: domain.Status{State: domain.StateGray, Text: "Checking with Notion..."},
			text:   "Checking with Notion...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.status.Stamp(now)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, now, got.Timestamp)
		})
	}
}

func TestMatchLevel(t *testing.T) {
	for _, level := range domain.MatchLevels {
		assert.True(t, level.Known(), level)
	}
	assert.False(t, domain.MatchLevel("path4_partials").Known())

	assert.False(t, domain.MatchExactURL.AllowsPartials())
	assert.False(t, domain.MatchCustomExact.AllowsPartials())
	assert.True(t, domain.MatchCustomPartials.AllowsPartials())
	assert.True(t, domain.MatchDomainPartials.AllowsPartials())

	depth, ok := domain.MatchPath2Partials.PathDepth()
	require.True(t, ok)
	assert.Equal(t, 2, depth)

	_, ok = domain.MatchDomainPartials.PathDepth()
	assert.False(t, ok)
}

func TestDomainRule_Matches(t *testing.T) {
	rule := domain.DomainRule{Domain: "Example.com", MatchLevel: domain.MatchExactURL}

	assert.True(t, rule.Matches("example.com"))
	assert.True(t, rule.Matches("docs.example.com"))
	assert.False(t, rule.Matches("notexample.com"))
	assert.False(t, rule.Matches(""))
	assert.False(t, domain.DomainRule{}.Matches("example.com"))
}

func TestRuleResolution(t *testing.T) {
	def := domain.DefaultResolution()
	assert.Equal(t, domain.RuleDefault, def.Kind)
	assert.True(t, def.AllowsPartials)
	assert.False(t, def.MatchOnlySelf())

	disabled := domain.DisabledResolution(nil)
	assert.True(t, disabled.Disabled())

	exact := domain.RuleResolution{Kind: domain.RuleResolved, MatchLevel: domain.MatchExactURL}
	assert.True(t, exact.MatchOnlySelf())
}

func TestAutoCheckStates_Enabled(t *testing.T) {
	states := domain.DefaultConfig().AutoCheckStates

	assert.True(t, states.Enabled(domain.StateGray))
	assert.True(t, states.Enabled(domain.StateRed))
	assert.True(t, states.Enabled(domain.StateOrange))
	assert.False(t, states.Enabled(domain.StateGreen))
}

func TestConfig(t *testing.T) {
	cfg := domain.DefaultConfig()

	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, time.Hour, cfg.SyncInterval())
	assert.Equal(t, 10*time.Second, cfg.AutoCheckWait())
	assert.False(t, cfg.LookupConfigured())

	cfg.IntegrationToken = "secret"
	cfg.DatabaseID = "db"
	cfg.PropertyName = "URL"
	assert.True(t, cfg.LookupConfigured())
	assert.False(t, cfg.SyncConfigured())

	cfg.LastEditedPropertyName = "Edited"
	assert.True(t, cfg.SyncConfigured())

	clone := cfg.Clone()
	clone.ClearCredentials()
	assert.Empty(t, clone.IntegrationToken)
	assert.True(t, clone.NeedsAuthentication)
	assert.Equal(t, "secret", cfg.IntegrationToken)

	rejected := cfg.Clone()
	rejected.NeedsAuthentication = true
	assert.False(t, rejected.LookupConfigured(), "a rejected token blocks lookups until replaced")
	assert.False(t, rejected.SyncConfigured())

	cfg.CacheDuration = 0
	assert.Equal(t, time.Hour, cfg.CacheTTL())
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "401", err: &domain.LookupError{StatusCode: 401}, want: true},
		{name: "wrapped 401", err: zerr.Wrap(&domain.LookupError{StatusCode: 401}, "query"), want: true},
		{name: "fmt wrapped", err: fmt.Errorf("x: %w", &domain.LookupError{StatusCode: 401}), want: true},
		{name: "sentinel", err: domain.ErrAuthFailed, want: true},
		{name: "500", err: &domain.LookupError{StatusCode: 500}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.IsAuthError(tt.err))
		})
	}
}

func TestLookupError_Error(t *testing.T) {
	assert.Equal(t, "notion api error: 401 Unauthorized", (&domain.LookupError{StatusCode: 401}).Error())
	assert.Equal(t, "notion api error: 400 bad filter",
		(&domain.LookupError{StatusCode: 400, Message: "bad filter"}).Error())
}
