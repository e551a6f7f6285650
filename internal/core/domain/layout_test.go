package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
)

func TestLayoutPaths(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", filepath.Join("/tmp", "state"))

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "DefaultStateDir",
			got:      domain.DefaultStateDir(),
			expected: filepath.Join("/tmp", "state", "notionstatus"),
		},
		{
			name:     "DefaultStorePath",
			got:      domain.DefaultStorePath(),
			expected: filepath.Join("/tmp", "state", "notionstatus", "store"),
		},
		{
			name:     "DefaultSQLitePath",
			got:      domain.DefaultSQLitePath(),
			expected: filepath.Join("/tmp", "state", "notionstatus", "cache.db"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	got := domain.DefaultConfigPath()
	if filepath.Base(got) != domain.ConfigFileName {
		t.Errorf("DefaultConfigPath() = %v, want file %v", got, domain.ConfigFileName)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(domain.ConfigEnvVar, "/etc/notionstatus.yaml")
	if got := domain.ResolveConfigPath(); got != "/etc/notionstatus.yaml" {
		t.Errorf("ResolveConfigPath() = %v, want /etc/notionstatus.yaml", got)
	}

	t.Setenv(domain.ConfigEnvVar, "")
	if got := domain.ResolveConfigPath(); got != domain.DefaultConfigPath() {
		t.Errorf("ResolveConfigPath() = %v, want %v", got, domain.DefaultConfigPath())
	}
}
