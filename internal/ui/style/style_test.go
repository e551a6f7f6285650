package style_test

import (
	"testing"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/ui/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestForState(t *testing.T) {
	tests := []struct {
		state domain.State
		want  lipgloss.Color
	}{
		{state: domain.StateGreen, want: style.Green},
		{state: domain.StateRed, want: style.Red},
		{state: domain.StateOrange, want: style.Orange},
		{state: domain.StateGray, want: style.Gray},
		{state: domain.State("PURPLE"), want: style.Gray},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, style.ForState(tt.state))
		})
	}
}
