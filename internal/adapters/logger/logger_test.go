package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/logger"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger with an injected bytes.Buffer for isolated testing.
// It also sets NO_COLOR=1 to ensure deterministic output without ANSI escape codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level domain.LogLevel
		want  string
	}{
		{level: domain.LogDebug, want: "○ debug\ninfo\n! warn\n✗ Error: boom\n"},
		{level: domain.LogInfo, want: "info\n! warn\n✗ Error: boom\n"},
		{level: domain.LogWarn, want: "! warn\n✗ Error: boom\n"},
		{level: domain.LogError, want: "✗ Error: boom\n"},
		{level: domain.LogNone, want: ""},
		{level: "debug", want: "○ debug\ninfo\n! warn\n✗ Error: boom\n"},
		{level: "bogus", want: "info\n! warn\n✗ Error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.SetLevel(tt.level)

			lg.Debug("debug")
			lg.Info("info")
			lg.Warn("warn")
			lg.Error(errors.New("boom"))

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("[Sync] full sync finished", "pages", 3, "urls", 42)

	g := goldie.New(t)
	g.Assert(t, "info_attrs", buf.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("sync not scheduled\nlastEditedPropertyName is empty")

	g := goldie.New(t)
	g.Assert(t, "warn_multiline", buf.Bytes())
}

func TestLogger_Error_ZerrChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	root := errors.New("connection refused")
	err := zerr.Wrap(root, domain.ErrStoreReadFailed.Error())
	err = zerr.With(err, "backend", "redis")
	err = zerr.Wrap(err, "failed to classify url")
	err = zerr.With(err, "url", "https://example.com/a")

	lg.Error(err)

	g := goldie.New(t)
	g.Assert(t, "error_zerr_chain", buf.Bytes())
}

func TestLogger_Error_StdlibChain(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(fmt.Errorf("outer: %w", errors.New("inner")))

	assert.Equal(t, "✗ Error: outer: inner\n", buf.String())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	err := zerr.With(zerr.Wrap(errors.New("timeout"), "notion query failed"), "status", 502)
	lg.Error(err, "url", "https://example.com")

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"msg":"operation failed"`)
	assert.Contains(t, out, "notion query failed")
	assert.Contains(t, out, `"url":"https://example.com"`)
	assert.NotContains(t, out, "✗")

	buf.Reset()
	lg.SetJSON(false)
	lg.Error(errors.New("back to pretty"))
	assert.Equal(t, "✗ Error: back to pretty\n", buf.String())
}

func TestLogger_SetLevelSurvivesSetOutput(t *testing.T) {
	lg, _ := newTestLogger(t)
	lg.SetLevel(domain.LogWarn)

	buf := &bytes.Buffer{}
	lg.SetOutput(buf)
	lg.SetJSON(true)
	lg.Info("hidden")

	assert.Empty(t, buf.String())
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			switch i % 4 {
			case 0:
				lg.Info("concurrent info", "i", i)
			case 1:
				lg.Error(errors.New("concurrent error"))
			case 2:
				lg.SetJSON(i%8 == 2)
			default:
				lg.SetLevel(domain.LogDebug)
			}
		})
	}
	wg.Wait()
}

func TestLogger_New(t *testing.T) {
	require.NotNil(t, logger.New())
}
