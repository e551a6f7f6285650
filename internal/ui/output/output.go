// Package output picks the termenv color profiles used by the CLI renderers.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Profile returns the color profile for result output. Uncolored modes and NO_COLOR
// yield Ascii; otherwise the terminal's capabilities apply.
func Profile(colored bool) termenv.Profile {
	if !colored || noColor() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// NoticeProfile returns the profile for notices on stderr. They keep basic ANSI colors
// in CI logs unless NO_COLOR is set.
func NoticeProfile() termenv.Profile {
	if noColor() {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// New creates a termenv.Output writing to w with profile. A nil w writes to stderr.
func New(w io.Writer, profile termenv.Profile) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(profile), termenv.WithTTY(true))
}

func noColor() bool {
	return os.Getenv("NO_COLOR") != ""
}
