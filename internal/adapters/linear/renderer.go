// Package linear renders classification results as status lines or JSON documents.
package linear

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/adapters/detector"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/ui/output"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/ui/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Renderer writes results to stdout and notices to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	mode   detector.OutputMode
	output *termenv.Output
	styles *lipgloss.Renderer

	mu sync.Mutex
}

// NewRenderer creates a Renderer for mode. ModeAuto is resolved against the environment.
func NewRenderer(stdout, stderr io.Writer, mode detector.OutputMode) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if mode == detector.ModeAuto {
		mode = detector.DetectEnvironment()
	}

	styles := lipgloss.NewRenderer(stdout)
	styles.SetColorProfile(output.Profile(mode == detector.ModePretty))

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		output: output.New(stderr, output.NoticeProfile()),
		styles: styles,
	}
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() detector.OutputMode {
	return r.mode
}

// Status prints a classification status.
func (r *Renderer) Status(s domain.Status) error {
	if r.mode == detector.ModeJSON {
		return r.json(s)
	}

	var b strings.Builder
	b.WriteString(r.badge(s.State))
	b.WriteString(" ")
	b.WriteString(s.Text)
	if s.Provisional {
		b.WriteString(" (provisional)")
	}
	b.WriteString("\n")

	r.detail(&b, "url", s.URL)
	r.detail(&b, "canonical", s.CanonicalURL)
	r.detail(&b, "notion", s.NotionPageURL)
	for _, u := range s.MatchingURLs {
		r.detail(&b, "match", u)
	}
	if s.NeedsAuthentication {
		r.detail(&b, "action", "re-authenticate with notionstatus config set integrationToken <token>")
	}
	return r.write(b.String())
}

// Entry prints a single cache entry. A nil entry reports a miss for url.
func (r *Renderer) Entry(url string, entry *domain.CacheEntry, now time.Time, ttl time.Duration) error {
	if entry == nil {
		if r.mode == detector.ModeJSON {
			return r.json(map[string]any{"url": url, "cached": false})
		}
		return r.write(fmt.Sprintf("no cache entry for %s\n", url))
	}
	return r.Entries([]domain.CacheEntry{*entry}, now, ttl)
}

type entryView struct {
	domain.CacheEntry
	WrittenAt string `json:"writtenAt"`
	Expired   bool   `json:"expired"`
}

// Entries prints cache entries, flagging expired ones.
func (r *Renderer) Entries(entries []domain.CacheEntry, now time.Time, ttl time.Duration) error {
	if r.mode == detector.ModeJSON {
		views := make([]entryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, entryView{
				CacheEntry: e,
				WrittenAt:  e.WrittenAt().UTC().Format(time.RFC3339),
				Expired:    e.Expired(now, ttl),
			})
		}
		return r.json(views)
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(r.badge(e.Status))
		b.WriteString(" ")
		b.WriteString(e.URL)
		b.WriteString(" ")
		b.WriteString(r.muted(e.WrittenAt().UTC().Format(time.RFC3339)))
		if e.Expired(now, ttl) {
			b.WriteString(" ")
			b.WriteString(r.muted("expired"))
		}
		b.WriteString("\n")

		r.detail(&b, "canonical", e.CanonicalURL)
		r.detail(&b, "notion", e.NotionPageURL)
		for _, u := range e.MatchingURLs {
			r.detail(&b, "match", u)
		}
	}
	return r.write(b.String())
}

// Rules prints how the domain rules apply to a URL and which URLs a check would probe.
func (r *Renderer) Rules(report domain.RulesReport) error {
	if r.mode == detector.ModeJSON {
		return r.json(report)
	}

	var b strings.Builder
	if report.Excluded {
		b.WriteString(r.badge(domain.StateGray))
		b.WriteString(" " + domain.TextExcluded + "\n")
	} else {
		fmt.Fprintf(&b, "%s rule %s, match level %s\n", r.badge(domain.StateGray), report.Rule, report.MatchLevel)
	}
	r.detail(&b, "url", report.URL)
	r.detail(&b, "domain", report.Domain)
	for _, v := range report.Variants {
		r.detail(&b, "variant", v)
	}
	for _, a := range report.Ancestors {
		r.detail(&b, "ancestor", a)
	}
	return r.write(b.String())
}

// Sync prints the outcome of a sync run.
func (r *Renderer) Sync(result domain.SyncResult) error {
	if r.mode == detector.ModeJSON {
		return r.json(result)
	}

	kind := "Delta"
	if result.Full {
		kind = "Full"
	}
	if !result.Success {
		return r.write(fmt.Sprintf("%s %s sync failed: %s\n", r.badge(domain.StateRed), kind, result.Error))
	}
	return r.write(fmt.Sprintf("%s %s sync completed: %d records processed, %d URLs updated\n",
		r.badge(domain.StateGreen), kind, result.PagesProcessed, result.URLsUpdated))
}

// Value prints a raw value, such as a config setting. Composite values are printed as compact JSON.
func (r *Renderer) Value(v any) error {
	if r.mode == detector.ModeJSON {
		return r.json(v)
	}
	return r.write(scalar(v) + "\n")
}

// Settings prints key/value pairs in the order of keys.
func (r *Renderer) Settings(keys []string, values map[string]any) error {
	if r.mode == detector.ModeJSON {
		return r.json(values)
	}

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %s\n", r.muted(k+":"), scalar(values[k]))
	}
	return r.write(b.String())
}

// Notice prints an informational message to stderr.
func (r *Renderer) Notice(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", symbol, fmt.Sprintf(format, args...))
}

func (r *Renderer) badge(state domain.State) string {
	label := string(state)
	if r.mode != detector.ModePretty {
		return "[" + label + "]"
	}
	return style.Badge(r.styles, style.ForState(state)).Render(label)
}

func (r *Renderer) muted(s string) string {
	if r.mode != detector.ModePretty {
		return s
	}
	return style.Muted(r.styles).Render(s)
}

func (r *Renderer) detail(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s %s\n", r.muted(key+":"), value)
}

func (r *Renderer) json(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	enc := json.NewEncoder(r.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) write(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := io.WriteString(r.stdout, s)
	return err
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String, reflect.Bool, reflect.Int, reflect.Int64, reflect.Float64:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
