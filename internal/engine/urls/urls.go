// Package urls generates the URL strings probed when classifying a page:
// equivalent variants, the domain rule that applies, and the broader ancestors.
package urls

import (
	"net/url"
	"slices"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
	wwwPrefix   = "www."
	localhost   = "localhost"
)

// Parts is the normalized form of a web URL used for prefix comparisons.
type Parts struct {
	// Hostname is the lower-cased host without port.
	Hostname string
	// Path is the escaped path; "/" when the URL has none.
	Path string
	// Href is the scheme, host, path and query without fragment.
	Href string
}

// Split parses raw into Parts. It reports false when raw has no scheme or host.
func Split(raw string) (Parts, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Parts{}, false
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	href := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + path
	if u.RawQuery != "" {
		href += "?" + u.RawQuery
	}

	return Parts{
		Hostname: strings.ToLower(u.Hostname()),
		Path:     path,
		Href:     href,
	}, true
}

// Variants returns the ordered, de-duplicated set of URL strings considered the same page as raw.
// The result is never empty; URLs that are not http(s) or cannot be parsed are returned unchanged.
func Variants(raw string) []string {
	u, ok := parseWeb(raw)
	if !ok {
		return []string{raw}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	host := strings.ToLower(u.Host)
	hosts := []string{host}
	if rest, found := strings.CutPrefix(host, wwwPrefix); found {
		hosts = append(hosts, rest)
	} else if strings.Contains(u.Hostname(), ".") {
		hosts = append(hosts, wwwPrefix+host)
	}

	// The root is reachable with and without its slash.
	paths := []string{path}
	if path == "/" {
		paths = append(paths, "")
	}

	candidates := make([]string, 0, 4*len(hosts)+2)
	for _, h := range hosts {
		for _, scheme := range []string{schemeHTTPS, schemeHTTP} {
			for _, p := range paths {
				candidates = append(candidates, scheme+"://"+h+p)
			}
		}
	}

	sansFragment, _, _ := strings.Cut(raw, "#")
	trimmed := strings.TrimSuffix(sansFragment, "/")
	if trimmed == "" {
		trimmed = "/"
	}
	candidates = append(candidates, trimmed, sansFragment)

	allowBare := strings.EqualFold(u.Hostname(), localhost)
	variants := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if slices.Contains(variants, c) {
			continue
		}
		if !allowBare && !hostHasDot(c) {
			continue
		}
		variants = append(variants, c)
	}

	if len(variants) == 0 {
		return []string{raw}
	}
	return variants
}

// Probe returns the union of variants and ancestors in order, without duplicates.
func Probe(variants, ancestors []string) []string {
	probe := make([]string, 0, len(variants)+len(ancestors))
	for _, group := range [][]string{variants, ancestors} {
		for _, u := range group {
			if !slices.Contains(probe, u) {
				probe = append(probe, u)
			}
		}
	}
	return probe
}

// parseWeb parses raw and reports whether it is an http(s) URL with a host.
func parseWeb(raw string) (*url.URL, bool) {
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != schemeHTTP && scheme != schemeHTTPS {
		return nil, false
	}
	return u, true
}

func hostHasDot(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return strings.Contains(u.Hostname(), ".")
}

// segments splits an escaped path into its non-empty segments.
func segments(path string) []string {
	parts := strings.Split(path, "/")
	return slices.DeleteFunc(parts, func(s string) bool { return s == "" })
}
