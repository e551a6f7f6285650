package urls

import (
	"net/url"
	"slices"
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
)

const (
	wildcardOne  = "*"
	wildcardRest = "**"
)

// Ancestors returns the broader URLs probed to infer that raw is related to a stored record.
//
// The result is empty when the resolution disables matching or forbids partial matches,
// and when raw cannot be parsed.
func Ancestors(raw string, res domain.RuleResolution) []string {
	if res.Disabled() || !res.AllowsPartials {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	root := rootOf(u)
	segs := segments(u.EscapedPath())

	if res.Kind == domain.RuleDefault {
		return genericChain(root, segs)
	}

	switch res.MatchLevel {
	case domain.MatchExactURL, domain.MatchCustomExact:
		return nil
	case domain.MatchDomainPartials:
		return []string{root}
	case domain.MatchPath1Partials, domain.MatchPath2Partials, domain.MatchPath3Partials:
		depth, _ := res.MatchLevel.PathDepth()
		return pathPrefixes(root, segs, depth)
	case domain.MatchCustomPartials:
		if res.Rule == nil || res.Rule.Pattern == "" {
			return []string{root}
		}
		return expand(u, res.Rule.Pattern)
	default:
		return []string{root}
	}
}

// ExpandPattern applies a custom rule pattern to raw.
//
// "*" copies the URL segment at the same position and "**" copies every remaining
// segment. Anything else is literal, so "repo*" stays "repo*". An optional query
// template after "?" substitutes "name=*" with the URL's value for name.
// The domain root follows the expansion whenever the expanded path is not "/" or a query was produced.
func ExpandPattern(raw, pattern string) []string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	if pattern == "" {
		return []string{rootOf(u)}
	}
	return expand(u, pattern)
}

func expand(u *url.URL, pattern string) []string {
	root := rootOf(u)
	pathTemplate, queryTemplate, _ := strings.Cut(pattern, "?")

	path := expandPath(segments(pathTemplate), segments(u.EscapedPath()))
	query := expandQuery(queryTemplate, u.Query())

	expanded := root + path
	if query != "" {
		expanded += "?" + query
	}

	out := []string{expanded}
	if (path != "/" || query != "") && expanded != root {
		out = append(out, root)
	}
	return out
}

func expandPath(template, segs []string) string {
	if len(template) == 0 {
		return ""
	}

	result := make([]string, 0, len(template))
walk:
	for i, part := range template {
		switch part {
		case wildcardOne:
			if i >= len(segs) {
				break walk
			}
			result = append(result, segs[i])
		case wildcardRest:
			if i < len(segs) {
				result = append(result, segs[i:]...)
			}
			break walk
		default:
			result = append(result, part)
		}
	}
	return "/" + strings.Join(result, "/")
}

func expandQuery(template string, values url.Values) string {
	if template == "" || !strings.Contains(template, wildcardOne) {
		return template
	}

	pairs := strings.Split(template, "&")
	for i, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || value != wildcardOne {
			continue
		}
		if _, ok := values[name]; ok {
			pairs[i] = name + "=" + values.Get(name)
		}
	}
	return strings.Join(pairs, "&")
}

// genericChain walks from the parent of the full path up to the domain root.
// A single-segment path yields only the root.
func genericChain(root string, segs []string) []string {
	n := len(segs)
	out := make([]string, 0, n+1)
	for i := n - 1; i >= 0; i-- {
		path := "/" + strings.Join(segs[:i], "/")
		if path == "/" && n <= 1 {
			continue
		}
		out = appendUnique(out, root+path)
	}
	if n > 0 {
		out = appendUnique(out, root)
	}
	return out
}

// pathPrefixes emits the prefixes of up to depth segments, longest first, ending with the root.
func pathPrefixes(root string, segs []string, depth int) []string {
	out := make([]string, 0, depth+1)
	for i := depth; i >= 0; i-- {
		if len(segs) < i {
			continue
		}
		if i == 0 {
			out = appendUnique(out, root)
			continue
		}
		out = appendUnique(out, root+"/"+strings.Join(segs[:i], "/"))
	}
	return out
}

func rootOf(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

func appendUnique(out []string, s string) []string {
	if slices.Contains(out, s) {
		return out
	}
	return append(out, s)
}
