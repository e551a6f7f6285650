package urls

import (
	"net/url"
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
)

// ResolveRule returns the first rule of rules that applies to raw.
//
// Web URLs are matched by hostname, any other scheme by the scheme token itself,
// so a rule for "chrome" covers every chrome:// page. A URL that cannot be parsed
// resolves to the default, keeping inference enabled.
func ResolveRule(raw string, rules []domain.DomainRule) domain.RuleResolution {
	key, ok := LookupKey(raw)
	if !ok {
		return domain.DefaultResolution()
	}

	for i := range rules {
		if !rules[i].Matches(key) {
			continue
		}

		rule := rules[i]
		if rule.MatchLevel == domain.MatchDisabled {
			return domain.DisabledResolution(&rule)
		}
		return domain.RuleResolution{
			Kind:           domain.RuleResolved,
			MatchLevel:     rule.MatchLevel,
			Rule:           &rule,
			AllowsPartials: rule.MatchLevel.AllowsPartials(),
		}
	}

	return domain.DefaultResolution()
}

// LookupKey returns the lower-cased key domain rules are matched against.
// It reports false when raw cannot be parsed or carries neither a scheme nor a host.
func LookupKey(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return "", false
	}
	if scheme != schemeHTTP && scheme != schemeHTTPS {
		return scheme, true
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}
