package domain

import "strings"

// MatchLevel controls how relatedness is inferred for a domain.
type MatchLevel string

// Match levels a domain rule may select.
const (
	MatchDisabled       MatchLevel = "disabled"
	MatchExactURL       MatchLevel = "exact_url"
	MatchDomainPartials MatchLevel = "domain_partials"
	MatchPath1Partials  MatchLevel = "path1_partials"
	MatchPath2Partials  MatchLevel = "path2_partials"
	MatchPath3Partials  MatchLevel = "path3_partials"
	MatchCustomExact    MatchLevel = "custom_exact"
	MatchCustomPartials MatchLevel = "custom_partials"
)

// MatchLevels lists every known match level in the order the settings page offers them.
var MatchLevels = []MatchLevel{
	MatchDisabled,
	MatchExactURL,
	MatchDomainPartials,
	MatchPath1Partials,
	MatchPath2Partials,
	MatchPath3Partials,
	MatchCustomExact,
	MatchCustomPartials,
}

// Known reports whether l is one of the defined match levels.
func (l MatchLevel) Known() bool {
	for _, known := range MatchLevels {
		if l == known {
			return true
		}
	}
	return false
}

// AllowsPartials reports whether ancestors may be probed for this level.
func (l MatchLevel) AllowsPartials() bool {
	return l != MatchExactURL && l != MatchCustomExact
}

// PathDepth returns N for pathN_partials levels.
func (l MatchLevel) PathDepth() (int, bool) {
	switch l {
	case MatchPath1Partials:
		return 1, true
	case MatchPath2Partials:
		return 2, true
	case MatchPath3Partials:
		return 3, true
	default:
		return 0, false
	}
}

// DomainRule is a user-authored rule applied to a hostname, its sub-domains, or a URL scheme.
type DomainRule struct {
	Domain     string     `yaml:"domain" mapstructure:"domain" json:"domain" validate:"required"`
	MatchLevel MatchLevel `yaml:"matchLevel" mapstructure:"matchLevel" json:"matchLevel" validate:"required,matchlevel"`
	Pattern    string     `yaml:"pattern,omitempty" mapstructure:"pattern" json:"pattern,omitempty" validate:"required_if=MatchLevel custom_partials"`
}

// Matches reports whether the rule applies to the lookup key (a lower-cased hostname or scheme).
func (r DomainRule) Matches(key string) bool {
	domain := strings.ToLower(strings.TrimSpace(r.Domain))
	if domain == "" || key == "" {
		return false
	}
	return key == domain || strings.HasSuffix(key, "."+domain)
}

// RuleKind tags the outcome of a domain rule resolution.
type RuleKind int

const (
	// RuleDefault means no rule matched; domain-level inference applies.
	RuleDefault RuleKind = iota
	// RuleDisabled means a rule turned matching off; the URL must not be probed.
	RuleDisabled
	// RuleResolved means a rule matched and selected a match level.
	RuleResolved
)

// String returns the kind name used in logs.
func (k RuleKind) String() string {
	switch k {
	case RuleDisabled:
		return "disabled"
	case RuleResolved:
		return "resolved"
	default:
		return "default"
	}
}

// RuleResolution is the outcome of resolving the domain rules for a URL.
type RuleResolution struct {
	Kind           RuleKind
	MatchLevel     MatchLevel
	Rule           *DomainRule
	AllowsPartials bool
}

// DefaultResolution is used when no rule matches or the URL cannot be parsed.
func DefaultResolution() RuleResolution {
	return RuleResolution{
		Kind:           RuleDefault,
		MatchLevel:     MatchDomainPartials,
		AllowsPartials: true,
	}
}

// DisabledResolution is returned for URLs excluded by a disabled rule.
func DisabledResolution(rule *DomainRule) RuleResolution {
	return RuleResolution{Kind: RuleDisabled, MatchLevel: MatchDisabled, Rule: rule}
}

// Disabled reports whether the URL is excluded from matching.
func (r RuleResolution) Disabled() bool {
	return r.Kind == RuleDisabled
}

// MatchOnlySelf reports whether only the URL's own variants may be probed.
func (r RuleResolution) MatchOnlySelf() bool {
	return r.Kind == RuleResolved && !r.AllowsPartials
}

// RulesReport describes how the domain rules apply to a URL and which URLs a check would probe.
type RulesReport struct {
	URL            string     `json:"url"`
	Excluded       bool       `json:"excluded"`
	Rule           string     `json:"rule"`
	MatchLevel     MatchLevel `json:"matchLevel"`
	Domain         string     `json:"domain,omitempty"`
	AllowsPartials bool       `json:"allowsPartials"`
	Variants       []string   `json:"variants"`
	Ancestors      []string   `json:"ancestors"`
}

// NewRulesReport builds the report for url. Nil URL lists become empty ones.
func NewRulesReport(url string, res RuleResolution, variants, ancestors []string) RulesReport {
	report := RulesReport{
		URL:            url,
		Excluded:       res.Disabled(),
		Rule:           res.Kind.String(),
		MatchLevel:     res.MatchLevel,
		AllowsPartials: res.AllowsPartials,
		Variants:       variants,
		Ancestors:      ancestors,
	}
	if res.Rule != nil {
		report.Domain = res.Rule.Domain
	}
	if report.Variants == nil {
		report.Variants = []string{}
	}
	if report.Ancestors == nil {
		report.Ancestors = []string{}
	}
	return report
}
