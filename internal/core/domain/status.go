package domain

import (
	"fmt"
	"time"
)

// State is the classification of a URL as shown to the user.
type State string

const (
	// StateGray means unknown: checking, excluded, unconfigured or failed.
	StateGray State = "GRAY"
	// StateGreen means the URL is present in the database.
	StateGreen State = "GREEN"
	// StateOrange means related URLs are present in the database.
	StateOrange State = "ORANGE"
	// StateRed means the URL is not present in the database.
	StateRed State = "RED"
)

// Cacheable reports whether entries with this state may be stored in the classification cache.
func (s State) Cacheable() bool {
	return s == StateGreen || s == StateOrange || s == StateRed
}

// Status texts used when a status is published without an explicit text.
const (
	TextFound          = "URL found in Notion."
	TextNotFound       = "URL not found in Notion."
	TextExcluded       = "URL excluded by domain rules."
	TextChecking       = "Checking status..."
	TextCheckingRemote = "Checking with Notion..."
	TextNoURL          = "No URL available"
	TextUnclear        = "Cached status unclear. Click icon to check Notion."
	TextAggressiveFail = "Aggressive cache check failed. Click icon."
	TextUnavailable    = "Status not available"

	ErrTextNotConfigured = "Extension not configured."
	ErrTextAuthFailed    = "Notion Authentication Failed."
	ErrTextSyncAuth      = "Authentication failed during sync."
)

// Status is a classification result handed to the UI collaborator.
type Status struct {
	State               State     `json:"state"`
	Text                string    `json:"text"`
	URL                 string    `json:"url,omitempty"`
	MatchingURLs        []string  `json:"matchingUrls,omitempty"`
	CanonicalURL        string    `json:"canonicalUrl,omitempty"`
	NotionPageURL       string    `json:"notionPageUrl,omitempty"`
	Error               string    `json:"error,omitempty"`
	DomainExcluded      bool      `json:"domainExcluded,omitempty"`
	NeedsAuthentication bool      `json:"needsAuthentication,omitempty"`
	Provisional         bool      `json:"provisional,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// Stamp sets the timestamp and fills in the default text for the state when none was given.
func (s Status) Stamp(now time.Time) Status {
	s.Timestamp = now
	if s.Text != "" {
		return s
	}

	switch s.State {
	case StateGreen:
		s.Text = TextFound
	case StateRed:
		if s.DomainExcluded {
			s.Text = TextExcluded
		} else {
			s.Text = TextNotFound
		}
	case StateOrange:
		s.Text = fmt.Sprintf("Found %d similar URLs.", len(s.MatchingURLs))
	case StateGray:
		switch {
		case s.Error != "":
			s.Text = "Error: " + s.Error
		case s.DomainExcluded:
			s.Text = TextExcluded
		default:
			s.Text = TextChecking
		}
	}
	return s
}

// UnavailableStatus is reported when no classification has been published yet.
func UnavailableStatus() Status {
	return Status{State: StateGray, Text: TextUnavailable}
}
