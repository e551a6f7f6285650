// Package domain contains the core types of the URL classification engine.
package domain

import (
	"slices"
	"time"
)

// Key prefixes and fixed keys used in the key/value store.
const (
	// CacheKeyPrefix prefixes every classification cache entry.
	CacheKeyPrefix = "urlCache:"
	// LastSyncKey holds the unix millisecond timestamp of the last successful sync.
	LastSyncKey = "lastSyncTimestamp"
	// CurrentStatusKey holds the last published status.
	CurrentStatusKey = "currentStatus"
)

// CacheKey returns the key/value store key for a cached URL.
func CacheKey(url string) string {
	return CacheKeyPrefix + url
}

// CacheEntry is a cached classification for a single URL string.
type CacheEntry struct {
	// URL is the key the entry is stored under.
	URL    string `json:"url"`
	Status State  `json:"status"`
	// Timestamp is the write time in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
	// CanonicalURL is the record's authoritative URL (GREEN only).
	CanonicalURL string `json:"canonicalUrl,omitempty"`
	// NotionPageURL links to the matching record (GREEN only).
	NotionPageURL string `json:"notionPageUrl,omitempty"`
	// MatchingURLs lists related URLs present in the database (ORANGE only).
	MatchingURLs []string `json:"matchingUrls,omitempty"`
}

// WrittenAt returns the entry timestamp as a time.Time.
func (e *CacheEntry) WrittenAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Expired reports whether the entry must be treated as a cache miss.
// Only GREEN entries expire; RED and ORANGE entries live until overwritten or removed.
func (e *CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	if e.Status != StateGreen {
		return false
	}
	return now.Sub(e.WrittenAt()) >= ttl
}

// EntryDetails carries the optional fields of a cache write.
type EntryDetails struct {
	CanonicalURL  string
	NotionPageURL string
	MatchingURLs  []string
}

// NewCacheEntry builds an entry for url stamped with now.
func NewCacheEntry(url string, status State, details EntryDetails, now time.Time) CacheEntry {
	return CacheEntry{
		URL:           url,
		Status:        status,
		Timestamp:     now.UnixMilli(),
		CanonicalURL:  details.CanonicalURL,
		NotionPageURL: details.NotionPageURL,
		MatchingURLs:  slices.Clone(details.MatchingURLs),
	}
}
