package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Target identifies the database and properties a remote query runs against.
type Target struct {
	Token          string
	DatabaseID     string
	URLProperty    string
	EditedProperty string
}

// Record is a database entry returned by the remote store.
type Record struct {
	// ID is the record identifier.
	ID string
	// URL is the value of the configured URL property; empty when unset.
	URL string
	// PageURL links to the record itself.
	PageURL string
}

// PageQuery selects one page of records.
type PageQuery struct {
	Cursor string
	// EditedSince restricts the query to records edited at or after this time. Zero means all records.
	EditedSince time.Time
}

// RecordPage is one page of a paginated query.
type RecordPage struct {
	Records    []Record
	HasMore    bool
	NextCursor string
}

// LookupError is returned by the remote store for non-2xx responses.
type LookupError struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *LookupError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("notion api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("notion api error: %d %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether err carries a 401 from the remote store.
func IsAuthError(err error) bool {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.StatusCode == http.StatusUnauthorized
	}
	return errors.Is(err, ErrAuthFailed)
}

// SyncResult reports the outcome of a full or delta sync.
type SyncResult struct {
	Success        bool   `json:"success"`
	Full           bool   `json:"full"`
	PagesProcessed int    `json:"pagesProcessed"`
	URLsUpdated    int    `json:"urlsUpdated"`
	Error          string `json:"error,omitempty"`
}
