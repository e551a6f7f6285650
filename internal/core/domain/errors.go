package domain

import "go.trai.ch/zerr"

var (
	// ErrNotConfigured is returned when the Notion credentials, database or URL property are missing.
	ErrNotConfigured = zerr.New("extension not configured")

	// ErrSyncNotConfigured is returned when a sync is requested without the properties it needs.
	ErrSyncNotConfigured = zerr.New("extension not fully configured for sync")

	// ErrAuthFailed is returned when the remote store rejects the integration token.
	ErrAuthFailed = zerr.New("notion authentication failed")

	// ErrNeedsAuthentication is returned while a rejected token has not been replaced.
	ErrNeedsAuthentication = zerr.New("notion authentication required")

	// ErrLookupFailed is returned when a query against the remote store fails.
	ErrLookupFailed = zerr.New("notion query failed")

	// ErrInvalidURL is returned when a URL cannot be parsed.
	ErrInvalidURL = zerr.New("invalid url")

	// ErrEmptyURL is returned when a classification is requested without a URL.
	ErrEmptyURL = zerr.New("no url available")

	// ErrAlreadyInFlight is returned when a URL is already being classified and the request was dropped.
	ErrAlreadyInFlight = zerr.New("url is already being checked")

	// ErrUnknownMatchLevel is returned when a domain rule names a match level that does not exist.
	ErrUnknownMatchLevel = zerr.New("unknown match level")

	// ErrStoreCreateFailed is returned when the key/value store cannot be opened or created.
	ErrStoreCreateFailed = zerr.New("failed to create key/value store")

	// ErrStoreReadFailed is returned when a value cannot be read from the key/value store.
	ErrStoreReadFailed = zerr.New("failed to read from key/value store")

	// ErrStoreWriteFailed is returned when a value cannot be written to the key/value store.
	ErrStoreWriteFailed = zerr.New("failed to write to key/value store")

	// ErrStoreDeleteFailed is returned when a key cannot be removed from the key/value store.
	ErrStoreDeleteFailed = zerr.New("failed to delete from key/value store")

	// ErrStoreUnmarshalFailed is returned when a cache entry cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal cache entry")

	// ErrStoreMarshalFailed is returned when a cache entry cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal cache entry")

	// ErrUnknownStoreBackend is returned when the configured store backend is not supported.
	ErrUnknownStoreBackend = zerr.New("unknown store backend")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigWriteFailed is returned when the config file cannot be written.
	ErrConfigWriteFailed = zerr.New("failed to write config file")

	// ErrConfigInvalid is returned when the configuration fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrInvalidDatabaseID is returned when the configured database id is not a Notion id.
	ErrInvalidDatabaseID = zerr.New("database id must be a 32 character Notion id")

	// ErrUnknownConfigKey is returned when a config key cannot be set from the command line.
	ErrUnknownConfigKey = zerr.New("unknown config key")

	// ErrServerFailed is returned when the local HTTP service stops unexpectedly.
	ErrServerFailed = zerr.New("http server failed")

	// ErrSyncFailed is returned by the CLI after a failed sync has been reported.
	ErrSyncFailed = zerr.New("sync failed")
)
