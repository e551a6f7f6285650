package config

import "time"

// Debouncer exposes the file event debouncer for tests.
type Debouncer = debouncer

// NewDebouncer exposes newDebouncer for tests.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return newDebouncer(window, callback)
}
