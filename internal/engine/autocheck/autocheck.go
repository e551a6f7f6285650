// Package autocheck runs a reconciled check once a session has stayed on the same URL
// for the configured auto-check delay.
package autocheck

import (
	"context"
	"sync"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
)

// Checker runs a reconciled check of a URL.
type Checker interface {
	Reconcile(ctx context.Context, url string) (domain.Status, error)
}

// Manager keeps one cancellable timer per session. A session is anything that shows one
// URL at a time, such as a browser tab.
type Manager struct {
	checker Checker
	config  ports.ConfigStore
	logger  ports.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
	running  sync.WaitGroup
	stopped  bool
}

type session struct {
	url string
	// status is the last status observed for url; nil means unknown.
	status *domain.Status
	timer  *time.Timer
	// generation invalidates timers that fire after being replaced.
	generation uint64
}

// New creates a Manager. Checks run on a context that Stop cancels.
func New(checker Checker, config ports.ConfigStore, logger ports.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		checker:  checker,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
}

// Navigate records url as the session's current URL and restarts its timer.
func (m *Manager) Navigate(name, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	s, ok := m.sessions[name]
	if !ok {
		s = &session{}
		m.sessions[name] = s
	}
	if s.url != url {
		s.status = nil
	}
	s.url = url
	m.armLocked(name, s)
}

// Observe records the status last shown for the session. Statuses for another URL are ignored.
func (m *Manager) Observe(name string, status domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[name]
	if !ok || s.url != status.URL {
		return
	}
	s.status = &status
}

// Rearm restarts the session's timer with the full delay when url is still its current URL.
// It is called after a manual check.
func (m *Manager) Rearm(name, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	if s, ok := m.sessions[name]; ok && s.url == url {
		m.armLocked(name, s)
	}
}

// RearmAll restarts every session's timer, applying changed auto-check settings.
func (m *Manager) RearmAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	m.logger.Info("auto-check settings changed, re-arming timers", "sessions", len(m.sessions))
	for name, s := range m.sessions {
		m.armLocked(name, s)
	}
}

// Forget cancels the session's timer and drops the session.
func (m *Manager) Forget(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[name]; ok {
		stopTimer(s)
		delete(m.sessions, name)
	}
}

// Stop cancels every timer and running check and waits for running checks to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	for name, s := range m.sessions {
		stopTimer(s)
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	m.cancel()
	m.running.Wait()
}

func (m *Manager) armLocked(name string, s *session) {
	stopTimer(s)
	s.generation++

	cfg, err := m.config.Load()
	if err != nil {
		m.logger.Error(err, "session", name)
		return
	}
	wait := cfg.AutoCheckWait()
	if !cfg.AutoCheckEnabled || wait <= 0 {
		m.logger.Debug("auto-check disabled or no delay set", "session", name)
		return
	}

	url, generation := s.url, s.generation
	m.logger.Debug("auto-check timer started", "session", name, "url", url, "delay", wait.String())
	s.timer = time.AfterFunc(wait, func() {
		m.fire(name, url, generation)
	})
}

func (m *Manager) fire(name, url string, generation uint64) {
	m.mu.Lock()
	s, ok := m.sessions[name]
	if m.stopped || !ok || s.generation != generation {
		m.mu.Unlock()
		return
	}
	s.timer = nil
	if s.url != url {
		m.mu.Unlock()
		m.logger.Info("auto-check canceled, url has changed", "session", name, "url", url)
		return
	}
	status := domain.Status{State: domain.StateGray}
	if s.status != nil {
		status = *s.status
	}
	m.running.Add(1)
	m.mu.Unlock()
	defer m.running.Done()

	if !m.shouldCheck(name, url, status) {
		return
	}

	m.logger.Info("auto-check performing reconciled check", "session", name, "url", url)
	result, err := m.checker.Reconcile(m.ctx, url)
	if err != nil {
		m.logger.Debug("auto-check not run", "session", name, "url", url, "reason", err.Error())
		return
	}
	m.Observe(name, result)
}

func (m *Manager) shouldCheck(name, url string, status domain.Status) bool {
	if status.DomainExcluded {
		m.logger.Info("auto-check skipped, domain is excluded by rules", "session", name, "url", url)
		return false
	}

	cfg, err := m.config.Load()
	if err != nil {
		m.logger.Error(err, "session", name)
		return false
	}
	if !cfg.AutoCheckStates.Enabled(status.State) {
		m.logger.Info("auto-check skipped, state not enabled for checking",
			"session", name, "url", url, "state", status.State)
		return false
	}
	return true
}

func stopTimer(s *session) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
