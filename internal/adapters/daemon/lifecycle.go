package daemon

import (
	"sync"
	"time"
)

// Activity is a snapshot of what the HTTP service has been doing.
type Activity struct {
	Started       time.Time
	LastRequest   time.Time
	Requests      int64
	Streams       int
	IdleRemaining time.Duration
}

// Lifecycle decides when an idle HTTP service stops. Requests restart the idle
// window; open event streams suspend it until the last one detaches.
type Lifecycle struct {
	mu       sync.Mutex
	idle     time.Duration
	timer    *time.Timer
	activity Activity

	done     chan struct{}
	stopOnce sync.Once
}

// NewLifecycle returns a Lifecycle that stops after idle without requests.
// A non-positive idle keeps the service running until Stop is called.
func NewLifecycle(idle time.Duration) *Lifecycle {
	now := time.Now()
	l := &Lifecycle{
		idle:     idle,
		activity: Activity{Started: now, LastRequest: now},
		done:     make(chan struct{}),
	}
	if idle > 0 {
		l.timer = time.AfterFunc(idle, l.expire)
	}
	return l
}

// Touch records a request.
func (l *Lifecycle) Touch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activity.Requests++
	l.activity.LastRequest = time.Now()
	l.rearm()
}

// Attach registers an open event stream. The returned func detaches it and is safe to call more than once.
func (l *Lifecycle) Attach() (detach func()) {
	l.mu.Lock()
	l.activity.Streams++
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.activity.Streams--
			l.activity.LastRequest = time.Now()
			l.rearm()
		})
	}
}

// Activity returns the current snapshot.
func (l *Lifecycle) Activity() Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.activity
	if l.timer != nil && a.Streams == 0 {
		a.IdleRemaining = max(l.idle-time.Since(a.LastRequest), 0)
	}
	return a
}

// Uptime returns how long the service has been running.
func (l *Lifecycle) Uptime() time.Duration {
	return time.Since(l.activity.Started)
}

// Done is closed once the service should stop.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// Stop ends the lifecycle immediately.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()
	l.expire()
}

// rearm restarts the idle window unless a stream is attached. Callers hold mu.
func (l *Lifecycle) rearm() {
	if l.timer == nil || l.activity.Streams > 0 {
		return
	}
	l.timer.Reset(l.idle)
}

func (l *Lifecycle) expire() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}
