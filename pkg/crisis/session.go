package crisis

import (
	"sync"
	"time"
)

// SessionTracker remembers recent concerning signals per session so that
// repeated distress inside a short window raises intervention urgency. A
// second moderate-or-worse message in the same session is a stronger signal
// than either message alone.
type SessionTracker struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string][]sessionEvent
}

type sessionEvent struct {
	at       time.Time
	severity Severity
}

func NewSessionTracker(window time.Duration) *SessionTracker {
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &SessionTracker{
		window: window,
		seen:   make(map[string][]sessionEvent),
	}
}

// Observe records a result for the session and reports whether this is a
// repeat concerning signal within the window. Sub-moderate severities are
// not tracked and never count as repeats.
func (t *SessionTracker) Observe(sessionID string, severity Severity) (repeat bool) {
	if sessionID == "" || severity.Rank() < SeverityModerate.Rank() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	events := t.seen[sessionID]

	kept := events[:0]
	for _, e := range events {
		if now.Sub(e.at) <= t.window {
			kept = append(kept, e)
		}
	}
	repeat = len(kept) > 0
	t.seen[sessionID] = append(kept, sessionEvent{at: now, severity: severity})

	// Opportunistic cleanup of sessions whose events all expired.
	if len(t.seen) > 1024 {
		for id, evs := range t.seen {
			live := false
			for _, e := range evs {
				if now.Sub(e.at) <= t.window {
					live = true
					break
				}
			}
			if !live {
				delete(t.seen, id)
			}
		}
	}
	return repeat
}
