package presence

import (
	"log/slog"
	"time"

	"github.com/timbits/carp/internal/discord"
)

// ///////////////////////////////////////////////
// Transport
// ///////////////////////////////////////////////

// Transport is the Discord connection the session drives. *discord.Client
// satisfies it; tests substitute a fake.
type Transport interface {
	Connect() error
	Connected() bool
	SetActivity(activity *discord.Activity) error
	ClearActivity() error
	Close() error
}

// ///////////////////////////////////////////////
// Status
// ///////////////////////////////////////////////

// Status is the session's connection state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusHandshaking
	StatusConnected
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusHandshaking:
		return "handshaking"
	case StatusConnected:
		return "connected"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ///////////////////////////////////////////////
// Session
// ///////////////////////////////////////////////

// Session owns the relationship between resolved presences and the
// Discord connection. Each Tick it reconciles the desired presence with
// what Discord last saw: connecting (with exponential backoff) when
// something should be shown, re-sending only when the presence changed,
// and clearing when nothing matches.
//
// Session is not safe for concurrent use; the scheduler loop is its only
// caller.
type Session struct {
	transport Transport

	minBackoff time.Duration
	maxBackoff time.Duration

	// now is the clock, injectable for tests.
	now func() time.Time

	status      Status
	backoff     time.Duration
	nextAttempt time.Time

	// lastSent is the presence Discord currently shows, nil when clear.
	lastSent *Resolved
	// activeProcess and activitySince anchor the elapsed-time display.
	// The anchor holds steady while the same process stays active, even
	// across text changes and reconnects.
	activeProcess string
	activitySince time.Time
}

// NewSession creates a session driving the given transport. Backoff after
// a failed connect starts at min and doubles up to max.
func NewSession(transport Transport, min, max time.Duration) *Session {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = min
	}
	return &Session{
		transport:  transport,
		minBackoff: min,
		maxBackoff: max,
		now:        time.Now,
		backoff:    min,
	}
}

// Status returns the current connection state.
func (s *Session) Status() Status {
	return s.status
}

// Tick reconciles the desired presence with Discord. A nil res means no
// target matched and any shown presence should be cleared. Errors are
// absorbed into the state machine: a failed connect or send schedules a
// retry rather than propagating.
func (s *Session) Tick(res *Resolved) {
	if s.status == StatusClosed {
		return
	}

	if !s.transport.Connected() {
		if s.status == StatusConnected {
			slog.Warn("discord connection lost")
		}
		s.status = StatusDisconnected
		s.lastSent = nil

		// Nothing to show: stay idle instead of holding a connection open.
		if res == nil {
			return
		}
		if !s.connect() {
			return
		}
	}

	if res == nil {
		s.clear()
		return
	}

	if res.Process != s.activeProcess {
		s.activeProcess = res.Process
		s.activitySince = s.now()
	}

	if res.Equal(s.lastSent) {
		return
	}

	if err := s.transport.SetActivity(res.activity(s.activitySince)); err != nil {
		slog.Warn("failed to set activity", "process", res.Process, "error", err)
		s.noteFailure()
		return
	}
	slog.Info("presence updated", "process", res.Process, "details", res.Details)
	s.lastSent = res
}

// Close clears any shown presence and shuts the transport down. The
// session accepts no further ticks.
func (s *Session) Close() {
	if s.status == StatusClosed {
		return
	}
	if s.transport.Connected() && s.lastSent != nil {
		// Best effort: Discord drops the presence on disconnect anyway.
		if err := s.transport.ClearActivity(); err != nil {
			slog.Debug("failed to clear activity on shutdown", "error", err)
		}
	}
	if err := s.transport.Close(); err != nil {
		slog.Debug("failed to close discord connection", "error", err)
	}
	s.status = StatusClosed
	s.lastSent = nil
}

// connect attempts the handshake, honoring the backoff window. Returns
// true when the session ends up connected.
func (s *Session) connect() bool {
	if s.now().Before(s.nextAttempt) {
		return false
	}

	s.status = StatusHandshaking
	if err := s.transport.Connect(); err != nil {
		slog.Debug("discord unavailable", "error", err, "retry_in", s.backoff)
		s.status = StatusDisconnected
		s.nextAttempt = s.now().Add(s.backoff)
		s.backoff = min(s.backoff*2, s.maxBackoff)
		return false
	}

	slog.Info("connected to discord")
	s.status = StatusConnected
	s.backoff = s.minBackoff
	s.nextAttempt = time.Time{}
	return true
}

// clear removes the shown presence, if any.
func (s *Session) clear() {
	if s.lastSent == nil {
		return
	}
	if err := s.transport.ClearActivity(); err != nil {
		slog.Warn("failed to clear activity", "error", err)
		s.noteFailure()
		return
	}
	slog.Info("presence cleared", "process", s.lastSent.Process)
	s.lastSent = nil
	s.activeProcess = ""
}

// noteFailure records a failed send. The transport drops its connection
// on write errors, so the next tick re-enters the connect path with the
// backoff window already armed.
func (s *Session) noteFailure() {
	s.status = StatusDisconnected
	s.lastSent = nil
	s.nextAttempt = s.now().Add(s.backoff)
	s.backoff = min(s.backoff*2, s.maxBackoff)
}
