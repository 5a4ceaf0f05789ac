package moderation

import (
	"chat-guard/domain"
	"chat-guard/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultSpamWindow    = 10 * time.Second
	DefaultSpamThreshold = 3
)

// SpamStat is the per-user view of the sliding window.
type SpamStat struct {
	RecentMessageCount int
	IsNearLimit        bool
}

// Engine holds the two send gates: the block list and the sliding-window spam check.
// Admins are never gated and never logged.
// The send log lives in memory only and is lost on restart.
type Engine struct {
	mu        sync.Mutex
	log       *slog.Logger
	window    time.Duration
	threshold int
	now       func() time.Time
	sendLog   map[string][]time.Time
}

type Option func(*Engine)

// WithClock replaces the wall clock, it must never go backwards.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(log *slog.Logger, window time.Duration, threshold int, opts ...Option) *Engine {
	if window <= 0 {
		window = DefaultSpamWindow
	}
	if threshold <= 0 {
		threshold = DefaultSpamThreshold
	}
	e := &Engine{
		log:       log,
		window:    window,
		threshold: threshold,
		now:       time.Now,
		sendLog:   make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check evaluates the block gate then the spam gate for a send attempt.
// A rejected attempt is never recorded.
func (e *Engine) Check(user domain.User, blocked []string) error {
	if user.IsAdmin() {
		return nil
	}
	if lo.Contains(blocked, user.ID) {
		e.log.Debug("Send rejected, user blocked", "user_id", user.ID)
		return errors.ErrBlocked
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	recent := e.prune(user.ID, e.now())
	if len(recent) >= e.threshold {
		e.log.Debug("Send rejected, rate limited", "user_id", user.ID, "recent", len(recent))
		return errors.ErrRateLimited
	}
	return nil
}

// Record appends a successful send to the user's log.
func (e *Engine) Record(user domain.User) {
	if user.IsAdmin() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.sendLog[user.ID] = append(e.prune(user.ID, now), now)
}

// Stats reports, for every user with at least one send inside the window,
// how many sends it holds and whether one more would hit the threshold.
func (e *Engine) Stats() map[string]SpamStat {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	stats := make(map[string]SpamStat)
	for userID, times := range e.sendLog {
		count := len(e.recent(times, now))
		if count == 0 {
			continue
		}
		stats[userID] = SpamStat{
			RecentMessageCount: count,
			IsNearLimit:        count >= e.threshold-1,
		}
	}
	return stats
}

func (e *Engine) Window() time.Duration { return e.window }

func (e *Engine) Threshold() int { return e.threshold }

// prune drops entries outside the window and forgets users left with none.
// Callers must hold mu.
func (e *Engine) prune(userID string, now time.Time) []time.Time {
	recent := e.recent(e.sendLog[userID], now)
	if len(recent) == 0 {
		delete(e.sendLog, userID)
		return nil
	}
	e.sendLog[userID] = recent
	return recent
}

func (e *Engine) recent(times []time.Time, now time.Time) []time.Time {
	return lo.Filter(times, func(t time.Time, _ int) bool {
		return now.Sub(t) < e.window
	})
}
