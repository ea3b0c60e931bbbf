package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mroshb/match_engine/internal/metrics"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/logger"
)

const (
	DefaultHistoryDepth  = 50
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Session is the in-memory state of one logged-in user. It is only handed
// out inside WithUserLock and must not be retained after the callback returns.
type Session struct {
	UserID          string
	Cursor          int
	LastCandidateID string
	StartedAt       time.Time
	LastActive      time.Time
	Swipes          int
	Likes           int
	Matches         int
}

// HistoryEntry is one navigation step that Undo can revert.
type HistoryEntry struct {
	CandidateID string
	Direction   models.Direction
	Outcome     models.OutcomeKind
	At          time.Time
}

type SessionConfig struct {
	HistoryDepth  int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// sessionEntry holds the per-user lock. lock is a one-slot semaphore so
// waiting can be abandoned when the context is cancelled.
type sessionEntry struct {
	lock    chan struct{}
	waiters atomic.Int32
	dead    atomic.Bool

	// guarded by lock
	session Session

	// mu guards history and snapshot, which are also read outside the lock.
	mu       sync.Mutex
	history  []HistoryEntry
	snapshot Session
}

func newSessionEntry(userID string, now time.Time) *sessionEntry {
	s := Session{UserID: userID, StartedAt: now, LastActive: now}
	return &sessionEntry{
		lock:     make(chan struct{}, 1),
		session:  s,
		snapshot: s,
	}
}

func (e *sessionEntry) tryLock() bool {
	select {
	case e.lock <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *sessionEntry) unlock() {
	<-e.lock
}

// SessionService maps user ids to per-user locks and session state. Operations
// for one user are serialized; different users never contend.
type SessionService struct {
	entries sync.Map // string -> *sessionEntry

	historyDepth  int
	idleTimeout   time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

func NewSessionService(cfg SessionConfig) *SessionService {
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = DefaultHistoryDepth
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return &SessionService{
		historyDepth:  cfg.HistoryDepth,
		idleTimeout:   cfg.IdleTimeout,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
	}
}

// loadOrCreate returns the live entry for userID, creating it atomically.
func (s *SessionService) loadOrCreate(userID string) *sessionEntry {
	if v, ok := s.entries.Load(userID); ok {
		return v.(*sessionEntry)
	}
	v, loaded := s.entries.LoadOrStore(userID, newSessionEntry(userID, s.now()))
	if !loaded {
		metrics.SessionStarted()
		logger.Debug("Session started", "user_id", userID)
	}
	return v.(*sessionEntry)
}

// acquire locks the live entry for userID, retrying when the entry it waited
// on was ended in the meantime.
func (s *SessionService) acquire(ctx context.Context, userID string) (*sessionEntry, error) {
	for {
		e := s.loadOrCreate(userID)

		e.waiters.Add(1)
		select {
		case e.lock <- struct{}{}:
			e.waiters.Add(-1)
		case <-ctx.Done():
			e.waiters.Add(-1)
			return nil, ctx.Err()
		}

		if e.dead.Load() {
			e.unlock()
			continue
		}
		return e, nil
	}
}

// WithUserLock runs fn while holding userID's exclusive lock and returns fn's
// error. The lock is released on every exit path, including a panic in fn.
func (s *SessionService) WithUserLock(ctx context.Context, userID string, fn func(*Session) error) error {
	if userID == "" {
		return errors.New(errors.ErrCodeValidation, "user id is required")
	}

	e, err := s.acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer func() {
		e.mu.Lock()
		e.snapshot = e.session
		e.mu.Unlock()
		e.unlock()
	}()

	e.session.LastActive = s.now()
	return fn(&e.session)
}

// WithUserLockResult is WithUserLock for operations that produce a value.
func WithUserLockResult[T any](ctx context.Context, s *SessionService, userID string, fn func(*Session) (T, error)) (T, error) {
	var result T
	err := s.WithUserLock(ctx, userID, func(sess *Session) error {
		var err error
		result, err = fn(sess)
		return err
	})
	return result, err
}

// RecordHistory pushes entry onto userID's history, dropping the oldest entry
// once the configured depth is reached.
func (s *SessionService) RecordHistory(userID string, entry HistoryEntry) {
	for {
		e := s.loadOrCreate(userID)
		e.mu.Lock()
		if e.dead.Load() {
			e.mu.Unlock()
			continue
		}
		if len(e.history) >= s.historyDepth {
			copy(e.history, e.history[1:])
			e.history = e.history[:len(e.history)-1]
		}
		e.history = append(e.history, entry)
		e.mu.Unlock()
		return
	}
}

// PopHistory removes and returns the newest history entry. ok is false when
// the history is empty or the user has no session.
func (s *SessionService) PopHistory(userID string) (HistoryEntry, bool) {
	v, found := s.entries.Load(userID)
	if !found {
		return HistoryEntry{}, false
	}
	e := v.(*sessionEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dead.Load() || len(e.history) == 0 {
		return HistoryEntry{}, false
	}
	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	return last, true
}

// HistoryLen returns the number of entries in userID's history.
func (s *SessionService) HistoryLen(userID string) int {
	v, found := s.entries.Load(userID)
	if !found {
		return 0
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history)
}

// EndSession removes userID's lock entry and history. It fails with
// SESSION_BUSY while the lock is held or awaited. Ending an unknown user is a
// no-op.
func (s *SessionService) EndSession(userID string) error {
	ended, err := s.end(userID, nil)
	if err != nil {
		return err
	}
	if ended {
		metrics.SessionEnded(false)
		logger.Info("Session ended", "user_id", userID)
	}
	return nil
}

// end removes the entry for userID if it is idle and, when keep is non-nil,
// keep reports false for its session.
func (s *SessionService) end(userID string, keep func(Session) bool) (bool, error) {
	v, found := s.entries.Load(userID)
	if !found {
		return false, nil
	}
	e := v.(*sessionEntry)

	if !e.tryLock() {
		metrics.RecordSessionBusy()
		return false, errors.New(errors.ErrCodeSessionBusy, "session is in use: "+userID)
	}
	if e.waiters.Load() > 0 {
		e.unlock()
		metrics.RecordSessionBusy()
		return false, errors.New(errors.ErrCodeSessionBusy, "session is awaited: "+userID)
	}
	if keep != nil && keep(e.session) {
		e.unlock()
		return false, nil
	}

	e.mu.Lock()
	e.dead.Store(true)
	e.history = nil
	e.mu.Unlock()

	removed := s.entries.CompareAndDelete(userID, e)
	e.unlock()
	return removed, nil
}

// SweepIdle ends every session idle for longer than the idle timeout at now.
// Sessions whose lock is held are counted as busy and left for the next sweep.
func (s *SessionService) SweepIdle(now time.Time) (ended, busy int) {
	cutoff := now.Add(-s.idleTimeout)
	stillActive := func(sess Session) bool {
		return !sess.LastActive.Before(cutoff)
	}

	s.entries.Range(func(key, _ any) bool {
		userID := key.(string)
		removed, err := s.end(userID, stillActive)
		switch {
		case err != nil:
			busy++
		case removed:
			ended++
			metrics.SessionEnded(true)
		}
		return true
	})

	if ended > 0 || busy > 0 {
		logger.Info("Idle session sweep finished", "ended", ended, "busy", busy)
	}
	return ended, busy
}

// Run sweeps idle sessions every sweep interval until ctx is done.
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle(s.now())
		}
	}
}

// Snapshot returns a copy of userID's session as of the last completed
// locked operation.
func (s *SessionService) Snapshot(userID string) (Session, bool) {
	v, found := s.entries.Load(userID)
	if !found {
		return Session{}, false
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead.Load() {
		return Session{}, false
	}
	return e.snapshot, true
}

// ActiveSessions returns the number of live sessions.
func (s *SessionService) ActiveSessions() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
