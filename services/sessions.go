package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"who-dashboard/providers"
)

// Session gehört zu genau einem Browser und besitzt dessen Konsole.
type Session struct {
	ID       string
	Console  *Console
	lastSeen time.Time
}

// SessionStore hält die Konsolen-Sitzungen im Speicher. Nichts davon wird persistiert.
type SessionStore struct {
	ctx      context.Context
	api      providers.OperationsAPI
	ttl      time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *Metrics
	recorder Recorder
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// SessionStoreOptions konfiguriert den SessionStore.
type SessionStoreOptions struct {
	TTL      time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
	Metrics  *Metrics
	Recorder Recorder
}

// NewSessionStore erstellt einen leeren Store. ctx begrenzt die Lebensdauer aller Konsolen.
func NewSessionStore(ctx context.Context, api providers.OperationsAPI, opts SessionStoreOptions) *SessionStore {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &SessionStore{
		ctx:      ctx,
		api:      api,
		ttl:      opts.TTL,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get liefert eine bestehende Sitzung und frischt deren Zeitstempel auf.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// GetOrCreate liefert die Sitzung zu id oder legt eine neue an.
func (s *SessionStore) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.create(), true
}

func (s *SessionStore) create() *Session {
	id := uuid.NewString()
	sess := &Session{
		ID: id,
		Console: NewConsole(s.ctx, s.api, ConsoleOptions{
			SessionID: id,
			Timeout:   s.timeout,
			Logger:    s.logger,
			Metrics:   s.metrics,
			Recorder:  s.recorder,
		}),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ActiveSessions.Set(float64(n))
	s.logger.Debug("Neue Konsolen-Sitzung", zap.String("session_id", id))
	return sess
}

// Sweep entfernt Sitzungen, die länger als die TTL inaktiv waren, und beendet deren Konsolen.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Console.Close()
	}
	s.metrics.ActiveSessions.Set(float64(n))
	if len(expired) > 0 {
		s.logger.Info("Abgelaufene Sitzungen entfernt", zap.Int("expired", len(expired)), zap.Int("active", n))
	}
	return len(expired)
}

// Len gibt die Anzahl aktiver Sitzungen zurück.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CloseAll beendet alle Konsolen, z.B. beim Shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Console.Close()
		sess.Console.Wait()
	}
	s.metrics.ActiveSessions.Set(0)
}
