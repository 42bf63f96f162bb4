// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session implements per-session short-term memory: a rolling
// context ring, a single pending-confirmation slot, session variables,
// and the TTL sweeps that keep all of it short-term. It also hosts the
// pronoun and follow-up resolvers that read that memory.
package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianAssist/services/assist/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	sessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "assist",
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions currently resident in the store",
	})

	sessionReclaimedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "session",
		Name:      "reclaimed_total",
		Help:      "Sessions removed from the store, by cause",
	}, []string{"cause"})

	sessionSweepTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "session",
		Name:      "sweep_total",
		Help:      "Background cleanup sweeps executed",
	})
)

// =============================================================================
// Session Types
// =============================================================================

// ContextEntry is one completed turn in a session's rolling history.
type ContextEntry struct {
	Intent   string            `json:"intent"`
	Entities map[string]string `json:"entities,omitempty"`
	Input    string            `json:"input"`
	Response string            `json:"response"`
	At       time.Time         `json:"at"`
}

// Pending is the single-slot awaiting-confirmation state. Once consumed
// or expired it is always cleared before a new one is set.
type Pending struct {
	Intent   string            `json:"intent"`
	Entities map[string]string `json:"entities,omitempty"`
	Prompt   string            `json:"prompt"`
	At       time.Time         `json:"at"`
}

// sessionState is the per-session record. All access goes through the
// Store's lock; the struct itself carries none.
type sessionState struct {
	id         string
	entries    []ContextEntry // ring, capacity cfg.HistorySize
	pending    *Pending
	vars       map[string]string
	lastActive time.Time
}

// SessionInfo is the read-only listing view of one session.
type SessionInfo struct {
	ID         string    `json:"id"`
	Turns      int       `json:"turns"`
	HasPending bool      `json:"has_pending"`
	LastActive time.Time `json:"last_active"`
}

// =============================================================================
// Store
// =============================================================================

// Store owns all session state and its expiry policy.
//
// Description:
//
//	Sessions are created lazily on first access and removed either
//	explicitly (Destroy) or by the background sweep when idle past the
//	configured TTL. History entries expire individually; the pending
//	confirmation expires lazily on read and eagerly on sweep. The clock
//	is injectable so tests advance virtual time instead of sleeping.
//
// Thread Safety: Safe for concurrent use. A single mutex guards the
// session map; per-turn work is short and allocation-free enough that
// finer locking has not been worth it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionState

	cfg    config.SessionConfig
	now    func() time.Time
	logger *slog.Logger

	started  bool // sweep goroutine launched; guarded by mu
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore builds a Store from session configuration.
//
// Inputs:
//
//	cfg - Session limits and TTLs, typically config.AssistConfig.Session.
//	logger - Logger instance. Nil falls back to slog.Default().
//	opts - Optional overrides (clock injection).
//
// Outputs:
//
//	*Store - The constructed store. Never nil. The background sweep does
//	not run until Start is called.
func NewStore(cfg config.SessionConfig, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		sessions: make(map[string]*sessionState),
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// get returns the session record, creating it lazily. Caller holds mu.
func (s *Store) get(id string) *sessionState {
	st, ok := s.sessions[id]
	if !ok {
		st = &sessionState{
			id:   id,
			vars: make(map[string]string),
		}
		s.sessions[id] = st
		sessionActive.Set(float64(len(s.sessions)))
		s.logger.Debug("session created", slog.String("session", id))
	}
	st.lastActive = s.now()
	return st
}

// =============================================================================
// History
// =============================================================================

// Record appends one completed turn to the session's history ring.
//
// Description:
//
//	The ring never exceeds the configured capacity; the oldest entry is
//	dropped first. The entry timestamp is assigned here from the store
//	clock so callers cannot skew expiry.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) Record(sessionID string, entry ContextEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(sessionID)
	entry.At = s.now()
	st.entries = append(st.entries, entry)
	if len(st.entries) > s.cfg.HistorySize {
		st.entries = st.entries[len(st.entries)-s.cfg.HistorySize:]
	}
}

// History returns the session's unexpired turns, oldest first.
//
// Description:
//
//	Expiry is evaluated against the context TTL at read time, so a
//	stale entry is invisible even before the next sweep removes it.
//	A session id with no record returns an empty slice and does NOT
//	create the session.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) History(sessionID string) []ContextEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	cutoff := s.now().Add(-s.cfg.ContextTTL.Duration)
	out := make([]ContextEntry, 0, len(st.entries))
	for _, e := range st.entries {
		if e.At.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent unexpired turn, if any.
func (s *Store) Last(sessionID string) (ContextEntry, bool) {
	h := s.History(sessionID)
	if len(h) == 0 {
		return ContextEntry{}, false
	}
	return h[len(h)-1], true
}

// =============================================================================
// Pending Confirmation
// =============================================================================

// SetPending stores a candidate action awaiting a yes/no. Any previous
// slot content is replaced.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) SetPending(sessionID string, p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(sessionID)
	p.At = s.now()
	st.pending = &p
}

// TakePending consumes the pending confirmation.
//
// Description:
//
//	The slot is cleared whether or not it is returned: an expired slot
//	(older than the confirmation TTL) is dropped and reported absent,
//	so a stale "yes" can never trigger the stored action.
//
// Outputs:
//
//	Pending - The stored action.
//	bool - False when the slot is empty or expired.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) TakePending(sessionID string) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.pending == nil {
		return Pending{}, false
	}
	p := *st.pending
	st.pending = nil
	st.lastActive = s.now()

	if s.now().Sub(p.At) > s.cfg.ConfirmationTTL.Duration {
		s.logger.Debug("pending confirmation expired",
			slog.String("session", sessionID),
			slog.String("intent", p.Intent),
		)
		return Pending{}, false
	}
	return p, true
}

// HasPending reports whether an unexpired confirmation is waiting,
// without consuming it.
func (s *Store) HasPending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.pending == nil {
		return false
	}
	if s.now().Sub(st.pending.At) > s.cfg.ConfirmationTTL.Duration {
		st.pending = nil
		return false
	}
	return true
}

// =============================================================================
// Session Variables
// =============================================================================

// SetVar stores an arbitrary key/value on the session.
func (s *Store) SetVar(sessionID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(sessionID).vars[key] = value
}

// Var reads a session variable.
func (s *Store) Var(sessionID, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return "", false
	}
	v, ok := st.vars[key]
	return v, ok
}

// =============================================================================
// Lifecycle
// =============================================================================

// Destroy removes a session immediately.
//
// Outputs:
//
//	bool - True when the session existed.
func (s *Store) Destroy(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	sessionActive.Set(float64(len(s.sessions)))
	sessionReclaimedTotal.WithLabelValues("destroyed").Inc()
	s.logger.Debug("session destroyed", slog.String("session", sessionID))
	return true
}

// List returns a summary of resident sessions, sorted by id.
func (s *Store) List() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionInfo, 0, len(s.sessions))
	for _, st := range s.sessions {
		out = append(out, SessionInfo{
			ID:         st.id,
			Turns:      len(st.entries),
			HasPending: st.pending != nil,
			LastActive: st.lastActive,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of resident sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Start launches the background sweep goroutine.
//
// Description:
//
//	The sweep runs at the configured interval until Stop is called or
//	ctx is cancelled. It drops expired history entries, expired pending
//	confirmations, and whole sessions idle past the idle TTL.
//
// Thread Safety: Start is idempotent, as is Stop. Stop without a prior
// Start returns immediately.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(s.cfg.SweepInterval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Stop halts the background sweep and waits for it to exit. Without a
// prior Start there is nothing to wait for and Stop returns at once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.doneCh
		}
	})
}

// Sweep applies the expiry policy once. Exported so tests (and the
// reload path) can force a deterministic cleanup pass.
//
// Outputs:
//
//	int - Number of whole sessions reclaimed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entryCutoff := now.Add(-s.cfg.ContextTTL.Duration)
	idleCutoff := now.Add(-s.cfg.IdleTTL.Duration)

	reclaimed := 0
	for id, st := range s.sessions {
		if st.lastActive.Before(idleCutoff) {
			delete(s.sessions, id)
			sessionReclaimedTotal.WithLabelValues("idle").Inc()
			reclaimed++
			continue
		}

		kept := st.entries[:0]
		for _, e := range st.entries {
			if e.At.After(entryCutoff) {
				kept = append(kept, e)
			}
		}
		st.entries = kept

		if st.pending != nil && now.Sub(st.pending.At) > s.cfg.ConfirmationTTL.Duration {
			st.pending = nil
		}
	}

	sessionActive.Set(float64(len(s.sessions)))
	sessionSweepTotal.Inc()
	if reclaimed > 0 {
		s.logger.Debug("sweep reclaimed idle sessions", slog.Int("count", reclaimed))
	}
	return reclaimed
}
