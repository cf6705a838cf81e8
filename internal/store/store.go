// Package store holds the mutable control set state of one loaded model: the
// server's authoritative values plus an optimistic overlay keyed by URI.
//
// Store is not safe for concurrent use; the coordinator serializes access.
package store

import (
	"errors"
	"time"

	"riskdash/internal/models"
)

var (
	ErrUnknownControlSet = errors.New("control set not in model")
	ErrNotInError        = errors.New("control set is not in error state")
)

// State is the per-control-set optimistic update state.
type State int

const (
	Idle State = iota
	Pending
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Error:
		return "error"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is one optimistic edit. Idle control sets have no entry.
type Entry struct {
	URI            string
	State          State
	Proposed       bool
	WorkInProgress bool

	Seq       uint64
	RequestID string
	Err       string

	// a full model replaced the value while the request was in flight
	Overridden bool

	UpdatedAt time.Time
}

// live reports whether the entry's value overrides the base layer.
func (e *Entry) live() bool {
	switch e.State {
	case Pending:
		return !e.Overridden
	case Error:
		return true
	case Idle:
		return false
	}
	return false
}

// ControlSetState is the effective value of a control set plus its update
// state, as shown by spinner / error indicators.
type ControlSetState struct {
	models.ControlSet
	State     State  `json:"state"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Store struct {
	base    map[string]*models.ControlSet
	order   []string
	overlay map[string]*Entry
	acked   map[string]uint64 // highest seq whose ack reached the base layer
	ackedAt map[string]uint64 // fetch sequence current when that ack landed

	seq   uint64
	fetch uint64
	clock func() time.Time
}

func New(controlSets []*models.ControlSet) *Store {
	s := &Store{
		overlay: make(map[string]*Entry),
		acked:   make(map[string]uint64),
		ackedAt: make(map[string]uint64),
		clock:   time.Now,
	}
	s.Replace(controlSets, 0, false)
	return s
}

// BeginFetch numbers a model request. Pass the result to Replace when the
// model arrives.
func (s *Store) BeginFetch() uint64 {
	s.fetch++
	return s.fetch
}

// LastFetch is the most recent number handed out by BeginFetch.
func (s *Store) LastFetch() uint64 {
	return s.fetch
}

// WithClock overrides the clock for testing.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// Replace installs a fresh server model's control sets wholesale. fetch is
// the number the model was requested under: an ack that landed after that
// request is newer than the model and keeps its value. Pending values are
// superseded only when supersede is set; a fetched model cannot know about
// an update the server has not acknowledged yet. Error entries survive so
// the user still sees them. Entries for control sets that disappeared are
// dropped.
func (s *Store) Replace(controlSets []*models.ControlSet, fetch uint64, supersede bool) {
	prev := s.base
	s.base = make(map[string]*models.ControlSet, len(controlSets))
	s.order = s.order[:0]
	for _, cs := range controlSets {
		if cs == nil || cs.URI == "" {
			continue
		}
		c := *cs
		c.Normalize()
		if _, dup := s.base[c.URI]; !dup {
			s.order = append(s.order, c.URI)
		}
		s.base[c.URI] = &c
	}

	for uri, at := range s.ackedAt {
		cs, ok := s.base[uri]
		old, had := prev[uri]
		if !ok || !had || at < fetch {
			delete(s.ackedAt, uri)
			continue
		}
		cs.Proposed = old.Proposed
		cs.WorkInProgress = old.WorkInProgress
	}

	for uri, e := range s.overlay {
		if _, ok := s.base[uri]; !ok {
			delete(s.overlay, uri)
			continue
		}
		switch e.State {
		case Pending:
			if supersede {
				e.Overridden = true
			}
		case Error, Idle:
		}
	}
}

// Base returns a copy of the server value.
func (s *Store) Base(uri string) (models.ControlSet, bool) {
	cs, ok := s.base[uri]
	if !ok {
		return models.ControlSet{}, false
	}
	return *cs, true
}

// Begin records an optimistic edit and moves the control set to Pending.
// The returned sequence number identifies this edit; only the latest edit
// per URI may settle it.
func (s *Store) Begin(uri string, proposed, workInProgress bool, requestID string) (uint64, error) {
	if _, ok := s.base[uri]; !ok {
		return 0, ErrUnknownControlSet
	}
	if !proposed {
		workInProgress = false
	}

	s.seq++
	s.overlay[uri] = &Entry{
		URI:            uri,
		State:          Pending,
		Proposed:       proposed,
		WorkInProgress: workInProgress,
		Seq:            s.seq,
		RequestID:      requestID,
		UpdatedAt:      s.clock(),
	}
	return s.seq, nil
}

// Succeed settles edit seq. acked, if given, is the server's acknowledged
// value and is written to the base layer unless a later ack already was.
// It reports whether the entry moved back to Idle.
func (s *Store) Succeed(uri string, seq uint64, acked *models.ControlSet) bool {
	if acked != nil && seq > s.acked[uri] {
		if cs, ok := s.base[uri]; ok {
			cs.Proposed = acked.Proposed
			cs.WorkInProgress = acked.WorkInProgress
			cs.Normalize()
			s.acked[uri] = seq
			s.ackedAt[uri] = s.fetch
		}
	}

	e, ok := s.overlay[uri]
	if !ok || e.Seq != seq {
		return false
	}
	delete(s.overlay, uri)
	return true
}

// Fail moves edit seq to Error, keeping its optimistic value visible.
func (s *Store) Fail(uri string, seq uint64, err error) bool {
	e, ok := s.overlay[uri]
	if !ok || e.Seq != seq {
		return false
	}
	e.State = Error
	e.Overridden = false
	e.UpdatedAt = s.clock()
	if err != nil {
		e.Err = err.Error()
	}
	return true
}

// ClearError drops an error entry, reverting to the server value.
func (s *Store) ClearError(uri string) error {
	e, ok := s.overlay[uri]
	if !ok || e.State != Error {
		return ErrNotInError
	}
	delete(s.overlay, uri)
	return nil
}

// ClearErrors drops every error entry and returns their URIs.
func (s *Store) ClearErrors() []string {
	var cleared []string
	for _, uri := range s.order {
		if e, ok := s.overlay[uri]; ok && e.State == Error {
			delete(s.overlay, uri)
			cleared = append(cleared, uri)
		}
	}
	return cleared
}

// Entry returns a copy of the optimistic entry for uri.
func (s *Store) Entry(uri string) (Entry, bool) {
	e, ok := s.overlay[uri]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Effective returns fresh copies of every control set with live optimistic
// values applied.
func (s *Store) Effective() map[string]*models.ControlSet {
	out := make(map[string]*models.ControlSet, len(s.base))
	for uri, cs := range s.base {
		c := *cs
		if e, ok := s.overlay[uri]; ok && e.live() {
			c.Proposed = e.Proposed
			c.WorkInProgress = e.WorkInProgress
		}
		out[uri] = &c
	}
	return out
}

func (s *Store) Get(uri string) (ControlSetState, bool) {
	cs, ok := s.base[uri]
	if !ok {
		return ControlSetState{}, false
	}
	st := ControlSetState{ControlSet: *cs, State: Idle}
	if e, ok := s.overlay[uri]; ok {
		st.State = e.State
		st.Error = e.Err
		st.RequestID = e.RequestID
		if e.live() {
			st.Proposed = e.Proposed
			st.WorkInProgress = e.WorkInProgress
		}
	}
	return st, true
}

// States returns every control set in model order.
func (s *Store) States() []ControlSetState {
	out := make([]ControlSetState, 0, len(s.order))
	for _, uri := range s.order {
		if st, ok := s.Get(uri); ok {
			out = append(out, st)
		}
	}
	return out
}

// Count returns how many control sets are in the given state.
func (s *Store) Count(state State) int {
	if state == Idle {
		return len(s.base) - len(s.overlay)
	}
	n := 0
	for _, e := range s.overlay {
		if e.State == state {
			n++
		}
	}
	return n
}

// Order returns control set URIs in model order.
func (s *Store) Order() []string {
	return append([]string(nil), s.order...)
}
