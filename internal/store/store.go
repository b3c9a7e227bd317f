package store

import (
	"log/slog"

	"github.com/inamate/inamate/canvas-go/internal/reactive"
	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

type subscriber struct {
	id uint64
	fn func()
}

// Store holds the authoritative canvas state. All writes go through
// Dispatch; subscribers are told after every successful action.
type Store struct {
	state   *State
	version int64
	history []Action

	subs      []subscriber
	nextSub   uint64
	notifying bool
	pending   bool

	log *slog.Logger
}

// New creates a store seeded with initial. A nil logger uses slog.Default.
func New(initial *State, logger *slog.Logger) *Store {
	if initial == nil {
		initial = NewEmptyState(1024, 1024)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{state: initial, log: logger}
}

// GetState returns the current state. Callers must not mutate it.
func (s *Store) GetState() *State {
	return s.state
}

// Dispatch applies a and notifies subscribers. A failed action leaves the
// state untouched and notifies nobody. Actions dispatched by a subscriber
// are applied immediately; the subscribers run again once the current round
// finishes.
func (s *Store) Dispatch(a Action) error {
	if a.ID == "" {
		a.ID = typeid.NewActionID()
	}
	if err := s.state.apply(a); err != nil {
		return err
	}
	s.version++
	s.history = append(s.history, a)
	s.log.Debug("action applied", "type", a.Type, "entity", a.EntityID, "version", s.version)

	if s.notifying {
		s.pending = true
		return nil
	}
	s.notifying = true
	defer func() { s.notifying = false }()
	for {
		s.pending = false
		snapshot := make([]subscriber, len(s.subs))
		copy(snapshot, s.subs)
		for _, sub := range snapshot {
			sub.fn()
		}
		if !s.pending {
			return nil
		}
	}
}

// Subscribe calls fn after every applied action.
func (s *Store) Subscribe(fn func()) reactive.Release {
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	released := false
	return func() {
		if released {
			return
		}
		released = true
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers reports how many subscriptions are attached.
func (s *Store) Subscribers() int {
	return len(s.subs)
}

// Version increments once per applied action.
func (s *Store) Version() int64 {
	return s.version
}

// Dispatched returns the applied actions in order.
func (s *Store) Dispatched() []Action {
	out := make([]Action, len(s.history))
	copy(out, s.history)
	return out
}
