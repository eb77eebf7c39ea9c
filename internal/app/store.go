package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/hylla/famboard/internal/state"
)

// Snapshot is the state after one reduction. Seq increases by one per dispatch, so observers that
// receive snapshots out of order keep the highest.
type Snapshot struct {
	Seq    uint64
	State  state.State
	Intent state.Intent
}

// Transition is what effects see for each dispatched intent.
type Transition struct {
	Before state.State
	After  state.State
	Intent state.Intent
}

// Dispatcher feeds an intent back into the store.
type Dispatcher func(state.Intent)

// Effects runs side effects for a reduced intent and reports results through dispatch.
type Effects interface {
	Handle(ctx context.Context, tr Transition, dispatch Dispatcher)
}

// StoreConfig holds configuration for the store.
type StoreConfig struct {
	DebugEnabled bool
}

// Store is the single writer of the state tree.
type Store struct {
	mu      sync.Mutex
	current state.State
	seq     uint64
	subs    map[int]func(Snapshot)
	nextSub int
	closed  bool

	effects Effects
	debug   bool
	ctx     context.Context
	cancel  context.CancelFunc
	work    sync.WaitGroup
}

// NewStore constructs a store holding initial. effects may be nil.
func NewStore(initial state.State, effects Effects, cfg StoreConfig) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		current: initial,
		subs:    map[int]func(Snapshot){},
		effects: effects,
		debug:   cfg.DebugEnabled,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Dispatch reduces intent, notifies subscribers, then runs effects in a goroutine.
// It panics with ErrUnsupportedIntent for debug intents when the debug feature is off.
func (s *Store) Dispatch(intent state.Intent) {
	s.DispatchSeq(intent)
}

// DispatchSeq is Dispatch that also returns the sequence number of the reduction it applied,
// or 0 for a nil intent.
func (s *Store) DispatchSeq(intent state.Intent) uint64 {
	if intent == nil {
		return 0
	}
	if state.IsDebug(intent) && !s.debug {
		panic(fmt.Errorf("%w: %s", ErrUnsupportedIntent, intent.IntentName()))
	}

	s.mu.Lock()
	before := s.current
	s.current = state.Reduce(before, intent)
	s.seq++
	snap := Snapshot{Seq: s.seq, State: s.current, Intent: intent}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	runEffects := s.effects != nil && !s.closed
	if runEffects {
		s.work.Add(1)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	if !runEffects {
		return snap.Seq
	}
	tr := Transition{Before: before, After: snap.State, Intent: intent}
	go func() {
		defer s.work.Done()
		s.effects.Handle(s.ctx, tr, s.Dispatch)
	}()
	return snap.Seq
}

// State returns the latest snapshot of the tree.
func (s *Store) State() state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Seq returns the sequence number of the latest reduction.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Current returns the latest sequence number and the tree it produced, read together.
func (s *Store) Current() (uint64, state.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq, s.current
}

// DebugEnabled reports whether debug intents are accepted.
func (s *Store) DebugEnabled() bool {
	return s.debug
}

// Subscribe registers fn for every later snapshot and returns its unsubscribe function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Wait blocks until in-flight effects, including the ones they dispatch, have finished.
// Callers must not dispatch from other goroutines while waiting.
func (s *Store) Wait() {
	s.work.Wait()
}

// Close cancels the context handed to effects, stops scheduling new ones, and waits for the rest.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.work.Wait()
}
