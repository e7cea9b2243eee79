// Package memstore is an in-memory store with reducer semantics.
//
// It backs the harness and the package tests. Dispatch runs the reducer
// under the store lock, then notifies a snapshot of the subscribers taken
// after the reduction, outside the lock, so subscribers may dispatch again.
package memstore

import (
	"sync"
)

// Reducer computes the next state for an action.
type Reducer func(state any, action any) any

// Store holds a single state value.
type Store struct {
	mu          sync.Mutex
	reducer     Reducer
	state       any
	subscribers []*subscriber
	nextID      uint64
	dispatches  int
}

type subscriber struct {
	id uint64
	fn func()
}

// New creates a store with the given reducer and initial state.
func New(reducer Reducer, initial any) *Store {
	return &Store{reducer: reducer, state: initial}
}

// GetState returns the current state.
func (s *Store) GetState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces action into the state and notifies subscribers.
// Returns the action.
func (s *Store) Dispatch(action any) any {
	s.mu.Lock()
	s.state = s.reducer(s.state, action)
	s.dispatches++
	subs := make([]*subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
	return action
}

// Subscribe adds fn to the notification list.
// The returned function removes it; repeated calls are no-ops.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	s.nextID++
	sub := &subscriber{id: s.nextID, fn: fn}
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(sub.id) })
	}
}

// Notify calls every subscriber without changing the state.
func (s *Store) Notify() {
	s.mu.Lock()
	subs := make([]*subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}

// SubscriberCount returns the number of active subscriptions.
func (s *Store) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// DispatchCount returns how many actions have been dispatched.
func (s *Store) DispatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatches
}

func (s *Store) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub.id == id {
			s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
			return
		}
	}
}
