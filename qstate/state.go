// Package qstate drives small event based state machines, such as the
// lifecycle of a catalog session.
package qstate

import (
	"fmt"
	"sync"
)

type State interface {
	comparable
	fmt.Stringer
}

// Transition moves the machine from From to To when the event Name fires.
type Transition[S State] struct {
	From S
	To   S
	Name string
}

type eventKey[S State] struct {
	From  S
	Event string
}

// Machine tracks the current state and permits only the configured
// transitions. A state with no outgoing transitions is final.
type Machine[S State] struct {
	mu      sync.RWMutex
	current S

	next     map[eventKey[S]]S
	outgoing map[S]int
	onChange func(from, to S, event string)
}

// New creates a machine starting at initial. on, if not nil, is called
// after every successful transition while the machine is locked; it must not
// call back into the machine.
func New[S State](initial S, transitions []Transition[S], on func(from, to S, event string)) *Machine[S] {
	sm := &Machine[S]{
		current:  initial,
		next:     make(map[eventKey[S]]S, len(transitions)),
		outgoing: make(map[S]int),
		onChange: on,
	}
	for _, t := range transitions {
		sm.next[eventKey[S]{From: t.From, Event: t.Name}] = t.To
		sm.outgoing[t.From]++
	}
	return sm
}

// Can reports whether event is accepted in the current state.
func (sm *Machine[S]) Can(event string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.next[eventKey[S]{From: sm.current, Event: event}]
	return ok
}

// Fire applies event to the current state and returns the new state.
// The state is unchanged if the event is not accepted.
func (sm *Machine[S]) Fire(event string) (S, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	from := sm.current
	to, ok := sm.next[eventKey[S]{From: from, Event: event}]
	if !ok {
		return from, fmt.Errorf("invalid event %q in state %s", event, from)
	}
	sm.current = to
	if sm.onChange != nil {
		sm.onChange(from, to, event)
	}
	return to, nil
}

// Current returns the current state.
func (sm *Machine[S]) Current() S {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Final reports whether the current state has no outgoing transitions.
func (sm *Machine[S]) Final() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.outgoing[sm.current] == 0
}
