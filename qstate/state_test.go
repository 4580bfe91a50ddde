package qstate

import (
	"testing"
)

type testState int

const (
	stateIdle testState = iota
	stateLogin
	stateMenu
	stateDone
)

func (s testState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateLogin:
		return "login"
	case stateMenu:
		return "menu"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

var testTransitions = []Transition[testState]{
	{From: stateIdle, To: stateLogin, Name: "select"},
	{From: stateLogin, To: stateMenu, Name: "accept"},
	{From: stateLogin, To: stateIdle, Name: "reject"},
	{From: stateMenu, To: stateDone, Name: "exit"},
	{From: stateIdle, To: stateDone, Name: "disconnect"},
	{From: stateLogin, To: stateDone, Name: "disconnect"},
	{From: stateMenu, To: stateDone, Name: "disconnect"},
}

func TestFire(t *testing.T) {
	tests := []struct {
		name    string
		initial testState
		event   string
		want    testState
		wantErr bool
	}{
		{name: "idle select", initial: stateIdle, event: "select", want: stateLogin},
		{name: "login accept", initial: stateLogin, event: "accept", want: stateMenu},
		{name: "login reject", initial: stateLogin, event: "reject", want: stateIdle},
		{name: "menu exit", initial: stateMenu, event: "exit", want: stateDone},
		{name: "menu disconnect", initial: stateMenu, event: "disconnect", want: stateDone},
		{name: "idle exit", initial: stateIdle, event: "exit", want: stateIdle, wantErr: true},
		{name: "menu select", initial: stateMenu, event: "select", want: stateMenu, wantErr: true},
		{name: "done disconnect", initial: stateDone, event: "disconnect", want: stateDone, wantErr: true},
		{name: "unknown event", initial: stateIdle, event: "bogus", want: stateIdle, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := New(tt.initial, testTransitions, nil)

			if can := sm.Can(tt.event); can == tt.wantErr {
				t.Errorf("Can(%q) = %v, want %v", tt.event, can, !tt.wantErr)
			}
			got, err := sm.Fire(tt.event)
			if (err != nil) != tt.wantErr {
				t.Errorf("Fire(%q) error = %v, wantErr %v", tt.event, err, tt.wantErr)
			}
			if got != tt.want || sm.Current() != tt.want {
				t.Errorf("Fire(%q) = %v, current %v, want %v", tt.event, got, sm.Current(), tt.want)
			}
		})
	}
}

func TestOnChangeCallback(t *testing.T) {
	var calls int
	var lastFrom, lastTo testState
	var lastEvent string

	sm := New(stateIdle, testTransitions, func(from, to testState, event string) {
		calls++
		lastFrom, lastTo, lastEvent = from, to, event
	})

	if _, err := sm.Fire("select"); err != nil {
		t.Fatalf("Fire(select): %v", err)
	}
	if calls != 1 || lastFrom != stateIdle || lastTo != stateLogin || lastEvent != "select" {
		t.Errorf("callback = %d (%v, %v, %q)", calls, lastFrom, lastTo, lastEvent)
	}

	// Rejected events do not call back.
	_, _ = sm.Fire("exit")
	if calls != 1 {
		t.Errorf("callback called on rejected event, count = %d", calls)
	}

	if _, err := sm.Fire("reject"); err != nil {
		t.Fatalf("Fire(reject): %v", err)
	}
	if calls != 2 || lastTo != stateIdle || lastEvent != "reject" {
		t.Errorf("callback = %d (%v, %q)", calls, lastTo, lastEvent)
	}
}

func TestFinal(t *testing.T) {
	sm := New(stateMenu, testTransitions, nil)
	if sm.Final() {
		t.Error("menu reported final")
	}
	if _, err := sm.Fire("exit"); err != nil {
		t.Fatal(err)
	}
	if !sm.Final() {
		t.Error("done not reported final")
	}
}
