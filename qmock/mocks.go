// Package qmock provides test doubles for the catalog server.
package qmock

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kardianos/qcat"
)

// Authenticator is an in-memory qcat.Authenticator.
type Authenticator struct {
	mu       sync.RWMutex
	accounts map[string]account
	err      error
	calls    int
}

type account struct {
	password string
	role     qcat.Role
}

// NewAuthenticator returns an authenticator holding the user/user patron
// and admin/admin administrator accounts.
func NewAuthenticator() *Authenticator {
	a := &Authenticator{accounts: make(map[string]account)}
	a.Set("user", "user", qcat.RolePatron)
	a.Set("admin", "admin", qcat.RoleAdmin)
	return a
}

// Set adds or replaces an account.
func (a *Authenticator) Set(username, password string, role qcat.Role) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[username] = account{password: password, role: role}
}

// Fail makes every following Authenticate call return err. Pass nil to
// restore normal behavior.
func (a *Authenticator) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// Calls returns the number of Authenticate calls.
func (a *Authenticator) Calls() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.calls
}

func (a *Authenticator) Authenticate(ctx context.Context, role qcat.Role, username, password string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return false, a.err
	}
	acct, ok := a.accounts[username]
	return ok && acct.password == password && acct.role == role, nil
}

// StateChange is one transition reported to a TestObserver.
type StateChange struct {
	Session  uint64
	From, To qcat.SessionState
	Event    string
}

// TestObserver is a test implementation of qcat.Observer.
type TestObserver struct {
	t      *testing.T
	States chan StateChange
	Logs   chan string
	mu     sync.Mutex
	done   bool
}

func NewTestObserver(t *testing.T) *TestObserver {
	o := &TestObserver{
		t:      t,
		States: make(chan StateChange, 100),
		Logs:   make(chan string, 100),
	}
	// Use t.Cleanup to set done synchronously when test ends.
	t.Cleanup(func() {
		o.mu.Lock()
		o.done = true
		o.mu.Unlock()
	})
	return o
}

func (o *TestObserver) OnStateChange(session uint64, from, to qcat.SessionState, event string) {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	now := time.Now()
	second := now.Second()
	milli := now.Nanosecond() / 1e6
	o.t.Logf("%d.%d: State change [%d]: %s -> %s (%s)", second, milli, session, from, to, event)
	o.mu.Unlock()

	select {
	case o.States <- StateChange{Session: session, From: from, To: to, Event: event}:
	default:
	}
}

func (o *TestObserver) Logf(session uint64, format string, v ...interface{}) {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	msg := fmt.Sprintf(format, v...)
	now := time.Now()
	second := now.Second()
	milli := now.Nanosecond() / 1e6
	o.t.Logf("%d.%d: Log [%d]: %s", second, milli, session, msg)
	o.mu.Unlock()

	select {
	case o.Logs <- msg:
	default:
	}
}
