package qcat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kardianos/qcat/qrec"
	"github.com/kardianos/qcat/qstate"
	"github.com/kardianos/qcat/qstore"
	"github.com/kardianos/qcat/qwire"
)

// SessionState is the protocol state of one client connection.
type SessionState int

const (
	StateAwaitingRole SessionState = iota
	StatePatronLogin
	StateAdminLogin
	StatePatronMenu
	StateAdminMenu
	StateTerminated
)

var sessionStateNames = [...]string{
	StateAwaitingRole: "awaiting-role",
	StatePatronLogin:  "patron-login",
	StateAdminLogin:   "admin-login",
	StatePatronMenu:   "patron-menu",
	StateAdminMenu:    "admin-menu",
	StateTerminated:   "terminated",
}

func (s SessionState) String() string {
	if s >= 0 && int(s) < len(sessionStateNames) {
		return sessionStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	eventPatron     = "patron"
	eventAdmin      = "admin"
	eventLogin      = "login"
	eventReject     = "reject"
	eventExit       = "exit"
	eventDisconnect = "disconnect"
)

var sessionTransitions = func() []qstate.Transition[SessionState] {
	tt := []qstate.Transition[SessionState]{
		{From: StateAwaitingRole, To: StatePatronLogin, Name: eventPatron},
		{From: StateAwaitingRole, To: StateAdminLogin, Name: eventAdmin},
		{From: StatePatronLogin, To: StatePatronMenu, Name: eventLogin},
		{From: StatePatronLogin, To: StateAwaitingRole, Name: eventReject},
		{From: StateAdminLogin, To: StateAdminMenu, Name: eventLogin},
		{From: StateAdminLogin, To: StateAwaitingRole, Name: eventReject},
		{From: StatePatronMenu, To: StateTerminated, Name: eventExit},
		{From: StateAdminMenu, To: StateTerminated, Name: eventExit},
	}
	for _, from := range []SessionState{StateAwaitingRole, StatePatronLogin, StateAdminLogin, StatePatronMenu, StateAdminMenu} {
		tt = append(tt, qstate.Transition[SessionState]{From: from, To: StateTerminated, Name: eventDisconnect})
	}
	return tt
}()

// errInvalidRequest marks a request the session could read but not use.
// The client is told and the session continues.
var errInvalidRequest = errors.New("qcat: invalid request")

// Session runs the catalog protocol for one client connection.
type Session struct {
	id    uint64
	wire  *qwire.Conn
	store *qstore.Store
	auth  Authenticator
	obs   Observer
	sm    *qstate.Machine[SessionState]

	// member is the roster id of a logged in patron.
	member int
}

// NewSession returns a session reading requests from rw. obs may be nil.
func NewSession(id uint64, rw io.ReadWriter, store *qstore.Store, auth Authenticator, obs Observer) *Session {
	if obs == nil {
		obs = nopObserver{}
	}
	s := &Session{
		id:    id,
		wire:  qwire.NewConn(rw),
		store: store,
		auth:  auth,
		obs:   obs,
	}
	s.sm = qstate.New(StateAwaitingRole, sessionTransitions, func(from, to SessionState, event string) {
		obs.OnStateChange(id, from, to, event)
	})
	return s
}

// ID returns the session id used in logs.
func (s *Session) ID() uint64 {
	return s.id
}

// State returns the current protocol state.
func (s *Session) State() SessionState {
	return s.sm.Current()
}

// Run serves requests until the client exits or the stream ends.
// It returns nil after an exit command or when the client disconnects
// between frames. Store operations already started always complete.
func (s *Session) Run(ctx context.Context) error {
	for !s.sm.Final() {
		err := s.step(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, errInvalidRequest) || errors.Is(err, qwire.ErrUnexpectedKind) {
			s.obs.Logf(s.id, "invalid request in %s: %v", s.sm.Current(), err)
			switch s.sm.Current() {
			case StatePatronLogin, StateAdminLogin:
				s.fire(eventReject)
			}
			if err := s.reply(MsgInvalidRequest); err != nil {
				return s.disconnect(err)
			}
			continue
		}
		return s.disconnect(err)
	}
	return nil
}

func (s *Session) step(ctx context.Context) error {
	switch s.sm.Current() {
	case StateAwaitingRole:
		return s.selectRole()
	case StatePatronLogin:
		return s.patronLogin(ctx)
	case StateAdminLogin:
		return s.adminLogin(ctx)
	case StatePatronMenu:
		return s.patronCommand()
	case StateAdminMenu:
		return s.adminCommand()
	}
	return nil
}

func (s *Session) fire(event string) {
	if _, err := s.sm.Fire(event); err != nil {
		s.obs.Logf(s.id, "state: %v", err)
	}
}

func (s *Session) disconnect(err error) error {
	s.fire(eventDisconnect)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Session) reply(msg string) error {
	return s.wire.WriteText(msg)
}

func (s *Session) storageFailure(op string, err error) error {
	s.obs.Logf(s.id, "%s: %v", op, err)
	return s.reply(MsgOperationFailed)
}

func (s *Session) selectRole() error {
	v, err := s.wire.ReadInt()
	if err != nil {
		return err
	}
	switch Role(v) {
	case RolePatron:
		s.fire(eventPatron)
	case RoleAdmin:
		s.fire(eventAdmin)
	default:
		return s.reply(MsgInvalidLoginOption)
	}
	return nil
}

// credentials splits "<username> <password> ..." into at least n fields.
func credentials(text string, n int) ([]string, bool) {
	f := strings.Fields(text)
	if len(f) < n {
		return nil, false
	}
	return f, true
}

// authenticate checks the credentials and reports a failure to the client.
// The returned error is only set if the reply could not be written.
func (s *Session) authenticate(ctx context.Context, role Role, username, password string) (bool, error) {
	ok, err := s.auth.Authenticate(ctx, role, username, password)
	if err != nil {
		s.fire(eventReject)
		return false, s.storageFailure(fmt.Sprintf("authenticate %s %q", role, username), err)
	}
	if !ok {
		s.obs.Logf(s.id, "authentication failed for %s %q", role, username)
		s.fire(eventReject)
		return false, s.reply(MsgAuthFailed)
	}
	return true, nil
}

func (s *Session) patronLogin(ctx context.Context) error {
	text, err := s.wire.ReadText()
	if err != nil {
		return err
	}
	f, ok := credentials(text, 3)
	if !ok {
		return fmt.Errorf("%w: patron login needs username, password and member id", errInvalidRequest)
	}
	member, ok := qrec.LeadingInt(f[2])
	if !ok {
		return fmt.Errorf("%w: member id %q", errInvalidRequest, f[2])
	}
	ok, err = s.authenticate(ctx, RolePatron, f[0], f[1])
	if !ok {
		return err
	}
	if err := s.reply(MsgLoggedIn); err != nil {
		return err
	}

	count, err := s.wire.ReadInt()
	if err != nil {
		return err
	}
	if err := s.store.RegisterMember(member, int(count)); err != nil {
		s.fire(eventReject)
		return s.storageFailure("register member", err)
	}
	s.member = member
	s.obs.Logf(s.id, "patron %q logged in as member %d", f[0], member)
	s.fire(eventLogin)
	return s.reply(msgMemberLoggedIn(member))
}

func (s *Session) adminLogin(ctx context.Context) error {
	text, err := s.wire.ReadText()
	if err != nil {
		return err
	}
	f, ok := credentials(text, 2)
	if !ok {
		return fmt.Errorf("%w: admin login needs username and password", errInvalidRequest)
	}
	ok, err = s.authenticate(ctx, RoleAdmin, f[0], f[1])
	if !ok {
		return err
	}
	s.obs.Logf(s.id, "admin %q logged in", f[0])
	s.fire(eventLogin)
	return s.reply(MsgLoggedIn)
}

func (s *Session) patronCommand() error {
	choice, err := s.wire.ReadInt()
	if err != nil {
		return err
	}
	switch choice {
	case PatronRent:
		id, err := s.wire.ReadInt()
		if err != nil {
			return err
		}
		return s.rent(int(id))
	case PatronReturn:
		id, err := s.readID()
		if err != nil {
			return err
		}
		return s.giveBack(id)
	case PatronSearch:
		id, err := s.readID()
		if err != nil {
			return err
		}
		return s.search(id)
	case PatronExit:
		return s.exit()
	default:
		return s.reply(MsgInvalidChoice)
	}
}

func (s *Session) adminCommand() error {
	choice, err := s.wire.ReadInt()
	if err != nil {
		return err
	}
	switch choice {
	case AdminAdd:
		title, err := s.wire.ReadText()
		if err != nil {
			return err
		}
		author, err := s.wire.ReadText()
		if err != nil {
			return err
		}
		return s.add(title, author)
	case AdminDelete:
		id, err := s.readID()
		if err != nil {
			return err
		}
		return s.remove(id)
	case AdminModify:
		id, err := s.wire.ReadInt()
		if err != nil {
			return err
		}
		details, err := s.wire.ReadText()
		if err != nil {
			return err
		}
		return s.modify(int(id), details)
	case AdminSearch:
		id, err := s.readID()
		if err != nil {
			return err
		}
		return s.search(id)
	case AdminExit:
		return s.exit()
	default:
		return s.reply(MsgInvalidChoice)
	}
}

// readID reads a text frame holding a decimal book id.
func (s *Session) readID() (int, error) {
	text, err := s.wire.ReadText()
	if err != nil {
		return 0, err
	}
	id, ok := qrec.LeadingInt(text)
	if !ok {
		return 0, fmt.Errorf("%w: book id %q", errInvalidRequest, text)
	}
	return id, nil
}

func (s *Session) exit() error {
	s.fire(eventExit)
	return s.reply(MsgExiting)
}

func (s *Session) rent(id int) error {
	ok, err := s.store.RentBook(id)
	if err != nil {
		return s.storageFailure("rent", err)
	}
	if !ok {
		return s.reply(msgNotRentable(id))
	}
	s.adjustRentals(+1)
	return s.reply(msgBookDone(id, "rented"))
}

func (s *Session) giveBack(id int) error {
	ok, err := s.store.ReturnBook(id)
	if err != nil {
		return s.storageFailure("return", err)
	}
	if !ok {
		return s.reply(msgNotReturnable(id))
	}
	s.adjustRentals(-1)
	return s.reply(msgBookDone(id, "returned"))
}

// adjustRentals updates the patron's rental counter. The book itself has
// already changed, so a failure is only logged.
func (s *Session) adjustRentals(delta int) {
	found, err := s.store.AdjustRentalCount(s.member, delta)
	switch {
	case err != nil:
		s.obs.Logf(s.id, "member %d rental count: %v", s.member, err)
	case !found:
		s.obs.Logf(s.id, "member %d missing from roster", s.member)
	}
}

func (s *Session) search(id int) error {
	b, found, err := s.store.SearchBook(id)
	if err != nil {
		return s.storageFailure("search", err)
	}
	if !found {
		return s.reply(msgBookNotFound(id))
	}
	return s.reply(b.String())
}

func (s *Session) add(title, author string) error {
	b, err := s.store.AddBook(title, author)
	switch {
	case errors.Is(err, qstore.ErrInvalidRecord):
		return s.reply(MsgInvalidBookDetails)
	case err != nil:
		return s.storageFailure("add", err)
	}
	s.obs.Logf(s.id, "added book %d", b.ID)
	return s.reply(msgBookAdded(b.ID))
}

func (s *Session) remove(id int) error {
	ok, err := s.store.DeleteBook(id)
	if err != nil {
		return s.storageFailure("delete", err)
	}
	if !ok {
		return s.reply(msgBookNotFound(id))
	}
	s.obs.Logf(s.id, "deleted book %d", id)
	return s.reply(msgBookDone(id, "deleted"))
}

func (s *Session) modify(id int, details string) error {
	f := strings.Fields(details)
	if len(f) < 2 {
		return s.reply(MsgInvalidBookDetails)
	}
	ok, err := s.store.ModifyBook(id, f[0], f[1])
	switch {
	case errors.Is(err, qstore.ErrInvalidRecord):
		return s.reply(MsgInvalidBookDetails)
	case err != nil:
		return s.storageFailure("modify", err)
	case !ok:
		return s.reply(msgBookNotFound(id))
	}
	return s.reply(msgBookDone(id, "modified"))
}
