package qcat

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/kardianos/qcat/qwire"
	"github.com/quic-go/quic-go"
)

var (
	// ErrLoginRejected is returned when the server does not accept a login.
	ErrLoginRejected = errors.New("qcat: login rejected")

	// ErrNotLoggedIn is returned for a command sent before a successful login.
	ErrNotLoggedIn = errors.New("qcat: not logged in")

	// ErrWrongRole is returned for a command the logged in role cannot send.
	ErrWrongRole = errors.New("qcat: command not available for role")
)

// Client speaks the catalog protocol on one connection.
// Methods are safe for concurrent use; requests are sent one at a time.
type Client struct {
	rwc  io.ReadWriteCloser
	wire *qwire.Conn

	mu   sync.Mutex
	role Role
}

// NewClient returns a client using rwc.
func NewClient(rwc io.ReadWriteCloser) *Client {
	return &Client{
		rwc:  rwc,
		wire: qwire.NewConn(rwc),
	}
}

// Dial connects to a server over a stream network such as "tcp" or "unix".
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

type quicClientStream struct {
	*quic.Stream
	conn *quic.Conn
}

func (s *quicClientStream) Close() error {
	err := s.Stream.Close()
	_ = s.conn.CloseWithError(0, "client closing")
	return err
}

// DialQUIC connects to a server started with ServeQUIC.
func DialQUIC(ctx context.Context, addr string, tlsConf *tls.Config) (*Client, error) {
	conn, err := quic.DialAddr(ctx, addr, tlsConf, &quic.Config{
		KeepAlivePeriod: defaultKeepalivePeriod,
	})
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(1, "stream error")
		return nil, err
	}
	return NewClient(&quicClientStream{Stream: stream, conn: conn}), nil
}

// Close closes the connection without sending an exit command.
func (c *Client) Close() error {
	return c.rwc.Close()
}

// Role returns the role of the current login, or zero if not logged in.
func (c *Client) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// call writes frames, which must be int32 or string, and reads the reply.
func (c *Client) call(frames ...interface{}) (string, error) {
	for _, f := range frames {
		var err error
		switch v := f.(type) {
		case int32:
			err = c.wire.WriteInt(v)
		case string:
			err = c.wire.WriteText(v)
		default:
			panic(fmt.Sprintf("qcat: unsupported frame %T", f))
		}
		if err != nil {
			return "", err
		}
	}
	return c.wire.ReadText()
}

// LoginPatron logs in as a patron. memberID names the roster entry and
// rentCount seeds or resets its rental counter.
func (c *Client) LoginPatron(username, password string, memberID int, rentCount int32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.role != 0 {
		return "", ErrWrongRole
	}

	resp, err := c.call(int32(RolePatron), username+" "+password+" "+strconv.Itoa(memberID))
	if err != nil {
		return "", err
	}
	if resp != MsgLoggedIn {
		return resp, ErrLoginRejected
	}
	resp, err = c.call(rentCount)
	if err != nil {
		return "", err
	}
	if resp != msgMemberLoggedIn(memberID) {
		return resp, ErrLoginRejected
	}
	c.role = RolePatron
	return resp, nil
}

// LoginAdmin logs in as an administrator.
func (c *Client) LoginAdmin(username, password string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.role != 0 {
		return "", ErrWrongRole
	}

	resp, err := c.call(int32(RoleAdmin), username+" "+password)
	if err != nil {
		return "", err
	}
	if resp != MsgLoggedIn {
		return resp, ErrLoginRejected
	}
	c.role = RoleAdmin
	return resp, nil
}

// command sends a menu selector for role followed by its payload frames.
func (c *Client) command(role Role, selector int32, payload ...interface{}) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.role {
	case 0:
		return "", ErrNotLoggedIn
	case role:
	default:
		return "", ErrWrongRole
	}
	return c.call(append([]interface{}{selector}, payload...)...)
}

// Rent rents a book as a patron.
func (c *Client) Rent(id int) (string, error) {
	return c.command(RolePatron, PatronRent, int32(id))
}

// Return returns a rented book as a patron.
func (c *Client) Return(id int) (string, error) {
	return c.command(RolePatron, PatronReturn, strconv.Itoa(id))
}

// Search looks up a book. Both roles may search.
func (c *Client) Search(id int) (string, error) {
	switch c.Role() {
	case RoleAdmin:
		return c.command(RoleAdmin, AdminSearch, strconv.Itoa(id))
	default:
		return c.command(RolePatron, PatronSearch, strconv.Itoa(id))
	}
}

// Add adds a book as an administrator and returns its id. The id is 0 if
// the server refused the book; resp then holds the reason.
func (c *Client) Add(title, author string) (id int, resp string, err error) {
	resp, err = c.command(RoleAdmin, AdminAdd, title, author)
	if err != nil {
		return 0, resp, err
	}
	rest, ok := strings.CutPrefix(resp, "Book added with ID: ")
	if !ok {
		return 0, resp, nil
	}
	id, err = strconv.Atoi(rest)
	if err != nil {
		return 0, resp, fmt.Errorf("qcat: bad add response %q: %w", resp, err)
	}
	return id, resp, nil
}

// Delete deletes a book as an administrator.
func (c *Client) Delete(id int) (string, error) {
	return c.command(RoleAdmin, AdminDelete, strconv.Itoa(id))
}

// Modify sets the title and author of a book as an administrator.
func (c *Client) Modify(id int, title, author string) (string, error) {
	return c.command(RoleAdmin, AdminModify, int32(id), title+" "+author)
}

// Exit ends the session. The connection should be closed afterwards.
func (c *Client) Exit() (string, error) {
	c.mu.Lock()
	role := c.role
	c.mu.Unlock()

	sel := PatronExit
	if role == RoleAdmin {
		sel = AdminExit
	}
	resp, err := c.command(role, sel)
	if err != nil {
		return resp, err
	}
	c.mu.Lock()
	c.role = 0
	c.mu.Unlock()
	return resp, nil
}
