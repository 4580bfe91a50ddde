package qcat_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/kardianos/qcat"
	"github.com/kardianos/qcat/qmock"
)

func pipeClient(t *testing.T, store string) *qcat.Client {
	t.Helper()
	srv := newTestServer(t, qmock.NewStore(t, store, ""))
	server, client := net.Pipe()
	go srv.ServeConn(context.Background(), server)
	c := qcat.NewClient(client)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientRoles(t *testing.T) {
	c := pipeClient(t, "1 A B 0\n")

	if _, err := c.Rent(1); !errors.Is(err, qcat.ErrNotLoggedIn) {
		t.Errorf("Rent before login = %v", err)
	}
	resp, err := c.LoginAdmin("admin", "wrong")
	if !errors.Is(err, qcat.ErrLoginRejected) || resp != qcat.MsgAuthFailed {
		t.Errorf("LoginAdmin wrong password = %q, %v", resp, err)
	}
	if _, err := c.LoginAdmin("admin", "admin"); err != nil {
		t.Fatal(err)
	}
	if c.Role() != qcat.RoleAdmin {
		t.Errorf("Role = %s", c.Role())
	}
	if _, err := c.Rent(1); !errors.Is(err, qcat.ErrWrongRole) {
		t.Errorf("Rent as admin = %v", err)
	}
	if _, err := c.LoginPatron("user", "user", 1, 0); !errors.Is(err, qcat.ErrWrongRole) {
		t.Errorf("LoginPatron while logged in = %v", err)
	}

	id, resp, err := c.Add("", "B")
	if err != nil || id != 0 || resp != qcat.MsgInvalidBookDetails {
		t.Errorf("Add empty title = %d, %q, %v", id, resp, err)
	}
	resp, err = c.Modify(1, "C", "D")
	if err != nil || resp != "Book with ID 1 has been modified" {
		t.Errorf("Modify = %q, %v", resp, err)
	}
	resp, err = c.Delete(1)
	if err != nil || resp != "Book with ID 1 has been deleted" {
		t.Errorf("Delete = %q, %v", resp, err)
	}
	if _, err := c.Exit(); err != nil {
		t.Fatal(err)
	}
	if c.Role() != 0 {
		t.Errorf("Role after exit = %s", c.Role())
	}
}

func TestClientPatron(t *testing.T) {
	c := pipeClient(t, "4 A B 1\n")

	if _, err := c.LoginPatron("user", "user", 12, 1); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Add("T", "A"); !errors.Is(err, qcat.ErrWrongRole) {
		t.Errorf("Add as patron = %v", err)
	}
	resp, err := c.Return(4)
	if err != nil || resp != "Book with ID 4 has been returned" {
		t.Errorf("Return = %q, %v", resp, err)
	}
	resp, err = c.Search(4)
	if err != nil || resp != "ID: 4, Title: A, Author: B, Rented: 0" {
		t.Errorf("Search = %q, %v", resp, err)
	}
}
