package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/kardianos/qcat"
	"github.com/kardianos/qcat/qconf"
)

// ClientOptions configures the client mode.
type ClientOptions struct {
	Config    qconf.Config
	Role      string
	Username  string
	Password  string
	MemberID  int
	RentCount int

	// Command is the command name followed by its arguments.
	Command []string
}

var errUsage = errors.New("usage")

// RunClient logs in, runs one command and exits. Server replies are
// written to out, one per line.
func RunClient(ctx context.Context, opts *ClientOptions, out io.Writer) error {
	c, err := dial(ctx, opts.Config)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close()

	var resp string
	switch opts.Role {
	case "patron":
		resp, err = c.LoginPatron(opts.Username, opts.Password, opts.MemberID, int32(opts.RentCount))
	case "admin":
		resp, err = c.LoginAdmin(opts.Username, opts.Password)
	default:
		return fmt.Errorf("%w: role must be patron or admin, got %q", errUsage, opts.Role)
	}
	fmt.Fprintln(out, resp)
	if err != nil {
		return err
	}

	if len(opts.Command) > 0 {
		resp, err := runCommand(c, opts.Command)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp)
	}

	resp, err = c.Exit()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resp)
	return nil
}

func dial(ctx context.Context, cfg qconf.Config) (*qcat.Client, error) {
	if cfg.Transport != qconf.TransportQUIC {
		return qcat.Dial(ctx, "tcp", cfg.Server)
	}
	tlsConf, err := qcat.ClientTLSConfig(cfg.TLSCA, "")
	if err != nil {
		return nil, err
	}
	return qcat.DialQUIC(ctx, cfg.Server, tlsConf)
}

func runCommand(c *qcat.Client, cmd []string) (string, error) {
	name, args := cmd[0], cmd[1:]
	need := map[string]int{
		"rent": 1, "return": 1, "search": 1, "delete": 1,
		"add": 2, "modify": 3,
	}
	n, ok := need[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	if len(args) != n {
		return "", fmt.Errorf("%w: %s takes %d arguments", errUsage, name, n)
	}

	var id int
	if name != "add" {
		var err error
		id, err = strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("%w: bad book id %q", errUsage, args[0])
		}
	}

	switch name {
	case "rent":
		return c.Rent(id)
	case "return":
		return c.Return(id)
	case "search":
		return c.Search(id)
	case "delete":
		return c.Delete(id)
	case "add":
		_, resp, err := c.Add(args[0], args[1])
		return resp, err
	default:
		return c.Modify(id, args[1], args[2])
	}
}
