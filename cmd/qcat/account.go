package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kardianos/qcat"
	"github.com/kardianos/qcat/qauth"
	"github.com/kardianos/qcat/qconf"
)

// AccountOptions configures the account mode.
type AccountOptions struct {
	Config  qconf.Config
	Command []string

	// BcryptCost overrides the password hash cost. Zero is the default.
	BcryptCost int
}

func parseRole(s string) (qcat.Role, error) {
	switch s {
	case "patron":
		return qcat.RolePatron, nil
	case "admin":
		return qcat.RoleAdmin, nil
	}
	return 0, fmt.Errorf("%w: role must be patron or admin, got %q", errUsage, s)
}

// RunAccount runs one account command against the account database.
func RunAccount(ctx context.Context, opts *AccountOptions, out io.Writer) error {
	if len(opts.Command) == 0 {
		return fmt.Errorf("%w: missing account command", errUsage)
	}
	auth, err := qauth.Open(opts.Config.AccountsPath(), qauth.Options{Cost: opts.BcryptCost})
	if err != nil {
		return fmt.Errorf("open accounts: %w", err)
	}
	defer auth.Close()

	name, args := opts.Command[0], opts.Command[1:]
	switch name {
	case "add":
		if len(args) != 3 {
			return fmt.Errorf("%w: add USER PASSWORD ROLE", errUsage)
		}
		role, err := parseRole(args[2])
		if err != nil {
			return err
		}
		if err := auth.SetAccount(args[0], args[1], role); err != nil {
			return err
		}
		fmt.Fprintf(out, "account %s set (%s)\n", args[0], role)
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("%w: remove USER", errUsage)
		}
		if err := auth.DeleteAccount(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "account %s removed\n", args[0])
	case "list":
		list, err := auth.Accounts()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USERNAME\tROLE\tCREATED")
		for _, a := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Username, a.Role, a.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	case "seed":
		seeded, err := auth.SeedDefaults()
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintln(out, "default accounts installed")
		} else {
			fmt.Fprintln(out, "accounts exist; nothing installed")
		}
	default:
		return fmt.Errorf("%w: unknown account command %q", errUsage, name)
	}
	return nil
}
