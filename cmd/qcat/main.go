package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kardianos/qcat/qconf"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	mode := os.Args[1]
	args := os.Args[2:]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var err error
	switch mode {
	case "server":
		err = runServerMode(ctx, args)
	case "client":
		err = runClientMode(ctx, args)
	case "account":
		err = runAccountMode(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode: %s\n", mode)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: qcat <mode> [options]

Modes:
  server    Start the catalog server
  client    Log in and run one catalog command
  account   Manage login accounts (add, remove, list, seed)

Run 'qcat <mode> -h' for mode-specific options.
`)
}

// configFlags registers flags for config keys. Flags given on the command
// line override the config file.
type configFlags struct {
	path   string
	values map[string]*string
}

func addConfigFlags(fs *flag.FlagSet, keys ...string) *configFlags {
	usage := map[string]string{
		"listen":    "Address to listen on",
		"server":    "Server address",
		"transport": "Transport: tcp or quic",
		"data":      "Data directory for the catalog and roster files",
		"accounts":  "Account database path (default <data>/accounts.db)",
		"tls-cert":  "QUIC certificate file (default self-signed)",
		"tls-key":   "QUIC key file",
		"tls-ca":    "CA file to verify the QUIC server (default no verification)",
	}
	cf := &configFlags{values: make(map[string]*string)}
	fs.StringVar(&cf.path, "config", "", "Config file; flags override its values")
	for _, key := range keys {
		cf.values[key] = fs.String(key, "", usage[key])
	}
	return cf
}

func (cf *configFlags) load(fs *flag.FlagSet) (qconf.Config, error) {
	cfg, err := qconf.Load(cf.path)
	if err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		if v, ok := cf.values[f.Name]; ok && err == nil {
			err = cfg.Set(f.Name, *v)
		}
	})
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func runServerMode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	cf := addConfigFlags(fs, "listen", "transport", "data", "accounts", "tls-cert", "tls-key")
	opts := &ServerOptions{}
	fs.BoolVar(&opts.SeedDefaults, "seed-defaults", false, "Install the user/user and admin/admin accounts if no accounts exist")
	fs.BoolVar(&opts.Verbose, "v", false, "Log session state changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.load(fs)
	if err != nil {
		return err
	}
	opts.Config = cfg
	return RunServer(ctx, opts)
}

func runClientMode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("client", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: qcat client [options] [command args...]

Commands:
  rent ID | return ID | search ID          (patron)
  add TITLE AUTHOR | delete ID | search ID (admin)
  modify ID TITLE AUTHOR                   (admin)

Without a command the client only logs in.

`)
		fs.PrintDefaults()
	}
	cf := addConfigFlags(fs, "server", "transport", "tls-ca")
	opts := &ClientOptions{}
	fs.StringVar(&opts.Role, "role", "patron", "Login role: patron or admin")
	fs.StringVar(&opts.Username, "user", "", "Username")
	fs.StringVar(&opts.Password, "password", "", "Password")
	fs.IntVar(&opts.MemberID, "member", 0, "Member id (patron)")
	fs.IntVar(&opts.RentCount, "rent-count", 0, "Rental count to register for the member (patron)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.load(fs)
	if err != nil {
		return err
	}
	opts.Config = cfg
	opts.Command = fs.Args()
	return RunClient(ctx, opts, os.Stdout)
}

func runAccountMode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("account", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: qcat account [options] <command>

Commands:
  add USER PASSWORD patron|admin
  remove USER
  list
  seed

The server must not be running; it holds the account database open.

`)
		fs.PrintDefaults()
	}
	cf := addConfigFlags(fs, "data", "accounts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.load(fs)
	if err != nil {
		return err
	}
	return RunAccount(ctx, &AccountOptions{Config: cfg, Command: fs.Args()}, os.Stdout)
}
