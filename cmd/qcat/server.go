package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/kardianos/qcat"
	"github.com/kardianos/qcat/qauth"
	"github.com/kardianos/qcat/qconf"
	"github.com/kardianos/qcat/qstore"
)

// ServerOptions configures the server mode.
type ServerOptions struct {
	Config       qconf.Config
	SeedDefaults bool
	Verbose      bool

	// BcryptCost overrides the password hash cost. Zero is the default.
	BcryptCost int
}

// ServerResult contains information about the running server.
type ServerResult struct {
	Addr string // The actual listening address
}

// RunServer starts the catalog server with the given options.
// It blocks until the context is cancelled.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	return RunServerWithResult(ctx, opts, nil)
}

// RunServerWithResult starts the server and optionally reports startup info.
func RunServerWithResult(ctx context.Context, opts *ServerOptions, resultCh chan<- *ServerResult) error {
	cfg := opts.Config
	logger := log.New(os.Stderr, "qcat: ", log.LstdFlags)

	store, err := qstore.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	auth, err := qauth.Open(cfg.AccountsPath(), qauth.Options{Cost: opts.BcryptCost})
	if err != nil {
		return fmt.Errorf("open accounts: %w", err)
	}
	defer auth.Close()

	if opts.SeedDefaults {
		seeded, err := auth.SeedDefaults()
		if err != nil {
			return fmt.Errorf("seed accounts: %w", err)
		}
		if seeded {
			logger.Printf("installed default accounts")
		}
	}
	accounts, err := auth.Accounts()
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		logger.Printf("no accounts in %s; add one with 'qcat account add' or start with -seed-defaults", cfg.AccountsPath())
	}

	server, err := qcat.NewServer(qcat.ServerOpt{
		Store:    store,
		Auth:     auth,
		Observer: qcat.NewLogObserver(logger, opts.Verbose),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	switch cfg.Transport {
	case qconf.TransportQUIC:
		conn, err := net.ListenPacket("udp", cfg.Listen)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		defer conn.Close()

		host, _, _ := net.SplitHostPort(cfg.Listen)
		if host == "" {
			host = "localhost"
		}
		tlsConf, err := qcat.ServerTLSConfig(cfg.TLSCert, cfg.TLSKey, host)
		if err != nil {
			return fmt.Errorf("tls: %w", err)
		}

		addr := conn.LocalAddr().String()
		logger.Printf("serving %s over quic on %s", cfg.DataDir, addr)
		if resultCh != nil {
			resultCh <- &ServerResult{Addr: addr}
		}
		return server.ServeQUIC(ctx, conn, tlsConf)
	default:
		l, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		defer l.Close()

		addr := l.Addr().String()
		logger.Printf("serving %s over tcp on %s", cfg.DataDir, addr)
		if resultCh != nil {
			resultCh <- &ServerResult{Addr: addr}
		}
		return server.Serve(ctx, l)
	}
}
