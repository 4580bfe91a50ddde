// Package qconf loads the catalog server and client configuration file.
//
// The file holds one key per entry in the key=T{value} form; see Load.
// Command line flags are applied on top of the loaded values by the caller.
package qconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the default data directory.
const AppName = "qcat"

const (
	TransportTCP  = "tcp"
	TransportQUIC = "quic"
)

var (
	// ErrSyntax is returned for a malformed config file.
	ErrSyntax = errors.New("qconf: syntax error")

	// ErrTransport is returned for an unknown transport name.
	ErrTransport = errors.New("qconf: unknown transport")
)

// Config keys.
const (
	keyListen    = "listen"
	keyServer    = "server"
	keyTransport = "transport"
	keyData      = "data"
	keyAccounts  = "accounts"
	keyTLSCert   = "tls-cert"
	keyTLSKey    = "tls-key"
	keyTLSCA     = "tls-ca"
)

// Config is the combined server and client configuration.
type Config struct {
	// Listen is the server listen address.
	Listen string
	// Server is the address clients connect to.
	Server string
	// Transport is TransportTCP or TransportQUIC.
	Transport string
	// DataDir holds the catalog and roster files.
	DataDir string
	// Accounts is the account database path. Empty means DataDir/accounts.db.
	Accounts string

	// TLSCert and TLSKey are the QUIC server certificate files. When both
	// are empty a self-signed certificate is generated at start.
	TLSCert string
	TLSKey  string
	// TLSCA verifies the server certificate on the client. Empty disables
	// verification.
	TLSCA string
}

// Default returns the built in configuration.
func Default() Config {
	return Config{
		Listen:    ":8080",
		Server:    "127.0.0.1:8080",
		Transport: TransportTCP,
		DataDir:   defaultDataDir(AppName),
	}
}

// AccountsPath returns the account database path.
func (c Config) AccountsPath() string {
	if c.Accounts != "" {
		return c.Accounts
	}
	return filepath.Join(c.DataDir, "accounts.db")
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportTCP, TransportQUIC:
	default:
		return fmt.Errorf("%w %q", ErrTransport, c.Transport)
	}
	if c.DataDir == "" {
		return errors.New("qconf: data directory is empty")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("qconf: tls-cert and tls-key must be set together")
	}
	return nil
}

func (c *Config) fields() map[string]*string {
	return map[string]*string{
		keyListen:    &c.Listen,
		keyServer:    &c.Server,
		keyTransport: &c.Transport,
		keyData:      &c.DataDir,
		keyAccounts:  &c.Accounts,
		keyTLSCert:   &c.TLSCert,
		keyTLSKey:    &c.TLSKey,
		keyTLSCA:     &c.TLSCA,
	}
}

// Set assigns the field named by a config key, as used in the file and
// by command line flags.
func (c *Config) Set(key, value string) error {
	p, ok := c.fields()[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", ErrSyntax, key)
	}
	*p = value
	return nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// Paths may start with ~ and contain environment variables. Unknown keys
// are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(expandPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	kv, err := readKeyValue(f)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	for key, value := range kv {
		if err := cfg.Set(key, string(value)); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, p := range []*string{&cfg.DataDir, &cfg.Accounts, &cfg.TLSCert, &cfg.TLSKey, &cfg.TLSCA} {
		if *p != "" {
			*p = expandPath(*p)
		}
	}
	return cfg, cfg.Validate()
}

// Save writes the non-empty fields of cfg to path.
func Save(path string, cfg Config) error {
	kv := make(keyValue)
	for key, p := range cfg.fields() {
		if *p != "" {
			kv[key] = []byte(*p)
		}
	}
	return saveKeyValue(expandPath(path), kv)
}
