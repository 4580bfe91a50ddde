package qconf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("Load missing = %+v, want defaults", cfg)
	}
	if cfg, err := Load(""); err != nil || cfg != Default() {
		t.Errorf("Load empty path = %+v, %v", cfg, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QCAT_TEST_DIR", dir)
	path := filepath.Join(dir, "qcat.conf")
	content := `# catalog server
listen=T{127.0.0.1:9000}
transport=T{quic}
data=T{$QCAT_TEST_DIR/data}
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "127.0.0.1:9000" || cfg.Transport != TransportQUIC {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DataDir != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.AccountsPath() != filepath.Join(dir, "data", "accounts.db") {
		t.Errorf("AccountsPath = %q", cfg.AccountsPath())
	}
	if cfg.Server != Default().Server {
		t.Errorf("Server = %q, want default", cfg.Server)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"unknown key", "colour=T{red}\n", ErrSyntax},
		{"bad transport", "transport=T{udp}\n", ErrTransport},
		{"syntax", "listen\n", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "qcat.conf")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, tt.want) {
				t.Errorf("Load = %v, want %v", err, tt.want)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "qcat.conf")
	os.WriteFile(path, []byte("tls-cert=T{/a.pem}\n"), 0600)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted tls-cert without tls-key")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "qcat.conf")
	cfg := Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Accounts = filepath.Join(t.TempDir(), "acct.db")
	cfg.Transport = TransportQUIC

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("mode = %v", fi.Mode().Perm())
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("Load = %+v, want %+v", got, cfg)
	}
}
