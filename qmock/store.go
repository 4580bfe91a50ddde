package qmock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kardianos/qcat/qstore"
)

// NewStore opens a record store in a fresh temporary directory seeded with
// the given catalog and roster contents. Empty contents leave the file absent.
func NewStore(t testing.TB, catalog, roster string) *qstore.Store {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		qstore.CatalogFile: catalog,
		qstore.RosterFile:  roster,
	} {
		if content == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	s, err := qstore.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// ReadFile returns the contents of a store file, or "" if it does not exist.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
