//go:build unix

package qstore

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestLockReleasedAfterOperation(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddBook("T", "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RentBook(1); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(s.CatalogPath())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		t.Fatalf("catalog still locked after operations: %v", err)
	}
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
