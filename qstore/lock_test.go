//go:build unix || windows

package qstore

import (
	"os"
	"sync"
	"testing"

	"github.com/kardianos/qcat/qrec"
)

// Two stores over the same directory have separate mutexes, like two
// processes; only the advisory lock keeps them from interleaving.
func TestSharedDirectoryStores(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	const perStore = 25
	var wg sync.WaitGroup
	for _, s := range []*Store{a, b} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for i := 0; i < perStore; i++ {
				bk, err := s.AddBook("T", "A")
				if err != nil {
					t.Errorf("AddBook: %v", err)
					return
				}
				if _, err := s.RentBook(bk.ID); err != nil {
					t.Errorf("RentBook: %v", err)
					return
				}
			}
		}(s)
	}
	wg.Wait()

	data, err := os.ReadFile(a.CatalogPath())
	if err != nil {
		t.Fatal(err)
	}
	lines := splitLines(string(data))
	if len(lines) != 2*perStore {
		t.Fatalf("catalog has %d lines, want %d", len(lines), 2*perStore)
	}
	seen := make(map[int]bool)
	for _, line := range lines {
		bk, ok := qrec.DecodeBook(line)
		if !ok {
			t.Fatalf("malformed line %q", line)
		}
		if seen[bk.ID] {
			t.Errorf("duplicate id %d", bk.ID)
		}
		seen[bk.ID] = true
		if !bk.IsRented {
			t.Errorf("book %d lost its rent update", bk.ID)
		}
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
