// Package qstore persists the library catalog and member roster as line
// oriented text files.
//
// Every operation runs inside one critical section shared by both files: a
// process wide mutex plus an advisory lock on the open file, so independent
// processes that share a data directory stay consistent too. Updates stream
// the file into a temporary file and rename it over the original only when a
// record actually changed; a miss leaves the original untouched.
package qstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File names inside the data directory.
const (
	CatalogFile = "books.txt"
	RosterFile  = "members.txt"
)

var (
	// ErrStorageUnavailable is matched by every error caused by a record
	// file that could not be opened, locked, read or replaced.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidRecord is returned when a title or author is empty.
	ErrInvalidRecord = errors.New("invalid record")
)

// StorageError records the file operation that failed.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("qstore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports ErrStorageUnavailable as a match for every StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func storageErr(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

// Store owns the catalog and roster files of one data directory.
// It is safe for concurrent use.
type Store struct {
	dir string

	// mu serializes every operation on both files.
	mu sync.Mutex
}

// Open returns a Store for the data directory dir, creating the directory
// if needed. The record files are created on first write.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("qstore: directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("qstore: create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// CatalogPath returns the path of the catalog file.
func (s *Store) CatalogPath() string {
	return filepath.Join(s.dir, CatalogFile)
}

// RosterPath returns the path of the roster file.
func (s *Store) RosterPath() string {
	return filepath.Join(s.dir, RosterFile)
}
