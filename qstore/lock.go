package qstore

import (
	"os"
)

type lockMode int

const (
	lockShared lockMode = iota
	lockExclusive
)

// openLocked opens path and takes the advisory lock in the given mode.
// A writer in another process may rename a new file over path while this
// call waits for the lock; in that case the stale descriptor is dropped and
// the new file is opened and locked instead.
func openLocked(path string, flag int, mode lockMode) (*os.File, error) {
	for {
		f, err := openFile(path, flag, 0644)
		if err != nil {
			return nil, err
		}
		if err := lockFile(f, mode); err != nil {
			f.Close()
			return nil, err
		}
		same, err := stillAt(f, path)
		if err != nil {
			closeLocked(f)
			return nil, err
		}
		if same {
			return f, nil
		}
		closeLocked(f)
	}
}

// closeLocked releases the advisory lock and closes f.
func closeLocked(f *os.File) {
	unlockFile(f)
	f.Close()
}

func stillAt(f *os.File, path string) (bool, error) {
	open, err := f.Stat()
	if err != nil {
		return false, err
	}
	cur, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return os.SameFile(open, cur), nil
}
