//go:build !unix && !windows

package qstore

import "os"

// Advisory locks are not taken on this platform. The store mutex still
// serializes access within one process.

func openFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

func lockFile(f *os.File, mode lockMode) error {
	return nil
}

func unlockFile(f *os.File) error {
	return nil
}
