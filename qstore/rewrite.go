package qstore

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// lineFunc maps one line of a record file, newline included, to its
// replacement. keep=false drops the line. matched reports that the line was
// the target of the update.
type lineFunc func(line string) (out string, keep bool, matched bool)

// rewrite applies fn to every line of path under an exclusive lock.
// It reports whether any line matched. A missing file is a miss.
func (s *Store) rewrite(path string, fn lineFunc) (bool, error) {
	f, err := openLocked(path, os.O_RDWR, lockExclusive)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, storageErr("open", path, err)
	}
	defer closeLocked(f)

	return rewriteLocked(f, path, fn)
}

// rewriteLocked streams f, which must be locked and positioned at the start,
// into a temporary file next to path. The temporary file replaces path only
// if some line matched; otherwise it is removed and path is left as is.
func rewriteLocked(f *os.File, path string, fn lineFunc) (matched bool, err error) {
	info, err := f.Stat()
	if err != nil {
		return false, storageErr("stat", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return false, storageErr("create temp", path, err)
	}
	tmpName := tmp.Name()
	replaced := false
	defer func() {
		if !replaced {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	r := bufio.NewReader(f)
	w := bufio.NewWriter(tmp)
	for {
		line, rerr := r.ReadString('\n')
		if len(line) > 0 {
			out, keep, hit := fn(line)
			if hit {
				matched = true
			}
			if keep {
				if _, err := w.WriteString(out); err != nil {
					return false, storageErr("write temp", tmpName, err)
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return false, storageErr("read", path, rerr)
		}
	}
	if !matched {
		return false, nil
	}

	if err := w.Flush(); err != nil {
		return false, storageErr("write temp", tmpName, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return false, storageErr("chmod temp", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return false, storageErr("sync temp", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return false, storageErr("close temp", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return false, storageErr("rename", path, err)
	}
	replaced = true
	return true, nil
}

// appendLine writes line at the end of f, which must be opened with
// O_APPEND. endsNL reports whether the existing content is empty or ends in a
// newline; if not, a newline is written first so the new record starts on
// its own line.
func appendLine(f *os.File, path, line string, endsNL bool) error {
	if !endsNL {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		return storageErr("append", path, err)
	}
	return nil
}
