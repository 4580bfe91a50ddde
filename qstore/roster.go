package qstore

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/kardianos/qcat/qrec"
)

// RegisterMember records a member in the roster with the given rental count.
// A new member is appended; an existing member has its count replaced.
// Negative counts are stored as zero.
func (s *Store) RegisterMember(id, count int) error {
	if count < 0 {
		count = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.RosterPath()
	f, err := openLocked(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, lockExclusive)
	if err != nil {
		return storageErr("open", path, err)
	}
	defer closeLocked(f)

	found, endsNL, err := findMember(f, id)
	if err != nil {
		return storageErr("read", path, err)
	}
	if !found {
		return appendLine(f, path, qrec.EncodeMember(qrec.Member{ID: id, RentedCount: count}), endsNL)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return storageErr("seek", path, err)
	}
	done := false
	_, err = rewriteLocked(f, path, func(line string) (string, bool, bool) {
		m, ok := qrec.DecodeMember(line)
		if done || !ok || m.ID != id {
			return line, true, false
		}
		done = true
		m.RentedCount = count
		return qrec.EncodeMember(m), true, true
	})
	return err
}

// AdjustRentalCount adds delta to the rental count of the member with the
// given id, never going below zero. It returns false, leaving the roster
// untouched, if the member is absent.
func (s *Store) AdjustRentalCount(id, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := false
	return s.rewrite(s.RosterPath(), func(line string) (string, bool, bool) {
		m, ok := qrec.DecodeMember(line)
		if done || !ok || m.ID != id {
			return line, true, false
		}
		done = true
		m.RentedCount = max(m.RentedCount+delta, 0)
		return qrec.EncodeMember(m), true, true
	})
}

// Member returns the roster entry for id.
func (s *Store) Member(id int) (qrec.Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.RosterPath()
	f, err := openLocked(path, os.O_RDONLY, lockShared)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return qrec.Member{}, false, nil
		}
		return qrec.Member{}, false, storageErr("open", path, err)
	}
	defer closeLocked(f)

	r := bufio.NewReader(f)
	for {
		line, rerr := r.ReadString('\n')
		if m, ok := qrec.DecodeMember(line); ok && m.ID == id {
			return m, true, nil
		}
		if rerr == io.EOF {
			return qrec.Member{}, false, nil
		}
		if rerr != nil {
			return qrec.Member{}, false, storageErr("read", path, rerr)
		}
	}
}

// findMember scans r for a roster line with the given id. It also reports
// whether the content is empty or ends in a newline.
func findMember(r io.Reader, id int) (found bool, endsNL bool, err error) {
	endsNL = true
	br := bufio.NewReader(r)
	for {
		line, rerr := br.ReadString('\n')
		if len(line) > 0 {
			endsNL = line[len(line)-1] == '\n'
			if m, ok := qrec.DecodeMember(line); ok && m.ID == id {
				found = true
			}
		}
		if rerr == io.EOF {
			return found, endsNL, nil
		}
		if rerr != nil {
			return false, false, rerr
		}
	}
}
