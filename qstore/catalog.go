package qstore

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/kardianos/qcat/qrec"
)

// AddBook appends a new available book and returns it with its allocated id.
// Title and author are normalized with qrec.Field; ErrInvalidRecord is
// returned if either is empty. The catalog is created if missing.
func (s *Store) AddBook(title, author string) (qrec.Book, error) {
	b := qrec.Book{Title: qrec.Field(title), Author: qrec.Field(author)}
	if b.Title == "" || b.Author == "" {
		return qrec.Book{}, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.CatalogPath()
	f, err := openLocked(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, lockExclusive)
	if err != nil {
		return qrec.Book{}, storageErr("open", path, err)
	}
	defer closeLocked(f)

	maxID, endsNL, err := scanMaxID(f)
	if err != nil {
		return qrec.Book{}, storageErr("read", path, err)
	}
	b.ID = maxID + 1
	if err := appendLine(f, path, qrec.EncodeBook(b), endsNL); err != nil {
		return qrec.Book{}, err
	}
	return b, nil
}

// DeleteBook removes the book with the given id. It returns false if no such
// book exists, in which case the catalog is not modified.
func (s *Store) DeleteBook(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := false
	return s.rewrite(s.CatalogPath(), func(line string) (string, bool, bool) {
		b, ok := qrec.DecodeBook(line)
		if done || !ok || b.ID != id {
			return line, true, false
		}
		done = true
		return "", false, true
	})
}

// ModifyBook replaces the title and author of the book with the given id.
// The rental status is carried over unchanged. It returns false if no such
// book exists.
func (s *Store) ModifyBook(id int, title, author string) (bool, error) {
	title, author = qrec.Field(title), qrec.Field(author)
	if title == "" || author == "" {
		return false, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	done := false
	return s.rewrite(s.CatalogPath(), func(line string) (string, bool, bool) {
		b, ok := qrec.DecodeBook(line)
		if done || !ok || b.ID != id {
			return line, true, false
		}
		done = true
		b.Title = title
		b.Author = author
		return qrec.EncodeBook(b), true, true
	})
}

// RentBook marks the book with the given id as rented. It returns false if
// the book does not exist or is already rented.
func (s *Store) RentBook(id int) (bool, error) {
	return s.setRented(id, true)
}

// ReturnBook marks the book with the given id as available. It returns false
// if the book does not exist or is not rented.
func (s *Store) ReturnBook(id int) (bool, error) {
	return s.setRented(id, false)
}

func (s *Store) setRented(id int, rented bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := false
	return s.rewrite(s.CatalogPath(), func(line string) (string, bool, bool) {
		b, ok := qrec.DecodeBook(line)
		if done || !ok || b.ID != id || b.IsRented == rented {
			return line, true, false
		}
		done = true
		b.IsRented = rented
		return qrec.EncodeBook(b), true, true
	})
}

// SearchBook returns the first book with the given id under a shared lock.
// It returns false if no such book exists.
func (s *Store) SearchBook(id int) (qrec.Book, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.CatalogPath()
	f, err := openLocked(path, os.O_RDONLY, lockShared)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return qrec.Book{}, false, nil
		}
		return qrec.Book{}, false, storageErr("open", path, err)
	}
	defer closeLocked(f)

	r := bufio.NewReader(f)
	for {
		line, rerr := r.ReadString('\n')
		if len(line) > 0 {
			if b, ok := qrec.DecodeBook(line); ok && b.ID == id {
				return b, true, nil
			}
		}
		if rerr == io.EOF {
			return qrec.Book{}, false, nil
		}
		if rerr != nil {
			return qrec.Book{}, false, storageErr("read", path, rerr)
		}
	}
}
