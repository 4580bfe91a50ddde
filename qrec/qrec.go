// Package qrec encodes and decodes catalog and roster records.
//
// Each record is one newline terminated line of space separated fields:
//
//	<id> <title> <author> <is_rented>   catalog (books)
//	<id> <rented_count>                 roster (members)
//
// Decoding is lenient. A line that does not hold a well formed record is
// reported as malformed instead of failing, so a scan over a damaged file can
// always continue past the bad line.
package qrec

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFieldLen is the longest title or author stored in a catalog line.
const MaxFieldLen = 49

// Book is one catalog entry.
type Book struct {
	ID       int
	Title    string
	Author   string
	IsRented bool
}

// String returns the human readable summary sent to clients by search.
func (b Book) String() string {
	return fmt.Sprintf("ID: %d, Title: %s, Author: %s, Rented: %d", b.ID, b.Title, b.Author, rentedFlag(b.IsRented))
}

// Member is one roster entry. RentedCount is the number of books the member
// currently holds.
type Member struct {
	ID          int
	RentedCount int
}

func rentedFlag(rented bool) int {
	if rented {
		return 1
	}
	return 0
}

// EncodeBook returns the catalog line for b, including the trailing newline.
func EncodeBook(b Book) string {
	return fmt.Sprintf("%d %s %s %d\n", b.ID, b.Title, b.Author, rentedFlag(b.IsRented))
}

// DecodeBook parses a catalog line. The trailing newline is optional.
// It returns false if the line is malformed.
func DecodeBook(line string) (Book, bool) {
	f := strings.Fields(line)
	if len(f) != 4 {
		return Book{}, false
	}
	id, err := strconv.Atoi(f[0])
	if err != nil {
		return Book{}, false
	}
	if len(f[1]) > MaxFieldLen || len(f[2]) > MaxFieldLen {
		return Book{}, false
	}
	var rented bool
	switch f[3] {
	case "0":
	case "1":
		rented = true
	default:
		return Book{}, false
	}
	return Book{ID: id, Title: f[1], Author: f[2], IsRented: rented}, true
}

// EncodeMember returns the roster line for m, including the trailing newline.
func EncodeMember(m Member) string {
	return fmt.Sprintf("%d %d\n", m.ID, m.RentedCount)
}

// DecodeMember parses a roster line. Any amount of space may separate the
// fields. It returns false if the line is malformed.
func DecodeMember(line string) (Member, bool) {
	f := strings.Fields(line)
	if len(f) != 2 {
		return Member{}, false
	}
	id, err := strconv.Atoi(f[0])
	if err != nil {
		return Member{}, false
	}
	n, err := strconv.Atoi(f[1])
	if err != nil {
		return Member{}, false
	}
	return Member{ID: id, RentedCount: n}, true
}

// LeadingInt parses the integer at the start of s, after any leading space.
// Text following the digits is ignored. It returns false if s does not start
// with an integer.
func LeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Field normalizes a title or author to a storable value: the first
// whitespace delimited token of s, cut to at most MaxFieldLen bytes on a
// rune boundary.
// It returns "" if s holds no token.
func Field(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	v := f[0]
	if len(v) <= MaxFieldLen {
		return v
	}
	n := MaxFieldLen
	for n > 0 && !utf8.RuneStart(v[n]) {
		n--
	}
	return v[:n]
}
