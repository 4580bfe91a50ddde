package qstore

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/kardianos/qcat/qrec"
)

// NextID returns one more than the largest id that starts a line of path,
// or 1 if the file does not exist or holds no id.
//
// NextID takes no lock. Callers that append the new record must hold the
// store's exclusive lock from allocation to append; AddBook does.
func NextID(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 1, nil
		}
		return 0, err
	}
	defer f.Close()

	maxID, _, err := scanMaxID(f)
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// scanMaxID reads r to the end and returns the largest leading id, zero if
// there is none, and whether the content is empty or ends in a newline.
func scanMaxID(r io.Reader) (maxID int, endsNL bool, err error) {
	endsNL = true
	br := bufio.NewReader(r)
	for {
		line, rerr := br.ReadString('\n')
		if len(line) > 0 {
			endsNL = line[len(line)-1] == '\n'
			if id, ok := qrec.LeadingInt(line); ok && id > maxID {
				maxID = id
			}
		}
		if rerr == io.EOF {
			return maxID, endsNL, nil
		}
		if rerr != nil {
			return 0, false, rerr
		}
	}
}
