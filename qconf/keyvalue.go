package qconf

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// keyValue holds key-value pairs from a config file.
// Format:
//
//	key=T{text value}
//	key=T{
//	multi-line text
//	}
//	key=B{base64encoded}
//
// Text is used when the value contains only printable ASCII and no braces.
// Binary is used otherwise. Leading/trailing newlines in text are trimmed.
type keyValue map[string][]byte

// needsBinaryEncoding returns true if the value should use binary (base64) encoding.
func needsBinaryEncoding(data []byte) bool {
	for _, b := range data {
		if b < 0x20 && b != '\n' && b != '\t' && b != '\r' {
			return true
		}
		if b >= 0x7f {
			return true
		}
		if b == '{' || b == '}' {
			return true
		}
	}
	return false
}

func readKeyValue(r io.Reader) (keyValue, error) {
	kv := make(keyValue)
	scanner := bufio.NewScanner(r)

	var multiLineKey string
	var multiLineValue bytes.Buffer
	var isBinary bool

	for scanner.Scan() {
		line := scanner.Text()

		if multiLineKey != "" {
			if line != "}" {
				if multiLineValue.Len() > 0 {
					multiLineValue.WriteByte('\n')
				}
				multiLineValue.WriteString(line)
				continue
			}
			var value []byte
			if isBinary {
				decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(multiLineValue.String(), "\n", ""))
				if err != nil {
					return nil, fmt.Errorf("decode base64 for key %q: %w", multiLineKey, err)
				}
				value = decoded
			} else {
				value = bytes.Clone(bytes.Trim(multiLineValue.Bytes(), "\n"))
			}
			kv[multiLineKey] = value
			multiLineKey = ""
			multiLineValue.Reset()
			continue
		}

		// Skip empty lines and comments.
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%w: line %q has no '='", ErrSyntax, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case value == "T{":
			multiLineKey, isBinary = key, false
		case value == "B{":
			multiLineKey, isBinary = key, true
		case strings.HasPrefix(value, "T{") && strings.HasSuffix(value, "}"):
			kv[key] = []byte(value[2 : len(value)-1])
		case strings.HasPrefix(value, "B{") && strings.HasSuffix(value, "}"):
			decoded, err := base64.StdEncoding.DecodeString(value[2 : len(value)-1])
			if err != nil {
				return nil, fmt.Errorf("decode base64 for key %q: %w", key, err)
			}
			kv[key] = decoded
		default:
			return nil, fmt.Errorf("%w: value for key %q must be T{...} or B{...}", ErrSyntax, key)
		}
	}
	if multiLineKey != "" {
		return nil, fmt.Errorf("%w: unterminated value for key %q", ErrSyntax, multiLineKey)
	}
	return kv, scanner.Err()
}

// saveKeyValue writes kv to path through a temporary file and rename.
func saveKeyValue(path string, kv keyValue) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := writeKeyValue(tmp, kv); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func writeKeyValue(w io.Writer, kv keyValue) error {
	keyList := make([]string, 0, len(kv))
	for key := range kv {
		keyList = append(keyList, key)
	}
	sort.Strings(keyList)

	for _, key := range keyList {
		value := kv[key]
		var err error
		switch {
		case needsBinaryEncoding(value):
			_, err = fmt.Fprintf(w, "%s=B{%s}\n", key, base64.StdEncoding.EncodeToString(value))
		case bytes.Contains(value, []byte{'\n'}):
			_, err = fmt.Fprintf(w, "%s=T{\n%s\n}\n", key, value)
		default:
			_, err = fmt.Fprintf(w, "%s=T{%s}\n", key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// expandPath expands ~ and environment variables in a path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.Expand(path, os.Getenv)
}
