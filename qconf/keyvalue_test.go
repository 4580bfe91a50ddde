package qconf

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadKeyValue(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "simple text value",
			input: `key=T{value}`,
			want:  map[string]string{"key": "value"},
		},
		{
			name: "multiple keys",
			input: `
foo=T{bar}
baz=T{qux}
`,
			want: map[string]string{"foo": "bar", "baz": "qux"},
		},
		{
			name: "multi-line text value",
			input: `key=T{
line1
line2
}`,
			want: map[string]string{"key": "line1\nline2"},
		},
		{
			name: "comments and empty lines",
			input: `
# listen address
key=T{value}

`,
			want: map[string]string{"key": "value"},
		},
		{
			name:  "empty text value",
			input: `key=T{}`,
			want:  map[string]string{"key": ""},
		},
		{
			name:  "binary value",
			input: `key=B{SGVsbG8gV29ybGQ=}`,
			want:  map[string]string{"key": "Hello World"},
		},
		{
			name: "multi-line binary value",
			input: `key=B{
SGVsbG8g
V29ybGQ=
}`,
			want: map[string]string{"key": "Hello World"},
		},
		{
			name:    "bad base64",
			input:   `key=B{!!!}`,
			wantErr: true,
		},
		{
			name:    "missing equals",
			input:   `listen :8080`,
			wantErr: true,
		},
		{
			name:    "bare value",
			input:   `listen=:8080`,
			wantErr: true,
		},
		{
			name:    "unterminated",
			input:   "key=T{\nvalue",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readKeyValue(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("readKeyValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d keys, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if string(got[k]) != v {
					t.Errorf("key %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}

	if _, err := readKeyValue(strings.NewReader("x y")); !errors.Is(err, ErrSyntax) {
		t.Errorf("syntax error = %v, want ErrSyntax", err)
	}
}

func TestWriteKeyValue(t *testing.T) {
	tests := []struct {
		name  string
		input map[string][]byte
		want  string
	}{
		{"text", map[string][]byte{"key": []byte("value")}, "key=T{value}\n"},
		{"multi-line", map[string][]byte{"key": []byte("a\nb")}, "key=T{\na\nb\n}\n"},
		{"braces", map[string][]byte{"key": []byte("{x}")}, "key=B{e3h9}\n"},
		{"sorted", map[string][]byte{"z": []byte("1"), "a": []byte("2")}, "a=T{2}\nz=T{1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeKeyValue(&buf, tt.input); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}

			back, err := readKeyValue(&buf)
			if err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.input {
				if !bytes.Equal(back[k], v) {
					t.Errorf("reread %q = %q, want %q", k, back[k], v)
				}
			}
		})
	}
}
