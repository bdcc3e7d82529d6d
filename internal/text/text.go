// Package text loads the practice text from its backing file.
//
// The file is read on every call; nothing is cached. A missing file is not an
// error: the fallback sentence is returned instead.
package text

import (
	"io/fs"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"typing-server/internal/types"
)

// FallbackText is served when the backing file does not exist
const FallbackText = "The quick brown fox jumps over the lazy dog. This is a sample text for typing practice."

// ErrInvalidUTF8 is returned when the backing file is not valid UTF-8 after BOM handling
var ErrInvalidUTF8 = errors.New("backing file is not valid UTF-8")

// Text is a loaded sample text and where it came from
type Text struct {
	Value  string
	Source types.TextSource
}

// Loader reads the backing file
type Loader struct {
	fs   afero.Fs
	path string
}

// NewLoader returns a Loader reading path from fsys
func NewLoader(fsys afero.Fs, path string) *Loader {
	return &Loader{fs: fsys, path: path}
}

// Path returns the backing file path as configured
func (l *Loader) Path() string {
	return l.path
}

// Load reads and trims the backing file, or returns the fallback sentence if it is missing
func (l *Loader) Load() (Text, error) {
	raw, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Text{Value: FallbackText, Source: types.SourceFallback}, nil
		}
		return Text{}, errors.Wrapf(err, "reading %s", l.path)
	}

	decoded, err := Decode(raw)
	if err != nil {
		return Text{}, errors.Wrapf(err, "decoding %s", l.path)
	}

	return Text{Value: strings.TrimFunc(normalizeNewlines(decoded), isSpace), Source: types.SourceFile}, nil
}

// normalizeNewlines turns \r\n and lone \r into \n, the only line break a textarea produces
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// isSpace also counts the ASCII file, group, record and unit separators as whitespace
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Decode converts raw file bytes to a string. A UTF-8 or UTF-16 byte order
// mark selects that encoding and is removed; without one the bytes must
// already be valid UTF-8.
func Decode(raw []byte) (string, error) {
	out, _, err := transform.Bytes(xunicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", ErrInvalidUTF8
	}
	return string(out), nil
}
