// Package encoding converts input text in legacy encodings to UTF-8.
package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for labels not in the WHATWG encoding index.
var ErrUnknownEncoding = errors.New("unknown text encoding")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// isUTF8 reports whether name selects plain UTF-8 input.
func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// Lookup returns the encoding for a WHATWG label such as "euc-kr",
// "shift_jis" or "windows-1252". UTF-8 labels return nil.
func Lookup(name string) (encoding.Encoding, error) {
	if isUTF8(name) {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts data in the named encoding to a UTF-8 string.
// A leading UTF-8 byte order mark is dropped.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", name, err)
	}
	return string(bytes.TrimPrefix(result, utf8BOM)), nil
}
