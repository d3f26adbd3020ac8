package arkconfig

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Encoding is the text encoding of an INI file on disk.
type Encoding string

const (
	UTF8  Encoding = "utf-8"
	UTF16 Encoding = "utf-16"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding accepts the usual spellings of the two supported encodings.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return UTF8, nil
	case "utf-16", "utf16", "utf-16le", "utf16le":
		return UTF16, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", name)
	}
}

func (e Encoding) String() string {
	return string(e)
}

// decodeText reads UTF-16 when the data starts with a UTF-16 byte order mark
// or looks like UTF-16 text (every other byte NUL), and UTF-8 otherwise.
// UTF-16 without a byte order mark is little endian unless the NULs sit on
// the even offsets.
func decodeText(data []byte) (string, Encoding, error) {
	order, utf16Like := sniffUTF16(data)
	if !utf16Like && utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), UTF8, nil
	}

	text, err := decodeUTF16(data, order)
	if err == nil {
		return text, UTF16, nil
	}
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), UTF8, nil
	}
	return "", "", err
}

func decodeUTF16(data []byte, order unicode.Endianness) (string, error) {
	if len(data)%2 != 0 {
		return "", fmt.Errorf("odd byte count %d for utf-16", len(data))
	}
	decoded, err := unicode.UTF16(order, unicode.UseBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", fmt.Errorf("invalid utf-16 sequence")
	}
	return string(decoded), nil
}

// sniffUTF16 reports the byte order of data and whether it looks like UTF-16
// at all: a byte order mark, or an even length with at least half of the odd
// (little endian) or even (big endian) offsets holding NUL.
func sniffUTF16(data []byte) (unicode.Endianness, bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return unicode.LittleEndian, true
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return unicode.BigEndian, true
	case len(data) == 0 || len(data)%2 != 0:
		return unicode.LittleEndian, false
	}

	var evenNUL, oddNUL int
	for i, b := range data {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			evenNUL++
		} else {
			oddNUL++
		}
	}

	units := len(data) / 2
	switch {
	case oddNUL*2 >= units && oddNUL > evenNUL:
		return unicode.LittleEndian, true
	case evenNUL*2 >= units && evenNUL > oddNUL:
		return unicode.BigEndian, true
	default:
		return unicode.LittleEndian, false
	}
}

func encodeText(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8:
		return []byte(text), nil
	case UTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}
