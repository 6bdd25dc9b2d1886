package newline

import (
	"errors"
	"fmt"
)

// Break represents the line break written in place of every line ending.
type Break string

// Constants for the line breaks a Normalizer may target.
const (
	CRLF Break = "\x0d\x0a" // \r\n - Network linebreak
	LF   Break = "\x0a"     // \n - Unix/Linux/BSD linebreak
	CR   Break = "\x0d"     // \r - Commodores/old Macs linebreak
)

// String returns the break as a string.
func (b Break) String() string {
	return string(b)
}

// Bytes returns the break as a slice of bytes.
func (b Break) Bytes() []byte {
	return []byte(b)
}

// Style names a line break the way it is named in configuration.
type Style string

// The recognized styles. Unix is the default.
const (
	Unix    Style = "unix"
	Windows Style = "windows"
)

// ErrUnknownStyle is returned by ParseStyle when given a name that is not a
// recognized Style.
var ErrUnknownStyle = errors.New("unknown newline style")

// ParseStyle returns the Style with the given name. The empty string is taken
// to mean Unix.
func ParseStyle(name string) (Style, error) {
	switch Style(name) {
	case "", Unix:
		return Unix, nil
	case Windows:
		return Windows, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// Break returns the line break for the style. It panics on a Style that did
// not come from ParseStyle or one of the constants.
func (s Style) Break() Break {
	switch s {
	case "", Unix:
		return LF
	case Windows:
		return CRLF
	}
	panic(fmt.Sprintf("newline: no break for style %q", string(s)))
}

// String returns the name of the style.
func (s Style) String() string {
	if s == "" {
		return string(Unix)
	}
	return string(s)
}
