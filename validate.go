package pulldown

import (
	"errors"
	"io"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports input that is not valid UTF-8. The parser
	// returns it before producing any event.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
	readChunk       = 32 * 1024
)

// ValidateInput returns an error if the input is not valid UTF-8 or appears binary.
func ValidateInput(src []byte) error {
	if !utf8.Valid(src) {
		return ErrInvalidUTF8
	}
	var total, control int
	for _, b := range src {
		total++
		if b == 0x00 {
			return ErrBinaryInput
		}
		if isControlByte(b) {
			control++
		}
	}
	if total >= minBinarySample && control*100 >= total*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

// validator checks input incrementally so a reader can be rejected before
// it has been read to the end.
type validator struct {
	total   int
	control int
}

func (v *validator) reset() {
	v.total = 0
	v.control = 0
}

// addBytes validates the complete runes of b and returns the incomplete
// tail that must be prefixed to the next chunk.
func (v *validator) addBytes(b []byte) ([]byte, error) {
	i := 0
	for i < len(b) {
		if !utf8.FullRune(b[i:]) {
			break
		}
		r, size := utf8.DecodeRune(b[i:])
		if err := v.addRune(r, size); err != nil {
			return nil, err
		}
		i += size
	}
	return b[i:], nil
}

func (v *validator) addRune(r rune, size int) error {
	if r == utf8.RuneError && size == 1 {
		return ErrInvalidUTF8
	}
	if r == 0 {
		return ErrBinaryInput
	}
	v.total += size
	if isControlRune(r) {
		v.control++
		if v.total >= minBinarySample && v.control*100 >= v.total*maxControlPct {
			return ErrBinaryInput
		}
	}
	return nil
}

// readValidated reads r to the end into buf, validating as it goes.
func (v *validator) readValidated(r io.Reader, buf []byte) ([]byte, error) {
	v.reset()
	start := len(buf)
	pending := 0
	for {
		if cap(buf)-len(buf) < readChunk {
			grown := make([]byte, len(buf), 2*cap(buf)+readChunk)
			copy(grown, buf)
			buf = grown
		}
		n, err := r.Read(buf[len(buf) : len(buf)+readChunk])
		if n > 0 {
			chunk := buf[len(buf)-pending : len(buf)+n]
			buf = buf[:len(buf)+n]
			tail, verr := v.addBytes(chunk)
			if verr != nil {
				return buf[start:], verr
			}
			pending = len(tail)
		}
		if err == io.EOF {
			if pending > 0 {
				return buf[start:], ErrInvalidUTF8
			}
			return buf[start:], nil
		}
		if err != nil {
			return buf[start:], err
		}
	}
}

func isControlByte(b byte) bool {
	if b < 0x09 {
		return true
	}
	if b > 0x0D && b < 0x20 {
		return true
	}
	if b == 0x7F {
		return true
	}
	return false
}

func isControlRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return false
	}
	if r < 0x20 || r == 0x7F {
		return true
	}
	return false
}
