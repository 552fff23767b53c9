package metadata

import (
	"fmt"

	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// reader wraps the scale cursor with a sticky error so the positional
// metadata layouts read top to bottom. After the first failure every read
// returns a zero value.
type reader struct {
	d   *scale.Decoder
	err error
}

func newReader(data []byte) *reader {
	return &reader{d: scale.NewDecoder(nil, data)}
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.d.DecodeNextInt(8)
	r.fail(err)
	return uint8(v.Uint64())
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.d.DecodeNextInt(32)
	r.fail(err)
	return uint32(v.Uint64())
}

func (r *reader) bool() bool {
	if r.err != nil {
		return false
	}
	v, err := r.d.DecodeNextBool()
	r.fail(err)
	return bool(v)
}

func (r *reader) compact() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.d.DecodeNextCompactInt()
	if err != nil {
		r.fail(err)
		return 0
	}
	n, err := v.Uint32()
	r.fail(err)
	return n
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	v, err := r.d.DecodeNextString()
	r.fail(err)
	return string(v)
}

func (r *reader) bytes() []byte {
	if r.err != nil {
		return nil
	}
	v, err := r.d.DecodeNextBytes()
	r.fail(err)
	return v
}

// length reads a vector length. Every metadata element is at least one
// byte, so a length beyond the remaining buffer is corrupt.
func (r *reader) length() int {
	n := int(r.compact())
	if r.err == nil && n > len(r.d.Remaining()) {
		r.fail(fmt.Errorf("%w: vector of %d elements at offset %d", suberrors.ErrDUnexpectedEOF, n, r.d.Offset()))
	}
	if r.err != nil {
		return 0
	}
	return n
}

func (r *reader) strs() []string {
	n := r.length()
	out := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.str())
	}
	return out
}

// option reads the Some/None flag of an Option<T>.
func (r *reader) option() bool {
	if r.err != nil {
		return false
	}
	switch flag := r.u8(); flag {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail(fmt.Errorf("%w: option flag %d at offset %d", suberrors.ErrDUnknownEnumTag, flag, r.d.Offset()-1))
		return false
	}
}

func (r *reader) optionalStr() string {
	if r.option() {
		return r.str()
	}
	return ""
}

func (r *reader) hasher() Hasher {
	return Hasher(r.u8())
}

func (r *reader) hashers() []Hasher {
	n := r.length()
	out := make([]Hasher, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.hasher())
	}
	return out
}

func (r *reader) done() bool {
	return r.d.Done()
}

func (r *reader) remaining() int {
	return len(r.d.Remaining())
}
