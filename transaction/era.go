package transaction

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

const (
	minEraPeriod = 4
	maxEraPeriod = 1 << 16
)

// Era is the validity window of a transaction. A mortal era is valid for
// Period blocks starting at the block whose number is Phase modulo Period.
type Era struct {
	Immortal bool
	Period   uint64
	Phase    uint64
}

func ImmortalEra() Era {
	return Era{Immortal: true}
}

// NewMortalEra starts a window at current. The period is rounded up to a
// power of two in [4, 65536] and the phase is quantized to fit 12 bits.
func NewMortalEra(current, period uint64) Era {
	p := uint64(1) << bits.Len64(max(period, 1)-1)
	p = min(max(p, minEraPeriod), maxEraPeriod)
	q := quantizeFactor(p)
	return Era{Period: p, Phase: current % p / q * q}
}

func quantizeFactor(period uint64) uint64 {
	return max(period>>12, 1)
}

func (e Era) Encode(_ *scale.Config) []byte {
	if e.Immortal {
		return []byte{0}
	}
	low := min(max(uint64(bits.TrailingZeros64(e.Period))-1, 1), 15)
	high := e.Phase / quantizeFactor(e.Period) << 4
	return binary.LittleEndian.AppendUint16(nil, uint16(low|high))
}

func (e Era) String() string {
	if e.Immortal {
		return "Immortal"
	}
	return fmt.Sprintf("Mortal(period=%d, phase=%d)", e.Period, e.Phase)
}

// Birth is the first block of the window that contains current.
func (e Era) Birth(current uint64) uint64 {
	if e.Immortal {
		return 0
	}
	return (max(current, e.Phase)-e.Phase)/e.Period*e.Period + e.Phase
}

func (e Era) Death(current uint64) uint64 {
	if e.Immortal {
		return ^uint64(0)
	}
	return e.Birth(current) + e.Period
}

func DecodeEra(_ *scale.Config, data []byte) (scale.Decoded[Era], error) {
	if len(data) < 1 {
		return scale.Decoded[Era]{}, fmt.Errorf("%w: era", suberrors.ErrDUnexpectedEOF)
	}
	if data[0] == 0 {
		return scale.Decoded[Era]{BytesDecoded: 1, Value: ImmortalEra()}, nil
	}
	if len(data) < 2 {
		return scale.Decoded[Era]{}, fmt.Errorf("%w: mortal era", suberrors.ErrDUnexpectedEOF)
	}
	enc := uint64(binary.LittleEndian.Uint16(data))
	period := uint64(2) << (enc % 16)
	phase := (enc >> 4) * quantizeFactor(period)
	if period < minEraPeriod || phase >= period {
		return scale.Decoded[Era]{}, fmt.Errorf("%w: era %#04x", suberrors.ErrVInvalidArgument, enc)
	}
	return scale.Decoded[Era]{BytesDecoded: 2, Value: Era{Period: period, Phase: phase}}, nil
}
