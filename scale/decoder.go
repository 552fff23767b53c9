package scale

import (
	"fmt"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// Decoder is a forward-only cursor over one buffer. Each DecodeNext call
// decodes at the current position and advances by the reported byte count.
// Fields must be read in the order the enclosing type writes them.
type Decoder struct {
	cfg    *Config
	data   []byte
	offset int
}

func NewDecoder(cfg *Config, data []byte) *Decoder {
	return &Decoder{cfg: cfg, data: data}
}

func NewDecoderFromHex(cfg *Config, s string) (*Decoder, error) {
	data, err := common.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suberrors.ErrDMalformedHex, err)
	}
	return NewDecoder(cfg, data), nil
}

func (d *Decoder) Config() *Config { return d.cfg }

// Offset is the number of bytes consumed so far.
func (d *Decoder) Offset() int { return d.offset }

func (d *Decoder) Remaining() []byte { return d.data[d.offset:] }

func (d *Decoder) Done() bool { return d.offset >= len(d.data) }

// Next decodes one value with fn and advances the cursor.
func Next[T any](d *Decoder, fn DecodeFunc[T]) (T, error) {
	r, err := fn(d.cfg, d.data[d.offset:])
	if err != nil {
		var zero T
		return zero, fmt.Errorf("at offset %d: %w", d.offset, err)
	}
	log.Trace(log.ScaleMonitoring, "decoded", "offset", d.offset, "bytes", r.BytesDecoded)
	d.offset += r.BytesDecoded
	return r.Value, nil
}

// Skip advances over n bytes.
func (d *Decoder) Skip(n int) error {
	if err := need(d.Remaining(), n, "skip"); err != nil {
		return err
	}
	d.offset += n
	return nil
}

func (d *Decoder) DecodeNextBool() (Bool, error) {
	return Next(d, DecodeBool)
}

func (d *Decoder) DecodeNextCompactInt() (CompactInt, error) {
	return Next(d, DecodeCompactInt)
}

func (d *Decoder) DecodeNextInt(bitLength int) (FixedInt, error) {
	return Next(d, DecodeInt(bitLength))
}

func (d *Decoder) DecodeNextSignedInt(bitLength int) (FixedInt, error) {
	return Next(d, DecodeSignedInt(bitLength))
}

func (d *Decoder) DecodeNextBytes() (Bytes, error) {
	return Next(d, DecodeBytes)
}

func (d *Decoder) DecodeNextString() (String, error) {
	return Next(d, DecodeString)
}

func (d *Decoder) DecodeNextFixedBytes(n int) (FixedBytes, error) {
	return Next(d, DecodeFixedBytes(n))
}

func (d *Decoder) DecodeNextHash() (Hash, error) {
	return Next(d, DecodeHash)
}

func (d *Decoder) DecodeNextAccountId() (AccountId, error) {
	return Next(d, DecodeAccountId)
}

func (d *Decoder) DecodeNextMultiAddress() (MultiAddress, error) {
	return Next(d, DecodeMultiAddress)
}

func (d *Decoder) DecodeNextData() (Data, error) {
	return Next(d, DecodeData)
}
