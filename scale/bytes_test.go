package scale

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStringCountsEncodedBytes(t *testing.T) {
	s := String("héllo")
	enc := s.Encode(nil)
	assert.Equal(t, byte(6<<2), enc[0])

	d, err := DecodeString(nil, append(enc, 0xaa))
	require.NoError(t, err)
	assert.Equal(t, s, d.Value)
	assert.Equal(t, 7, d.BytesDecoded)

	_, err = DecodeString(nil, []byte{2 << 2, 0xff, 0xfe})
	assert.True(t, errors.Is(err, suberrors.ErrDInvalidUTF8))
}

func TestBytesAndStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		b := Bytes(rapid.SliceOfN(rapid.Byte(), 1, 300).Draw(tt, "bytes"))
		enc := b.Encode(nil)
		d, err := DecodeBytes(nil, enc)
		require.NoError(tt, err)
		require.Equal(tt, b, d.Value)
		require.Equal(tt, len(enc), d.BytesDecoded)

		s := String(rapid.String().Draw(tt, "string"))
		enc = s.Encode(nil)
		ds, err := DecodeString(nil, enc)
		require.NoError(tt, err)
		require.Equal(tt, s, ds.Value)
		require.Equal(tt, len(enc), ds.BytesDecoded)
	})
}

func TestHash(t *testing.T) {
	h := Hash(common.HexToHash("0x91b171bb158e2d3848fa23a9f1c25182fb8e20313b2c1eb49219da7a70ce90c3"))
	d, err := DecodeHash(nil, h.Encode(nil))
	require.NoError(t, err)
	assert.Equal(t, h, d.Value)
	assert.Equal(t, 32, d.BytesDecoded)

	_, err = DecodeHash(nil, make([]byte, 31))
	assert.True(t, errors.Is(err, suberrors.ErrDUnexpectedEOF))
}

func TestDecodeHexMalformed(t *testing.T) {
	_, err := DecodeHex(nil, DecodeBytes, "0xzz")
	assert.True(t, errors.Is(err, suberrors.ErrDMalformedHex))
}

func TestDecodeAllTrailing(t *testing.T) {
	_, err := DecodeAll(nil, DecodeU8, []byte{1, 2})
	assert.True(t, errors.Is(err, suberrors.ErrDTrailingBytes))
	v, err := DecodeAll(nil, DecodeU8, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Uint64())
}

func TestData(t *testing.T) {
	none := Data{Type: DataNone}
	assert.Equal(t, "00", EncodeHex(nil, none))

	raw, err := NewRawData([]byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, "06616c696365", EncodeHex(nil, raw))

	digest := common.Blake2b256([]byte("alice"))
	for tag, typ := range map[byte]DataType{34: DataBlakeTwo256, 35: DataSha256, 36: DataKeccak256, 37: DataShaThree256} {
		d, err := NewHashedData(typ, digest)
		require.NoError(t, err)
		enc := d.Encode(nil)
		assert.Equal(t, tag, enc[0])

		dec, err := DecodeData(nil, enc)
		require.NoError(t, err)
		assert.Equal(t, d, dec.Value)
		assert.Equal(t, 33, dec.BytesDecoded)
	}

	_, err = NewRawData(make([]byte, 33))
	assert.True(t, errors.Is(err, suberrors.ErrVValueOverflow))
	_, err = DecodeData(nil, []byte{38})
	assert.True(t, errors.Is(err, suberrors.ErrDUnknownEnumTag))
}

func TestDataRawRoundTrip(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		d, err := NewRawData(rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(tt, "raw"))
		require.NoError(tt, err)
		enc := d.Encode(nil)
		dec, err := DecodeData(nil, enc)
		require.NoError(tt, err)
		require.Equal(tt, d, dec.Value)
		require.Equal(tt, len(enc), dec.BytesDecoded)
	})
}
