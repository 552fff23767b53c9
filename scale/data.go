package scale

import (
	"fmt"
	"slices"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
)

type DataType uint8

const (
	DataNone DataType = iota
	DataRaw
	DataBlakeTwo256
	DataSha256
	DataKeccak256
	DataShaThree256
)

const (
	dataMaxRaw       = 32
	dataTagBlake     = dataMaxRaw + 2
	dataTagShaThree  = dataTagBlake + 3
	dataHashedLength = 32
)

var dataTypeNames = [...]string{"None", "Raw", "BlakeTwo256", "Sha256", "Keccak256", "ShaThree256"}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// Data is the identity-pallet value blob: nothing, up to 32 raw bytes, or
// one of four 32-byte hashes.
type Data struct {
	Type  DataType
	Value []byte
}

func NewRawData(b []byte) (Data, error) {
	if len(b) > dataMaxRaw {
		return Data{}, fmt.Errorf("%w: raw data has %d bytes", suberrors.ErrVValueOverflow, len(b))
	}
	return Data{Type: DataRaw, Value: slices.Clone(b)}, nil
}

func NewHashedData(t DataType, digest []byte) (Data, error) {
	if t < DataBlakeTwo256 || t > DataShaThree256 || len(digest) != dataHashedLength {
		return Data{}, fmt.Errorf("%w: %s data with %d bytes", suberrors.ErrVInvalidArgument, t, len(digest))
	}
	return Data{Type: t, Value: slices.Clone(digest)}, nil
}

func (d Data) Encode(_ *Config) []byte {
	switch d.Type {
	case DataNone:
		return []byte{0}
	case DataRaw:
		return append([]byte{byte(len(d.Value) + 1)}, d.Value...)
	}
	return append([]byte{byte(d.Type) - byte(DataBlakeTwo256) + dataTagBlake}, d.Value...)
}

func (d Data) String() string {
	if d.Type == DataNone {
		return "None"
	}
	return fmt.Sprintf("%s(%s)", d.Type, common.Bytes2Hex(d.Value))
}

func DecodeData(_ *Config, data []byte) (Decoded[Data], error) {
	if err := need(data, 1, "data"); err != nil {
		return Decoded[Data]{}, err
	}
	tag := int(data[0])
	switch {
	case tag == 0:
		return Decoded[Data]{BytesDecoded: 1, Value: Data{Type: DataNone}}, nil
	case tag <= dataMaxRaw+1:
		n := tag - 1
		if err := need(data, 1+n, "raw data"); err != nil {
			return Decoded[Data]{}, err
		}
		return Decoded[Data]{BytesDecoded: 1 + n, Value: Data{Type: DataRaw, Value: slices.Clone(data[1 : 1+n])}}, nil
	case tag <= dataTagShaThree:
		if err := need(data, 1+dataHashedLength, "hashed data"); err != nil {
			return Decoded[Data]{}, err
		}
		return Decoded[Data]{
			BytesDecoded: 1 + dataHashedLength,
			Value:        Data{Type: DataType(tag-dataTagBlake) + DataBlakeTwo256, Value: slices.Clone(data[1 : 1+dataHashedLength])},
		}, nil
	}
	return Decoded[Data]{}, fmt.Errorf("%w: data tag %d", suberrors.ErrDUnknownEnumTag, tag)
}
