package chainspecs

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/colorfulnotion/subwallet/address"
	"github.com/colorfulnotion/subwallet/suberrors"
)

//go:embed configs/*.json
var configFS embed.FS

var networkFile = map[string]string{
	"polkadot":  "configs/polkadot.json",
	"kusama":    "configs/kusama.json",
	"westend":   "configs/westend.json",
	"moonbeam":  "configs/moonbeam.json",
	"moonriver": "configs/moonriver.json",
}

type SignatureType string

const (
	SignatureSr25519  SignatureType = "sr25519"
	SignatureEd25519  SignatureType = "ed25519"
	SignatureEcdsa    SignatureType = "ecdsa"
	SignatureEthereum SignatureType = "ethereum"
)

type AddressConfig struct {
	Kind       address.Kind `json:"kind"`
	SS58Prefix uint16       `json:"ss58_prefix"`
}

// MultiAddressConfig gates the tagged signer/destination encoding. Runtimes
// before SinceRuntime used a bare account id.
type MultiAddressConfig struct {
	Enabled      bool   `json:"enabled"`
	SinceRuntime uint32 `json:"since_runtime"`
}

// PayloadConfig selects the optional signing payload fields.
type PayloadConfig struct {
	ModeByte     bool `json:"mode_byte"`
	MetadataHash bool `json:"metadata_hash"`
}

type Network struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Symbol           string             `json:"symbol"`
	Decimals         uint8              `json:"decimals"`
	Address          AddressConfig      `json:"address"`
	MultiAddress     MultiAddressConfig `json:"multi_address"`
	Signature        SignatureType      `json:"signature"`
	Payload          PayloadConfig      `json:"payload"`
	EraPeriod        uint64             `json:"era_period"`
	RPC              string             `json:"rpc"`
	TransactionTypes []string           `json:"transaction_types"`

	codec address.Codec
}

// ReadNetwork loads a builtin network by id, or a JSON file when id is a path.
func ReadNetwork(id string) (*Network, error) {
	var data []byte
	var err error
	path, ok := networkFile[id]
	if ok {
		data, err = configFS.ReadFile(path)
	} else {
		data, err = os.ReadFile(id)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", suberrors.ErrNNetworkNotSupported, id)
		}
	}
	if err != nil {
		return nil, err
	}
	return ParseNetwork(data)
}

func ParseNetwork(data []byte) (*Network, error) {
	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", suberrors.ErrVInvalidNetworkConfig, err)
	}
	if err := n.init(); err != nil {
		return nil, err
	}
	return &n, nil
}

// MustReadNetwork panics on error; meant for builtin ids.
func MustReadNetwork(id string) *Network {
	n, err := ReadNetwork(id)
	if err != nil {
		panic(err)
	}
	return n
}

// Builtins lists the embedded network ids.
func Builtins() []string {
	ids := make([]string, 0, len(networkFile))
	for id := range networkFile {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (n *Network) init() error {
	codec, err := address.NewCodec(n.Address.Kind, n.Address.SS58Prefix)
	if err != nil {
		return err
	}
	n.codec = codec
	switch n.Signature {
	case SignatureSr25519, SignatureEd25519, SignatureEcdsa:
		if n.Address.Kind != address.KindSS58 {
			return fmt.Errorf("%w: %s signatures need ss58 accounts", suberrors.ErrVInvalidNetworkConfig, n.Signature)
		}
	case SignatureEthereum:
		if n.Address.Kind != address.KindEthereum {
			return fmt.Errorf("%w: ethereum signatures need 20-byte accounts", suberrors.ErrVInvalidNetworkConfig)
		}
	default:
		return fmt.Errorf("%w: signature %q", suberrors.ErrUUnsupportedSignature, n.Signature)
	}
	if n.EraPeriod == 0 {
		n.EraPeriod = DefaultEraPeriod
	}
	return nil
}

const DefaultEraPeriod = 64

func (n *Network) AddressCodec() address.Codec {
	return n.codec
}

// SupportsMultiAddress is the single runtime-version gate for tagged
// MultiAddress encoding. An unknown runtime version means the current format.
func (n *Network) SupportsMultiAddress(runtimeVersion *uint32) bool {
	if !n.MultiAddress.Enabled {
		return false
	}
	if runtimeVersion == nil {
		return true
	}
	return *runtimeVersion >= n.MultiAddress.SinceRuntime
}

func (n *Network) SupportsTransactionType(name string) bool {
	return slices.Contains(n.TransactionTypes, name)
}

// String method returns the Network as a formatted JSON string
func (n *Network) String() string {
	jsonData, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
