package transaction

import (
	"bytes"
	"fmt"
	"math/big"
	"slices"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

const (
	extrinsicVersion = 4
	signedBit        = 0x80
)

var multiSignatureTags = map[chainspecs.SignatureType]uint8{
	chainspecs.SignatureEd25519: 0,
	chainspecs.SignatureSr25519: 1,
	chainspecs.SignatureEcdsa:   2,
}

// SignatureLength is the raw signature size of a scheme.
func SignatureLength(t chainspecs.SignatureType) int {
	switch t {
	case chainspecs.SignatureEcdsa, chainspecs.SignatureEthereum:
		return 65
	}
	return 64
}

// Transaction is a version 4 extrinsic. A signed-format extrinsic whose
// signature is all zero is the placeholder used for fee queries and as the
// unsigned half of a prepared batch.
type Transaction struct {
	Signer        scale.AccountId
	SignatureType chainspecs.SignatureType
	Signature     []byte
	Era           Era
	Nonce         uint32
	Tip           *big.Int
	ModeByte      bool
	Method        *Method
}

// NewTransaction builds the zero-signature form for signer.
func NewTransaction(ctx *Context, signer scale.AccountId, method *Method, era Era, nonce uint32, tip *big.Int) *Transaction {
	tx := &Transaction{Signer: signer, Era: era, Nonce: nonce, Tip: tip, Method: method, SignatureType: chainspecs.SignatureSr25519}
	if ctx.Network != nil {
		tx.SignatureType = ctx.Network.Signature
		tx.ModeByte = ctx.Network.Payload.ModeByte
	}
	tx.Signature = make([]byte, SignatureLength(tx.SignatureType))
	return tx
}

func (tx *Transaction) IsSigned() bool {
	return len(tx.Signature) > 0 && !bytes.Equal(tx.Signature, make([]byte, len(tx.Signature)))
}

// Sign attaches a raw signature produced over the signing payload.
func (tx *Transaction) Sign(signature []byte) error {
	if want := SignatureLength(tx.SignatureType); len(signature) != want {
		return fmt.Errorf("%w: %s signature has %d bytes, want %d", suberrors.ErrVInvalidArgument, tx.SignatureType, len(signature), want)
	}
	tx.Signature = slices.Clone(signature)
	return nil
}

// Encode writes the compact length prefixed extrinsic.
func (tx *Transaction) Encode(cfg *scale.Config) []byte {
	var body []byte
	if tx.Signer == nil {
		body = append([]byte{extrinsicVersion}, tx.Method.Encode(cfg)...)
		return append(scale.EncodeCompact(uint64(len(body))), body...)
	}
	body = append(body, extrinsicVersion|signedBit)
	body = append(body, scale.MultiAddressFromAccountId(tx.Signer).Encode(cfg)...)
	if tag, ok := multiSignatureTags[tx.SignatureType]; ok {
		body = append(body, tag)
	}
	body = append(body, tx.Signature...)
	body = append(body, tx.Era.Encode(cfg)...)
	body = append(body, scale.EncodeCompact(uint64(tx.Nonce))...)
	body = append(body, tipCompact(tx.Tip).Encode(cfg)...)
	if tx.ModeByte {
		body = append(body, 0)
	}
	body = append(body, tx.Method.Encode(cfg)...)
	return append(scale.EncodeCompact(uint64(len(body))), body...)
}

func (tx *Transaction) String() string {
	return fmt.Sprintf("Transaction(signer=%s, nonce=%d, era=%s, signed=%v, %s)", tx.Signer, tx.Nonce, tx.Era, tx.IsSigned(), tx.Method)
}

// Hash is the blake2-256 of the encoded extrinsic, the id nodes report.
func (tx *Transaction) Hash(cfg *scale.Config) common.Hash {
	return common.Blake2Hash(tx.Encode(cfg))
}

// DecodeTransaction decodes an extrinsic whose call is of type t.
func DecodeTransaction(ctx *Context, t TransactionType) scale.DecodeFunc[*Transaction] {
	return func(cfg *scale.Config, data []byte) (scale.Decoded[*Transaction], error) {
		length, err := scale.DecodeCompactInt(cfg, data)
		if err != nil {
			return scale.Decoded[*Transaction]{}, err
		}
		n, err := length.Value.Len(len(data) - length.BytesDecoded)
		if err != nil {
			return scale.Decoded[*Transaction]{}, fmt.Errorf("extrinsic: %w", err)
		}
		total := length.BytesDecoded + n
		d := scale.NewDecoder(cfg, data[length.BytesDecoded:total])
		version, err := d.DecodeNextInt(8)
		if err != nil {
			return scale.Decoded[*Transaction]{}, err
		}
		tx := &Transaction{}
		if ctx.Network != nil {
			tx.SignatureType = ctx.Network.Signature
			tx.ModeByte = ctx.Network.Payload.ModeByte
		}
		if version.Uint64()&^signedBit != extrinsicVersion {
			return scale.Decoded[*Transaction]{}, fmt.Errorf("%w: extrinsic version %#x", suberrors.ErrDUnknownEnumTag, version.Uint64())
		}
		if version.Uint64()&signedBit != 0 {
			if err := decodeSignature(d, tx); err != nil {
				return scale.Decoded[*Transaction]{}, err
			}
		}
		if tx.Method, err = scale.Next(d, DecodeMethod(ctx, t)); err != nil {
			return scale.Decoded[*Transaction]{}, err
		}
		if !d.Done() {
			return scale.Decoded[*Transaction]{}, fmt.Errorf("%w: %d bytes after call", suberrors.ErrDTrailingBytes, len(d.Remaining()))
		}
		return scale.Decoded[*Transaction]{BytesDecoded: total, Value: tx}, nil
	}
}

func decodeSignature(d *scale.Decoder, tx *Transaction) error {
	signer, err := d.DecodeNextMultiAddress()
	if err != nil {
		return err
	}
	id, ok := signer.AccountId()
	if !ok {
		return fmt.Errorf("%w: signer %s", suberrors.ErrDUnsupportedAddressType, signer)
	}
	tx.Signer = id
	if _, ok := multiSignatureTags[tx.SignatureType]; ok {
		tag, err := d.DecodeNextInt(8)
		if err != nil {
			return err
		}
		found := false
		for scheme, t := range multiSignatureTags {
			if uint64(t) == tag.Uint64() {
				tx.SignatureType, found = scheme, true
			}
		}
		if !found {
			return fmt.Errorf("%w: signature tag %d", suberrors.ErrDUnknownEnumTag, tag.Uint64())
		}
	}
	sig, err := d.DecodeNextFixedBytes(SignatureLength(tx.SignatureType))
	if err != nil {
		return err
	}
	tx.Signature = sig
	if tx.Era, err = scale.Next(d, DecodeEra); err != nil {
		return err
	}
	nonce, err := d.DecodeNextCompactInt()
	if err != nil {
		return err
	}
	if tx.Nonce, err = nonce.Uint32(); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	tip, err := d.DecodeNextCompactInt()
	if err != nil {
		return err
	}
	tx.Tip = tip.Big()
	if tx.ModeByte {
		if _, err := d.DecodeNextInt(8); err != nil {
			return err
		}
	}
	return nil
}
