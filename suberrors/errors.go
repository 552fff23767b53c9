package suberrors

import (
	"errors"
	"fmt"
	"strings"
)

// Validation (V) Errors
var (
	ErrVMissingArguments     = errors.New("V1|MissingArguments: Required transaction arguments are missing.")
	ErrVInvalidArgument      = errors.New("V2|InvalidArgument: A transaction argument has an invalid value.")
	ErrVInvalidAddress       = errors.New("V3|InvalidAddress: Address does not match the network's address format.")
	ErrVNegativeUnsigned     = errors.New("V4|NegativeUnsigned: Negative value for an unsigned integer type.")
	ErrVValueOverflow        = errors.New("V5|ValueOverflow: Value does not fit the declared bit width.")
	ErrVInvalidBatch         = errors.New("V6|InvalidBatch: Batch contains no transactions.")
	ErrVInvalidNetworkConfig = errors.New("V7|InvalidNetworkConfig: Network configuration is inconsistent.")
)

// Decode (D) Errors
var (
	ErrDUnexpectedEOF          = errors.New("D1|UnexpectedEOF: Buffer ended before the value was fully decoded.")
	ErrDUnknownEnumTag         = errors.New("D2|UnknownEnumTag: Enum tag has no mapping.")
	ErrDUnsupportedAddressType = errors.New("D3|UnsupportedAddressType: Address type not supported for the active runtime version.")
	ErrDMalformedHex           = errors.New("D4|MalformedHex: Input is not valid hexadecimal.")
	ErrDInvalidBool            = errors.New("D5|InvalidBool: Boolean byte is neither 0 nor 1.")
	ErrDInvalidUTF8            = errors.New("D6|InvalidUTF8: String bytes are not valid UTF-8.")
	ErrDBadMagicNumber         = errors.New("D7|BadMagicNumber: Metadata magic number mismatch.")
	ErrDUnsupportedMetadata    = errors.New("D8|UnsupportedMetadata: Metadata version not supported.")
	ErrDStorageArgsMismatch    = errors.New("D9|StorageArgsMismatch: Storage key arguments do not match the entry's hashers.")
	ErrDUnknownType            = errors.New("D10|UnknownType: Type id not present in the metadata registry.")
	ErrDTrailingBytes          = errors.New("D11|TrailingBytes: Bytes remain after decoding.")
	ErrDValueOutOfRange        = errors.New("D12|ValueOutOfRange: Decoded value does not fit its target type.")
)

// Network / State (N) Errors
var (
	ErrNMissingChainData    = errors.New("N1|MissingChainData: Could not fetch all necessary data.")
	ErrNCallNotFound        = errors.New("N2|CallNotFound: Call is not present in the chain metadata.")
	ErrNStorageNotFound     = errors.New("N3|StorageNotFound: Storage entry is not present in the chain metadata.")
	ErrNConstantNotFound    = errors.New("N4|ConstantNotFound: Constant is not present in the chain metadata.")
	ErrNRPCFailure          = errors.New("N5|RPCFailure: Node returned an error.")
	ErrNNetworkNotSupported = errors.New("N6|NetworkNotSupported: Unknown network identifier.")
)

// Balance (B) Errors
var (
	ErrBInsufficientBalance = errors.New("B1|InsufficientBalance: Available balance does not cover the estimated fees.")
)

// Unsupported (U) Errors
var (
	ErrUUnsupportedSignature       = errors.New("U1|UnsupportedSignature: Signature scheme not supported by the network.")
	ErrUUnsupportedTransactionType = errors.New("U2|UnsupportedTransactionType: Transaction type not supported by the network.")
	ErrUNotSigned                  = errors.New("U3|NotSigned: Transaction carries no signature.")
)

// MissingArguments wraps ErrVMissingArguments naming the absent fields.
func MissingArguments(txType string, fields []string) error {
	return fmt.Errorf("%w %s: %s", ErrVMissingArguments, txType, strings.Join(fields, ", "))
}

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	code := strings.TrimSpace(parts[0])
	// wrapped errors carry a "context: " prefix ahead of the code
	if i := strings.LastIndex(code, " "); i >= 0 {
		code = code[i+1:]
	}
	return code
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(err.Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}
