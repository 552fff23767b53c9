package common

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ComputeHash computes the BLAKE2b-256 hash of the given data
func ComputeHash(data []byte) []byte {
	hash := blake2b.Sum256(data)
	return hash[:]
}

func Blake2Hash(data []byte) Hash {
	return BytesToHash(ComputeHash(data))
}

func Blake2b128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return h.Sum(nil)
}

func Blake2b256(data []byte) []byte {
	return ComputeHash(data)
}

func Blake2b512(data []byte) []byte {
	hash := blake2b.Sum512(data)
	return hash[:]
}

// Blake2b128Concat returns blake2b_128(data) ‖ data, the transparent map hasher.
func Blake2b128Concat(data []byte) []byte {
	return append(Blake2b128(data), data...)
}

// twox runs one seeded xxhash64 round per 8 output bytes, seeds 0..rounds-1,
// each digest appended little-endian.
func twox(data []byte, rounds int) []byte {
	out := make([]byte, 0, rounds*8)
	for seed := 0; seed < rounds; seed++ {
		d := xxhash.NewWithSeed(uint64(seed))
		d.Write(data)
		out = binary.LittleEndian.AppendUint64(out, d.Sum64())
	}
	return out
}

func Twox64(data []byte) []byte {
	return twox(data, 1)
}

func Twox128(data []byte) []byte {
	return twox(data, 2)
}

func Twox256(data []byte) []byte {
	return twox(data, 4)
}

// Twox64Concat returns twox_64(data) ‖ data.
func Twox64Concat(data []byte) []byte {
	return append(Twox64(data), data...)
}

func Keccak256(data []byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	h := hash.Sum(nil)
	return BytesToHash(h)
}

func IsNilHash(h Hash) bool {
	return h == Hash{}
}
