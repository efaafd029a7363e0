package parachain

import (
	"encoding/binary"

	"github.com/pierrec/xxHash/xxHash64"
	"golang.org/x/crypto/blake2b"
)

const (
	parasPallet  = "Paras"
	headsStorage = "Heads"
)

// Blake2_128 returns the 16 byte blake2b digest of data.
func Blake2_128(data []byte) []byte {
	hasher, err := blake2b.New(16, nil)
	if err != nil {
		panic(err)
	}
	hasher.Write(data) //nolint:errcheck
	return hasher.Sum(nil)
}

// Blake2_256 returns the 32 byte blake2b digest of data.
func Blake2_256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// Twox64 returns the little endian xxhash64 digest of data with seed 0.
func Twox64(data []byte) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, xxHash64.Checksum(data, 0))
	return out
}

// HeadsStorageKey returns the relay chain storage key of the head of the given
// parachain: blake2_128("Paras") ++ blake2_128("Heads") ++ twox64(id) ++ id,
// where id is the SCALE (little endian) encoding of paraID.
func HeadsStorageKey(paraID uint32) []byte {
	encodedID := make([]byte, 4)
	binary.LittleEndian.PutUint32(encodedID, paraID)

	key := make([]byte, 0, 16+16+8+4)
	key = append(key, Blake2_128([]byte(parasPallet))...)
	key = append(key, Blake2_128([]byte(headsStorage))...)
	key = append(key, Twox64(encodedID)...)
	return append(key, encodedID...)
}
