// Package cipher implements the archive's content obfuscation transform.
//
// Every encrypted run (the directory blob and each entry) is decoded with a
// key derived from its own checksum. The transform XORs each little-endian
// 32-bit word with the key and rotates the result right by 6 bits. It is a
// fixed obfuscation, not a cryptographic cipher, and only the decode
// direction is provided.
package cipher

import (
	"encoding/binary"
	"math/bits"
)

// keyMask is mixed into every checksum to form the XOR key.
const keyMask = 0x81A79011

// Key derives the XOR key for a checksum.
func Key(checksum uint32) uint32 {
	return checksum ^ keyMask
}

// Decrypt returns the decoded form of data.
//
// The input length should be a multiple of 4; trailing bytes that do not
// form a whole word are dropped. data is not modified.
func Decrypt(data []byte, checksum uint32) []byte {
	out := make([]byte, len(data)&^3)
	copy(out, data)
	DecryptInPlace(out, checksum)
	return out
}

// DecryptInPlace decodes data in place. A trailing partial word is left untouched.
func DecryptInPlace(data []byte, checksum uint32) {
	key := Key(checksum)
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		w := binary.LittleEndian.Uint32(data[i:]) ^ key
		// low 6 bits move to the top, high 26 bits move down
		binary.LittleEndian.PutUint32(data[i:], bits.RotateLeft32(w, -6))
	}
}
