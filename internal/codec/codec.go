// Package codec converts embeddings to and from the BLOB layout the vector
// stores accept: little-endian IEEE 754 float32 values with no length prefix.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/MereWhiplash/semfind/internal/types"
)

// Encode serializes v. The length is derived from the blob size on decode.
func Encode(v types.Embedding) []byte {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

// Decode is the inverse of Encode.
func Decode(b []byte) (types.Embedding, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("codec: invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	v := make(types.Embedding, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
