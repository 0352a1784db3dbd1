package vectorstore

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"librarian/internal/domain"
)

// CosineDistance returns 1 - cosine similarity. A zero-magnitude vector is treated
// as orthogonal to everything (distance 1).
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectorstore: dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}

// RankByDistance sorts matches by ascending distance (stable) and keeps at most topK.
// Matches without a distance sort last.
func RankByDistance(matches []domain.Match, topK int) []domain.Match {
	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := matches[i].Distance, matches[j].Distance
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		}
		return *di < *dj
	})
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches
}

// EncodeEmbedding stores vec as little-endian IEEE 754 float32 values.
func EncodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeEmbedding reverses EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vectorstore: invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
