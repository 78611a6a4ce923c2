package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// localDimension keeps test vectors small and cheap.
const localDimension = 32

// Local is a deterministic, no-network provider for tests and offline
// runs. The same text always embeds to the same unit vector, and
// different texts almost always differ, which is enough to exercise the
// pipeline and storage paths end to end.
type Local struct{}

// NewLocal creates the deterministic provider.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Name() string      { return "local" }
func (l *Local) TableName() string { return "book_chunks_local" }
func (l *Local) Dimension() int    { return localDimension }

// Embed hashes each word into a vector slot and L2-normalizes the result.
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, localDimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		sum := h.Sum32()
		vector[sum%localDimension] += float32(sum%7) + 1
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector, nil
}

var _ Provider = (*Local)(nil)
