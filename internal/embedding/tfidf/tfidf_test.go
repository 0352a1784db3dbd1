package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/domain"
)

func TestEmbed_RequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), []string{"magie"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestPrepare_EmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
	assert.Error(t, NewEmbedder().Prepare([]string{"și de la"}))
}

func TestEmbed_NormalisedAndComparable(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"Un băiat descoperă magie și prietenie la o școală de vrăjitori.",
		"Un stat totalitar supraveghează fiecare cetățean.",
	}))

	vecs, err := e.Embed(context.Background(), []string{"magie și prietenie", "supraveghere totalitar", "xyz"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	assert.Len(t, vecs[0], e.Dimension())
	assert.InDelta(t, 1.0, norm(vecs[0]), 1e-5)
	assert.Zero(t, norm(vecs[2]), "unknown terms give the zero vector")

	assert.Greater(t, dot(vecs[0], vecs[0]), dot(vecs[0], vecs[1]))
}

func TestPrepare_IsDeterministic(t *testing.T) {
	corpus := []string{"dragoni și magie", "detectiv și crimă"}
	a, b := NewEmbedder(), NewEmbedder()
	require.NoError(t, a.Prepare(corpus))
	require.NoError(t, b.Prepare(corpus))

	va, err := a.Embed(context.Background(), []string{"magie"})
	require.NoError(t, err)
	vb, err := b.Embed(context.Background(), []string{"magie"})
	require.NoError(t, err)

	assert.Equal(t, va, vb)
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float32) float64 {
	s := 0.0
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
