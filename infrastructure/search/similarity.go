package search

import (
	"math"
	"sort"

	"github.com/helixml/stepsearch/domain/search"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical), or 0 when the
// lengths differ or either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CosineDistance is 1 - CosineSimilarity, in [0, 2].
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

// nearest ranks documents by cosine distance to query and keeps the closest k.
// Ties keep their input order.
func nearest(query []float64, docs []DocumentEntity, k int) []search.Hit {
	if len(docs) == 0 || k <= 0 {
		return []search.Hit{}
	}

	hits := make([]search.Hit, len(docs))
	for i, d := range docs {
		hits[i] = search.NewHit(d.DocID, d.Text, CosineDistance(query, d.Embedding.Floats()))
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance() < hits[j].Distance()
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}
