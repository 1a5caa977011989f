// Package testembed provides a deterministic bag-of-words embedder for tests.
package testembed

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
)

// Dimension is the length of every vector produced.
const Dimension = 64

// Embedder hashes lowercase words into a fixed number of buckets.
// Identical texts map to identical vectors; texts sharing words are close.
type Embedder struct {
	mu    sync.Mutex
	calls int
	texts int
	err   error
}

// New creates an Embedder.
func New() *Embedder {
	return &Embedder{}
}

// Fail makes every later call return err.
func (e *Embedder) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Calls returns how many times Embed was called.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Texts returns how many texts have been embedded.
func (e *Embedder) Texts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.texts
}

// Embed implements search.Embedder.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	e.calls++
	e.texts += len(texts)
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = Vector(text)
	}
	return out, nil
}

// Vector returns the embedding of a single text.
func Vector(text string) []float64 {
	v := make([]float64, Dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		v[h.Sum32()%Dimension]++
	}
	return v
}

// Selector serves Embedder for the local host and rejects every other host
// with keyword.ErrUnsupportedHost.
type Selector struct {
	Embedder *Embedder
}

// Select implements search.EmbedderSelector.
func (s Selector) Select(_, host string) (search.Embedder, error) {
	if host != "" {
		return nil, keyword.NewError(keyword.ErrUnsupportedHost, host, nil)
	}
	return s.Embedder, nil
}
