package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/helixml/stepsearch/domain/keyword"
	"golang.org/x/sync/errgroup"
)

// ModelSpec names an embedding model and the host serving it.
type ModelSpec struct {
	Model string
	Host  string
}

// ParseModelSpec parses "model@Host". A bare model selects the local provider.
func ParseModelSpec(s string) (ModelSpec, error) {
	s = strings.TrimSpace(s)
	model, host, _ := strings.Cut(s, "@")
	if model == "" {
		return ModelSpec{}, keyword.NewError(keyword.ErrValidation, s, errors.New("model name is empty"))
	}
	return ModelSpec{Model: model, Host: host}, nil
}

// ParseModelSpecs parses a comma separated list of model specs.
func ParseModelSpecs(s string) ([]ModelSpec, error) {
	var specs []ModelSpec
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		spec, err := ParseModelSpec(part)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, keyword.NewError(keyword.ErrValidation, s, errors.New("no model given"))
	}
	return specs, nil
}

// String returns "model@Host", or the bare model for the local provider.
func (m ModelSpec) String() string {
	return keyword.NewModelRecord(0, m.Model, m.Host).Spec()
}

// BenchmarkCase is one line of a benchmark file.
type BenchmarkCase struct {
	Category   keyword.Category
	Keyword    string
	ExpectedID string
}

// ModelOutcome is how one model answered one case.
type ModelOutcome struct {
	Matches []keyword.SearchResult
	// Success is the rank of the expected id among Matches, or -1.
	Success int
}

// Found reports whether the expected id was among the matches.
func (o ModelOutcome) Found() bool { return o.Success >= 0 }

// BenchmarkRow is the outcome of every model for one case.
type BenchmarkRow struct {
	Index    int
	Case     BenchmarkCase
	Outcomes map[string]ModelOutcome
}

// BenchmarkResult is a full benchmark run.
type BenchmarkResult struct {
	Models []string
	Rows   []BenchmarkRow
}

// Score returns how many cases model answered with the expected id.
func (r BenchmarkResult) Score(model string) int {
	n := 0
	for _, row := range r.Rows {
		if row.Outcomes[model].Found() {
			n++
		}
	}
	return n
}

// ReadBenchmarkCases reads a tab separated file with a header row and the
// columns type, keyword and expected id.
func ReadBenchmarkCases(r io.Reader) ([]BenchmarkCase, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = 3
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, keyword.NewError(keyword.ErrValidation, "benchmark file", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cases := make([]BenchmarkCase, 0, len(records)-1)
	for i, rec := range records[1:] {
		category, err := keyword.ParseCategory(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("benchmark line %d: %w", i+2, err)
		}
		cases = append(cases, BenchmarkCase{
			Category:   category,
			Keyword:    rec[1],
			ExpectedID: strings.TrimSpace(rec[2]),
		})
	}
	return cases, nil
}

// Searcher runs a single search.
type Searcher interface {
	Search(ctx context.Context, model, host, project string, category keyword.Category, query string, topK int) ([]keyword.SearchResult, error)
}

// BenchmarkOption configures a Benchmark.
type BenchmarkOption func(*Benchmark)

// WithProgress sets a callback invoked after each case completes.
func WithProgress(fn func(done, total int)) BenchmarkOption {
	return func(b *Benchmark) { b.progress = fn }
}

// WithBenchmarkLogger sets the logger.
func WithBenchmarkLogger(l *slog.Logger) BenchmarkOption {
	return func(b *Benchmark) { b.logger = l }
}

// Benchmark measures how well each model finds the expected keyword.
type Benchmark struct {
	searcher Searcher
	progress func(done, total int)
	logger   *slog.Logger
}

// NewBenchmark creates a new Benchmark.
func NewBenchmark(searcher Searcher, opts ...BenchmarkOption) *Benchmark {
	b := &Benchmark{
		searcher: searcher,
		progress: func(int, int) {},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run searches every case with every model. Models are queried concurrently
// for each case; cases are processed in order.
func (b *Benchmark) Run(ctx context.Context, models []ModelSpec, project string, topK int, cases []BenchmarkCase) (BenchmarkResult, error) {
	result := BenchmarkResult{
		Models: make([]string, len(models)),
		Rows:   make([]BenchmarkRow, 0, len(cases)),
	}
	for i, m := range models {
		result.Models[i] = m.String()
	}

	for i, c := range cases {
		row := BenchmarkRow{Index: i + 1, Case: c, Outcomes: make(map[string]ModelOutcome, len(models))}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, m := range models {
			g.Go(func() error {
				matches, err := b.searcher.Search(gctx, m.Model, m.Host, project, c.Category, c.Keyword, topK)
				if err != nil {
					return fmt.Errorf("%s: %w", m, err)
				}
				outcome := ModelOutcome{Matches: matches, Success: successIndex(matches, c.ExpectedID)}
				mu.Lock()
				row.Outcomes[m.String()] = outcome
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return BenchmarkResult{}, fmt.Errorf("benchmark line %d: %w", i+1, err)
		}

		result.Rows = append(result.Rows, row)
		b.progress(i+1, len(cases))
	}

	for _, m := range result.Models {
		b.logger.Info("benchmark model score", "model", m, "found", result.Score(m), "cases", len(cases))
	}
	return result, nil
}

func successIndex(matches []keyword.SearchResult, expectedID string) int {
	for i, m := range matches {
		if m.ID == expectedID {
			return i
		}
	}
	return -1
}
