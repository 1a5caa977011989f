// Package gherkin extracts step keywords from Gherkin feature files.
package gherkin

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/google/uuid"

	"github.com/helixml/stepsearch/domain/keyword"
)

// FeatureExt is the extension of files the extractor reads.
const FeatureExt = ".feature"

// Supported string delimiters.
const (
	DoubleQuote = `"`
	SingleQuote = `'`
)

var (
	parameterPattern = regexp.MustCompile(`<[^>]*>`)
	floatPattern     = regexp.MustCompile(`\d+\.\d*`)
	integerPattern   = regexp.MustCompile(`\d+`)
)

// Step is one step of a feature with its resolved category.
type Step struct {
	Category keyword.Category
	Text     string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStringDelimiter sets the quote character used for string literals.
func WithStringDelimiter(d string) Option {
	return func(x *Extractor) { x.delimiter = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) { x.logger = l }
}

// WithIDGenerator replaces uuid.NewString for keyword ids.
func WithIDGenerator(fn func() string) Option {
	return func(x *Extractor) { x.newID = fn }
}

// Extractor collects the distinct step keywords of a set of feature files.
type Extractor struct {
	delimiter string
	literal   *regexp.Regexp
	logger    *slog.Logger
	newID     func() string
}

// NewExtractor creates an Extractor. The string delimiter must be a double
// or single quote.
func NewExtractor(opts ...Option) (*Extractor, error) {
	x := &Extractor{
		delimiter: DoubleQuote,
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.delimiter != DoubleQuote && x.delimiter != SingleQuote {
		return nil, keyword.NewError(keyword.ErrValidation, x.delimiter, errors.New(`string delimiter must be " or '`))
	}
	q := regexp.QuoteMeta(x.delimiter)
	x.literal = regexp.MustCompile(q + `[^` + q + `]*` + q)
	return x, nil
}

// Condense replaces the variable parts of a step (parameters, string
// literals and numbers) with fixed placeholders, so steps that differ only
// by their values compare equal.
func (x *Extractor) Condense(text string) string {
	text = parameterPattern.ReplaceAllLiteralString(text, "<>")
	text = x.literal.ReplaceAllLiteralString(text, x.delimiter+x.delimiter)
	text = floatPattern.ReplaceAllLiteralString(text, "12.34")
	return integerPattern.ReplaceAllLiteralString(text, "123")
}

// Steps parses one feature document and returns its steps in file order.
// And, But and "*" steps take the category of the previous step of the same
// background or scenario.
func (x *Extractor) Steps(r io.Reader, name string) ([]Step, error) {
	doc, err := gherkin.ParseGherkinDocument(r, (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, keyword.NewError(keyword.ErrParse, name, err)
	}
	if doc.Feature == nil {
		return nil, keyword.NewError(keyword.ErrParse, name, errors.New("feature not found"))
	}

	var steps []Step
	collect := func(block []*messages.Step) error {
		var last keyword.Category
		for _, s := range block {
			category, err := resolveCategory(s.KeywordType, last)
			if err != nil {
				return keyword.NewError(keyword.ErrParse, name,
					fmt.Errorf("line %d: %q: %w", s.Location.Line, strings.TrimSpace(s.Keyword), err))
			}
			last = category
			steps = append(steps, Step{Category: category, Text: strings.TrimSpace(s.Text)})
		}
		return nil
	}

	for _, child := range doc.Feature.Children {
		switch {
		case child.Background != nil:
			err = collect(child.Background.Steps)
		case child.Scenario != nil:
			err = collect(child.Scenario.Steps)
		case child.Rule != nil:
			for _, rc := range child.Rule.Children {
				if rc.Background != nil {
					err = collect(rc.Background.Steps)
				} else if rc.Scenario != nil {
					err = collect(rc.Scenario.Steps)
				}
				if err != nil {
					break
				}
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return steps, nil
}

func resolveCategory(t messages.StepKeywordType, last keyword.Category) (keyword.Category, error) {
	switch t {
	case messages.StepKeywordType_CONTEXT:
		return keyword.CategoryContext, nil
	case messages.StepKeywordType_ACTION:
		return keyword.CategoryAction, nil
	case messages.StepKeywordType_OUTCOME:
		return keyword.CategoryOutcome, nil
	case messages.StepKeywordType_CONJUNCTION, messages.StepKeywordType_UNKNOWN:
		if last == "" {
			return "", errors.New("conjunction without a previous step")
		}
		return last, nil
	}
	return "", fmt.Errorf("unknown step keyword type %q", t)
}

type candidate struct {
	step      Step
	condensed string
}

// Extract reads every feature file in paths, in order, and returns the
// consolidated keywords sorted by category and then by lowercase text.
// Paths without the .feature extension are skipped. Steps whose condensed
// form is already known keep the longer text.
func (x *Extractor) Extract(paths []string) ([]keyword.Entry, error) {
	var all []candidate
	for _, path := range paths {
		if !strings.HasSuffix(path, FeatureExt) {
			x.logger.Debug("skipping non feature file", "path", path)
			continue
		}
		steps, err := x.readFile(path)
		if err != nil {
			return nil, err
		}
		for _, s := range steps {
			all = x.consolidate(all, candidate{step: s, condensed: x.Condense(s.Text)})
		}
	}

	slices.SortStableFunc(all, func(a, b candidate) int {
		if d := a.step.Category.Order() - b.step.Category.Order(); d != 0 {
			return d
		}
		return strings.Compare(strings.ToLower(a.step.Text), strings.ToLower(b.step.Text))
	})

	entries := make([]keyword.Entry, len(all))
	for i, c := range all {
		entries[i] = keyword.NewEntry(x.newID(), c.step.Category, c.step.Text, "")
	}
	return entries, nil
}

func (x *Extractor) consolidate(all []candidate, c candidate) []candidate {
	i := slices.IndexFunc(all, func(e candidate) bool {
		return e.step.Category == c.step.Category && e.condensed == c.condensed
	})
	if i < 0 {
		return append(all, c)
	}

	existing := all[i]
	x.logger.Info("duplicate keyword", "old", existing.step.Text, "new", c.step.Text)
	if utf8.RuneCountInString(existing.step.Text) > utf8.RuneCountInString(c.step.Text) {
		return all
	}
	return append(slices.Delete(all, i, i+1), c)
}

func (x *Extractor) readFile(path string) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return x.Steps(f, path)
}
