package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/helixml/stepsearch/application/service"
	"github.com/helixml/stepsearch/domain/keyword"
	"gopkg.in/yaml.v3"
)

const absent = "-"

// writeQueryResults prints a title line and one tab separated row per result.
func writeQueryResults(w io.Writer, query, project string, category keyword.Category, results []keyword.SearchResult) error {
	if _, err := fmt.Fprintf(w, "Top %d matches for '%s' in %s project in %s category:\n", len(results), query, project, category); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "ID\tMatch\tKeyword\tKeyword distance\tDescription\tDescription distance"); err != nil {
		return err
	}
	for _, r := range results {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Match,
			text(r.Keyword), distance(r.KeywordDistance),
			text(r.Description), distance(r.DescriptionDistance),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func text(s *string) string {
	if s == nil {
		return absent
	}
	return *s
}

func distance(d *float64) string {
	if d == nil {
		return absent
	}
	return strconv.FormatFloat(*d, 'f', -1, 64)
}

// Dump output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeSnapshot prints the index in the given format.
func writeSnapshot(w io.Writer, snapshot service.Snapshot, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(snapshot)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snapshot); err != nil {
			return err
		}
		return enc.Close()
	case formatText:
		for i, p := range snapshot.Partitions {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "=== %s ===\n", p.Name); err != nil {
				return err
			}
			for _, d := range p.Documents {
				if _, err := fmt.Fprintf(w, "%s %s\n", d.ID, d.Content); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return keyword.NewError(keyword.ErrValidation, format, fmt.Errorf("format must be %s, %s or %s", formatText, formatJSON, formatYAML))
	}
}
