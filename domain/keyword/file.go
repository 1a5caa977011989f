package keyword

import (
	"encoding/json"
	"fmt"
	"io"
)

// FileEntry is one keyword as written to a keywords file.
type FileEntry struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Keyword     string `json:"keyword"`
	Description string `json:"description"`
}

// File is the keywords document produced by extraction and read by ingestion.
type File struct {
	Keywords []FileEntry `json:"keywords"`
}

// NewFile builds a File from entries, keeping their order.
func NewFile(entries []Entry) File {
	f := File{Keywords: make([]FileEntry, len(entries))}
	for i, e := range entries {
		f.Keywords[i] = FileEntry{
			ID:          e.ExternalID(),
			Type:        e.Category().String(),
			Keyword:     e.Keyword(),
			Description: e.Description(),
		}
	}
	return f
}

// ReadFile decodes a keywords document.
func ReadFile(r io.Reader) (File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return File{}, NewError(ErrValidation, "keywords file", err)
	}
	return f, nil
}

// Write encodes the document as indented JSON.
func (f File) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(f)
}

// Entries converts the document into validated entries.
func (f File) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(f.Keywords))
	for i, k := range f.Keywords {
		category, err := ParseCategory(k.Type)
		if err != nil {
			return nil, fmt.Errorf("keyword %d: %w", i, err)
		}
		e := NewEntry(k.ID, category, k.Keyword, k.Description)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("keyword %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
