// Package keyword holds the value types and identifier grammar used to index
// Gherkin step keywords and their descriptions.
package keyword

// Entry is one keyword to ingest, with an optional description.
type Entry struct {
	externalID  string
	category    Category
	keyword     string
	description string
}

// NewEntry creates an Entry. An empty description means none.
func NewEntry(externalID string, category Category, keyword, description string) Entry {
	return Entry{
		externalID:  externalID,
		category:    category,
		keyword:     keyword,
		description: description,
	}
}

// ExternalID returns the caller-supplied id.
func (e Entry) ExternalID() string { return e.externalID }

// Category returns the keyword category.
func (e Entry) Category() Category { return e.category }

// Keyword returns the keyword text.
func (e Entry) Keyword() string { return e.keyword }

// Description returns the description text, possibly empty.
func (e Entry) Description() string { return e.description }

// HasDescription reports whether the entry carries a description.
func (e Entry) HasDescription() bool { return e.description != "" }

// Validate checks the external id and category.
func (e Entry) Validate() error {
	if err := ValidateExternalID(e.externalID); err != nil {
		return err
	}
	if !e.category.IsValid() {
		return NewError(ErrValidation, string(e.category), nil)
	}
	return nil
}
