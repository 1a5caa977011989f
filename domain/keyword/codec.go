package keyword

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Delimiter joins the fields of partition names and document ids.
const Delimiter = "-"

// DocumentKind tells a keyword document from a description document.
type DocumentKind string

// DocumentKind values.
const (
	KindKeyword     DocumentKind = "keyword"
	KindDescription DocumentKind = "description"
)

const (
	keywordSuffix     = "k"
	descriptionSuffix = "d"
)

var projectPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// PartitionKey identifies one partition of the vector index.
type PartitionKey struct {
	modelID  int64
	project  string
	category Category
}

// NewPartitionKey validates and builds a PartitionKey.
func NewPartitionKey(modelID int64, project string, category Category) (PartitionKey, error) {
	if err := ValidateProject(project); err != nil {
		return PartitionKey{}, err
	}
	if !category.IsValid() {
		return PartitionKey{}, NewError(ErrValidation, string(category), errors.New("unknown keyword category"))
	}
	return PartitionKey{modelID: modelID, project: project, category: category}, nil
}

// ModelID returns the registry id of the embedding model.
func (k PartitionKey) ModelID() int64 { return k.modelID }

// Project returns the project name.
func (k PartitionKey) Project() string { return k.project }

// Category returns the keyword category.
func (k PartitionKey) Category() Category { return k.category }

// String returns the encoded partition name.
func (k PartitionKey) String() string {
	return strconv.FormatInt(k.modelID, 10) + Delimiter + k.project + Delimiter + string(k.category)
}

// ValidateProject checks that a project name contains only letters, digits and underscores.
func ValidateProject(project string) error {
	if !projectPattern.MatchString(project) {
		return NewError(ErrValidation, project, errors.New("project must match [A-Za-z0-9_]*"))
	}
	return nil
}

// ValidateExternalID rejects ids that cannot be stored unambiguously.
// An id that already ends in a document suffix is most likely an internal id
// passed back by mistake.
func ValidateExternalID(id string) error {
	if strings.TrimSpace(id) == "" {
		return NewError(ErrValidation, id, errors.New("external id is empty"))
	}
	if strings.HasSuffix(id, Delimiter+keywordSuffix) || strings.HasSuffix(id, Delimiter+descriptionSuffix) {
		return NewError(ErrValidation, id, errors.New("external id ends with a reserved document suffix"))
	}
	return nil
}

// EncodePartitionKey produces "{modelID}-{project}-{category}".
func EncodePartitionKey(modelID int64, project string, category Category) (string, error) {
	key, err := NewPartitionKey(modelID, project, category)
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// DecodePartitionKey parses a partition name, splitting from the right.
func DecodePartitionKey(name string) (PartitionKey, error) {
	rest, category, ok := cutLast(name)
	if !ok {
		return PartitionKey{}, NewError(ErrParse, name, errors.New("partition name needs three fields"))
	}
	rawID, project, ok := cutLast(rest)
	if !ok {
		return PartitionKey{}, NewError(ErrParse, name, errors.New("partition name needs three fields"))
	}
	modelID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return PartitionKey{}, NewError(ErrParse, name, fmt.Errorf("model id: %w", err))
	}
	c := Category(category)
	if !c.IsValid() {
		return PartitionKey{}, NewError(ErrParse, name, fmt.Errorf("unknown keyword category %q", category))
	}
	return PartitionKey{modelID: modelID, project: project, category: c}, nil
}

// EncodeDocumentID appends the keyword or description suffix to an external id.
func EncodeDocumentID(externalID string, isDescription bool) string {
	if isDescription {
		return externalID + Delimiter + descriptionSuffix
	}
	return externalID + Delimiter + keywordSuffix
}

// DecodeDocumentID splits an internal id into its external id and kind.
func DecodeDocumentID(internalID string) (string, DocumentKind, error) {
	externalID, suffix, ok := cutLast(internalID)
	if !ok {
		return "", "", NewError(ErrParse, internalID, errors.New("document id has no suffix"))
	}
	switch suffix {
	case keywordSuffix:
		return externalID, KindKeyword, nil
	case descriptionSuffix:
		return externalID, KindDescription, nil
	default:
		return "", "", NewError(ErrParse, internalID, fmt.Errorf("unknown document suffix %q", suffix))
	}
}

// SiblingID swaps the suffix of an internal id: keyword to description and back.
func SiblingID(internalID string) (string, error) {
	externalID, kind, err := DecodeDocumentID(internalID)
	if err != nil {
		return "", err
	}
	return EncodeDocumentID(externalID, kind == KindKeyword), nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndex(s, Delimiter)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(Delimiter):], true
}
