package keyword

import "fmt"

// Category classifies a keyword by the role of the step it came from.
type Category string

// Category values.
const (
	CategoryContext Category = "Context"
	CategoryAction  Category = "Action"
	CategoryOutcome Category = "Outcome"
)

// Categories returns every category in canonical order.
func Categories() []Category {
	return []Category{CategoryContext, CategoryAction, CategoryOutcome}
}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", NewError(ErrValidation, s, fmt.Errorf("unknown keyword category %q", s))
	}
	return c, nil
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryContext, CategoryAction, CategoryOutcome:
		return true
	}
	return false
}

// Order returns the position of c in canonical order, or -1.
func (c Category) Order() int {
	switch c {
	case CategoryContext:
		return 0
	case CategoryAction:
		return 1
	case CategoryOutcome:
		return 2
	}
	return -1
}

// String returns the canonical spelling.
func (c Category) String() string {
	return string(c)
}
