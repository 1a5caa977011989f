package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector stores a float64 slice as the text literal "[1,2,3]". The same
// literal is a JSON array for SQLite TEXT columns and a pgvector value for
// PostgreSQL VECTOR columns.
type Vector struct {
	floats []float64
}

// NewVector copies floats into a Vector.
func NewVector(floats []float64) Vector {
	cp := make([]float64, len(floats))
	copy(cp, floats)
	return Vector{floats: cp}
}

// Floats returns a copy of the elements, or nil for a NULL vector.
func (v Vector) Floats() []float64 {
	if v.floats == nil {
		return nil
	}
	cp := make([]float64, len(v.floats))
	copy(cp, v.floats)
	return cp
}

// Dimension returns the number of elements.
func (v Vector) Dimension() int {
	return len(v.floats)
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(value any) error {
	var raw string
	switch val := value.(type) {
	case nil:
		v.floats = nil
		return nil
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if strings.TrimSpace(raw) == "" {
		v.floats = []float64{}
		return nil
	}

	parts := strings.Split(raw, ",")
	floats := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parse element %d: %w", i, err)
		}
		floats[i] = f
	}
	v.floats = floats
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	return v.String(), nil
}

// String returns the "[1,2,3]" literal.
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(len(v.floats)*12 + 2)
	b.WriteByte('[')
	for i, f := range v.floats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
