package search

// Document is a stored text with its internal id.
type Document struct {
	id   string
	text string
}

// NewDocument creates a Document.
func NewDocument(id, text string) Document {
	return Document{id: id, text: text}
}

// ID returns the internal document id.
func (d Document) ID() string { return d.id }

// Text returns the embedded text.
func (d Document) Text() string { return d.text }

// Hit is a document returned by a nearest-neighbor query.
type Hit struct {
	id       string
	text     string
	distance float64
}

// NewHit creates a Hit.
func NewHit(id, text string, distance float64) Hit {
	return Hit{id: id, text: text, distance: distance}
}

// ID returns the internal document id.
func (h Hit) ID() string { return h.id }

// Text returns the document text.
func (h Hit) Text() string { return h.text }

// Distance returns the distance to the query; smaller is closer.
func (h Hit) Distance() float64 { return h.distance }
