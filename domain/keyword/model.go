package keyword

// ModelRecord is a registered embedding model and the host serving it.
type ModelRecord struct {
	id    int64
	model string
	host  string
}

// NewModelRecord creates a ModelRecord. An empty host means the local provider.
func NewModelRecord(id int64, model, host string) ModelRecord {
	return ModelRecord{id: id, model: model, host: host}
}

// ID returns the stable registry id.
func (m ModelRecord) ID() int64 { return m.id }

// Model returns the model name.
func (m ModelRecord) Model() string { return m.model }

// Host returns the host name, empty for the local provider.
func (m ModelRecord) Host() string { return m.host }

// IsLocal reports whether the model runs in process.
func (m ModelRecord) IsLocal() bool { return m.host == "" }

// Spec returns "model@host", or the bare model name for local models.
func (m ModelRecord) Spec() string {
	if m.host == "" {
		return m.model
	}
	return m.model + "@" + m.host
}
