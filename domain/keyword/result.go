package keyword

// Match names the side of a pair that ranked in the search.
type Match string

// Match values.
const (
	MatchKeyword     Match = "keyword"
	MatchDescription Match = "description"
)

// SearchResult is one merged hit. Absent fields are nil.
type SearchResult struct {
	ID                  string   `json:"id" yaml:"id"`
	Match               Match    `json:"match" yaml:"match"`
	Keyword             *string  `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Description         *string  `json:"description,omitempty" yaml:"description,omitempty"`
	KeywordDistance     *float64 `json:"keyword_distance,omitempty" yaml:"keyword_distance,omitempty"`
	DescriptionDistance *float64 `json:"description_distance,omitempty" yaml:"description_distance,omitempty"`
}

// Distance returns the distance of the matched side.
func (r SearchResult) Distance() float64 {
	if r.Match == MatchDescription && r.DescriptionDistance != nil {
		return *r.DescriptionDistance
	}
	if r.KeywordDistance != nil {
		return *r.KeywordDistance
	}
	return 0
}
