package regulation

// UnknownLabel is returned by the classifier when the transcript does not map
// to any subcategory in the index's controlled vocabulary.
const UnknownLabel = "unknown"

// Record is one regulation entry from the search index. Read-only here.
type Record struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Regulation  string  `json:"regulation"`
	Article     string  `json:"article"`
	Content     string  `json:"content"`
	Penalty     string  `json:"penalty"`
	MatchScore  float64 `json:"matchScore,omitempty"`
}
