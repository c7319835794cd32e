package domain

// NoInformation is the answer returned when nothing in the tenant's corpus is
// relevant enough. It is a successful outcome, not an error.
const NoInformation = "No information available for this client."

// Document is a single text file owned by exactly one tenant.
type Document struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// Answer is the outcome of a search. An empty Source means no document was
// selected.
type Answer struct {
	Text   string  `json:"answer"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// NoAnswer builds the no-information outcome.
func NoAnswer() Answer {
	return Answer{Text: NoInformation}
}

// Found reports whether a document was selected.
func (a Answer) Found() bool {
	return a.Source != ""
}
