package model

// Result is the resolved content for one destination. A nil Description means
// the destination receives no description at all.
type Result struct {
	Destination    string         `json:"destination"`
	Title          string         `json:"title"`
	ContentWarning string         `json:"contentWarning,omitempty"`
	Tags           []string       `json:"tags"`
	Description    *string        `json:"description,omitempty"`
	Rating         Rating         `json:"rating,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`
}

// DescriptionOrEmpty dereferences Description, returning "" when undefined.
func (r Result) DescriptionOrEmpty() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}
