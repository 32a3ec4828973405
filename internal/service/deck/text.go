package deck

// ConceptEntry is one "Title: Description" line on the concept slide.
type ConceptEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SceneCopy is the AI-authored copy for one viewpoint slide.
type SceneCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PresentationText is the structured copy a deck is rendered from. It is
// regenerated wholesale whenever any field is edited, because the title and
// conclusion slides draw on the full set and theme-level consistency must
// hold across slides.
type PresentationText struct {
	Title           string         `json:"title"`
	Subtitle        string         `json:"subtitle"`
	ConceptTitle    string         `json:"concept_title"`
	Concepts        []ConceptEntry `json:"concepts"`
	Scenes          []SceneCopy    `json:"scenes"`
	ConclusionTitle string         `json:"conclusion_title"`
	ConclusionBody  string         `json:"conclusion_body"`
}
