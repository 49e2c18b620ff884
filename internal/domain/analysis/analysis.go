package analysis

// Analysis is the best-effort interpretation of a search query returned by the
// external language model. It is carried alongside the request but does not
// take part in scoring.
type Analysis struct {
	Model            string
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// IsEmpty reports whether no analysis content was produced.
func (a Analysis) IsEmpty() bool { return a.Content == "" }
