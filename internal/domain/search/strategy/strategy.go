package strategy

// Strategy names an independent scoring method.
type Strategy string

// Strategy constants.
const (
	// Semantic scores by L2 distance between query and content embeddings.
	Semantic Strategy = "semantic"
	// Tag scores by overlap between requested and stored tags.
	Tag Strategy = "tag"
	// Date includes bookmarks created inside the requested window.
	Date Strategy = "date"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == Semantic || s == Tag || s == Date
}
