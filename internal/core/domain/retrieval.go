package domain

// DefaultTopK is the number of results returned when a caller does not set one.
const DefaultTopK = 3

// TaskHint tells an embedding model whether text is being indexed or searched for.
type TaskHint string

// Available task hints.
const (
	// TaskHintDocument marks text embedded for storage.
	TaskHintDocument TaskHint = "document"

	// TaskHintQuery marks text embedded to search with.
	TaskHintQuery TaskHint = "query"
)

// IsValid returns true if the hint is recognised.
func (h TaskHint) IsValid() bool {
	return h == TaskHintDocument || h == TaskHintQuery
}

// String returns the string representation.
func (h TaskHint) String() string {
	return string(h)
}

// RetrieveOptions configures a similarity query.
type RetrieveOptions struct {
	// TopK is the maximum number of results. Zero or less means DefaultTopK.
	TopK int

	// Threshold, when set, drops every top-k candidate whose similarity
	// is not strictly greater than it. When nil no filtering happens.
	Threshold *float64

	// Verbose lists the top-k candidates and scores before thresholding.
	Verbose bool
}

// WithThreshold returns a copy of the options with the threshold set.
func (o RetrieveOptions) WithThreshold(threshold float64) RetrieveOptions {
	o.Threshold = &threshold
	return o
}

// HasThreshold reports whether a threshold was supplied.
func (o RetrieveOptions) HasThreshold() bool {
	return o.Threshold != nil
}

// Limit returns the effective top-k.
func (o RetrieveOptions) Limit() int {
	if o.TopK <= 0 {
		return DefaultTopK
	}
	return o.TopK
}

// Passes reports whether a similarity clears the threshold, if one is set.
func (o RetrieveOptions) Passes(similarity float64) bool {
	if o.Threshold == nil {
		return true
	}
	return similarity > *o.Threshold
}

// ScoredText is a single retrieval hit.
type ScoredText struct {
	// ID is the record identifier.
	ID string

	// Text is the stored chunk text.
	Text string

	// Similarity is the cosine similarity to the query, in [-1, 1].
	Similarity float64
}

// Texts extracts the text of each hit, preserving rank order.
func Texts(hits []ScoredText) []string {
	texts := make([]string, len(hits))
	for i := range hits {
		texts[i] = hits[i].Text
	}
	return texts
}
