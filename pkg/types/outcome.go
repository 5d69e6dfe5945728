package types

// Outcome is the explicit result of processing one item. Exactly one of the
// success fields or Err is meaningful; the worker consumes it to decide
// between the complete and error transitions instead of relying on panics.
type Outcome struct {
	ExtractedInfo string
	Metadata      Blob
	Taxonomy      Blob
	Err           error
}

// Failed reports whether the processing attempt ended in error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Failure builds an error outcome.
func Failure(err error) Outcome { return Outcome{Err: err} }

// SearchStrategy marks which path produced a search response.
type SearchStrategy string

const (
	// StrategyRanked means the full-text index answered with relevance order.
	StrategyRanked SearchStrategy = "ranked"
	// StrategyFallback means substring matching answered, recency order.
	StrategyFallback SearchStrategy = "fallback"
	// StrategyListing means the query was empty and results are a plain
	// filtered listing.
	StrategyListing SearchStrategy = "listing"
)
