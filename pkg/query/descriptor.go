package query

// SelectionType names one way of narrowing the article listing.
type SelectionType string

const (
	// All is the global listing with no filter.
	All SelectionType = "all"
	// Feed restricts to authors the current user follows. Requires a session.
	Feed SelectionType = "feed"
	// ByTag restricts to articles carrying the tag in Value.
	ByTag SelectionType = "tag"
	// ByAuthor restricts to articles written by Value.
	ByAuthor SelectionType = "author"
	// FavoritedBy restricts to articles favorited by Value.
	FavoritedBy SelectionType = "favorited"
)

// Descriptor is the complete input of one listing cycle: what to select and
// which page of it.
type Descriptor struct {
	Type  SelectionType
	Value string
	Page  int
}

// LoadingState tracks where the engine is in a fetch cycle.
type LoadingState int

const (
	NotLoaded LoadingState = iota
	Loading
	Loaded
)

func (s LoadingState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "not_loaded"
	}
}
