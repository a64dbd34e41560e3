package collection

// LoadState is the serving state of a collection.
type LoadState int

const (
	// StateNotExist means the collection is absent.
	StateNotExist LoadState = iota
	// StateNotLoad means the collection exists but is not queryable.
	StateNotLoad
	// StateLoading means the index is being built or loaded.
	StateLoading
	// StateLoaded means the collection is queryable.
	StateLoaded
)

func (s LoadState) String() string {
	switch s {
	case StateNotExist:
		return "NotExist"
	case StateNotLoad:
		return "NotLoad"
	case StateLoading:
		return "Loading"
	case StateLoaded:
		return "Loaded"
	default:
		return "Unknown"
	}
}

// IndexSpec holds the tunables of the ANN index over the vector field.
type IndexSpec struct {
	M           int // graph degree
	EFConstruct int // candidate list size at build time
	EFRuntime   int // candidate list size at query time
}
