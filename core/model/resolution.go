package model

// ResolutionState distinguishes the outcomes of an entity lookup.
type ResolutionState uint8

const (
	// NotAttempted means no lookup was made, e.g. the source cell was empty.
	NotAttempted ResolutionState = iota
	// Found means the lookup returned a reference record.
	Found
	// NotFound means the lookup ran and matched nothing.
	NotFound
)

func (s ResolutionState) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "not_attempted"
	}
}

// Resolution is the tagged result of resolving one identifier to a value.
type Resolution[T any] struct {
	State ResolutionState
	Value T
}

// FoundValue wraps a hit.
func FoundValue[T any](v T) Resolution[T] { return Resolution[T]{State: Found, Value: v} }

// Missing returns a NotFound resolution.
func Missing[T any]() Resolution[T] { return Resolution[T]{State: NotFound} }

// Get returns the value and whether it was found.
func (r Resolution[T]) Get() (T, bool) { return r.Value, r.State == Found }
