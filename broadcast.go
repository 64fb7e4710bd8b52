package selections

// Patch is one property write aligned to a target component. A Patch with Set
// false is the no-change sentinel; a Patch with Set true writes Value even
// when Value is nil or empty.
type Patch[T any] struct {
	Value T
	Set   bool
}

// NoChange returns the no-change sentinel.
func NoChange[T any]() Patch[T] {
	return Patch[T]{}
}

// SetTo returns a patch that writes value.
func SetTo[T any](value T) Patch[T] {
	return Patch[T]{Value: value, Set: true}
}

// Update pairs a patch with the identity conditions it applies to.
type Update[T any] struct {
	Value Patch[T]
	Match Match
}

// Broadcast aligns updates to targets. Each target receives the value of the
// first update whose Match matches it, or NoChange when none does. The result
// always has the length and order of targets.
func Broadcast[T any](targets []ComponentID, updates []Update[T]) []Patch[T] {
	out := make([]Patch[T], len(targets))
	for i, target := range targets {
		for _, update := range updates {
			if update.Match.Matches(target) {
				out[i] = update.Value
				break
			}
		}
	}
	return out
}
