package kstream

// Sentinel is an out-of-band signal a producer yields in place of a data
// value.
type Sentinel uint8

const (
	// StreamEnd permanently finishes the branch that yields it.
	StreamEnd Sentinel = iota + 1
	// StreamNone produces nothing for the current tick.
	StreamNone
	// StreamRepeat re-emits the previously emitted value of the branch.
	StreamRepeat
)

func (s Sentinel) String() string {
	switch s {
	case StreamEnd:
		return "StreamEnd"
	case StreamNone:
		return "StreamNone"
	case StreamRepeat:
		return "StreamRepeat"
	default:
		return "Unknown"
	}
}

// IsSentinel reports whether v is one of the stream sentinels.
func IsSentinel(v any) bool {
	_, ok := v.(Sentinel)
	return ok
}
