package contract

// Optional is a value that may be absent, mirroring the contract's option type.
// The payload is only reachable through Get or OrElse.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, ok: true} }

// None returns an absent Optional.
func None[T any]() Optional[T] { return Optional[T]{} }

// IsSome reports whether a payload is present.
func (o Optional[T]) IsSome() bool { return o.ok }

// Get returns the payload and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.ok }

// OrElse returns the payload, or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if !o.ok {
		return def
	}
	return o.value
}
