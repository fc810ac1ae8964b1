package profile

import "strconv"

// Number is the set of types a Limit can bound.
type Number interface {
	~int | ~int64 | ~float64
}

// Limit is an upper bound that is either unbounded or bounded by a maximum.
// The zero value is Unbounded.
type Limit[T Number] struct {
	max     T
	bounded bool
}

// Unbounded returns a Limit that no value exceeds.
func Unbounded[T Number]() Limit[T] { return Limit[T]{} }

// Bounded returns a Limit with the given maximum.
func Bounded[T Number](max T) Limit[T] { return Limit[T]{max: max, bounded: true} }

// LimitFrom converts a config value where zero meant "unconstrained".
// Negative values are treated the same way; Validate rejects them earlier.
func LimitFrom[T Number](v T) Limit[T] {
	if v <= 0 {
		return Unbounded[T]()
	}
	return Bounded(v)
}

// Max returns the maximum and whether the limit is bounded.
func (l Limit[T]) Max() (T, bool) { return l.max, l.bounded }

// IsBounded reports whether a maximum is set.
func (l Limit[T]) IsBounded() bool { return l.bounded }

// Exceeded reports whether v is strictly above a bounded maximum.
func (l Limit[T]) Exceeded(v T) bool { return l.bounded && v > l.max }

// Or returns the maximum, or fallback when unbounded.
func (l Limit[T]) Or(fallback T) T {
	if !l.bounded {
		return fallback
	}
	return l.max
}

func (l Limit[T]) String() string {
	if !l.bounded {
		return "unbounded"
	}
	switch v := any(l.max).(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strconv.FormatInt(int64(l.max), 10)
	}
}
