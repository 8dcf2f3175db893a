package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// AlignUp rounds size up to the next multiple of alignment.
// Alignment must be a power of two; zero returns size unchanged.
//
// Parameters:
//   - size: the value to align
//   - alignment: the required alignment
//
// Returns:
//   - uint64: size rounded up to a multiple of alignment
func AlignUp(size, alignment uint64) uint64 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}
