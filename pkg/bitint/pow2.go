// Package bitint provides power-of-2 helpers for buffer sizing. Capture
// drivers deliver callbacks most reliably with power-of-2 frame counts, so
// config validation rounds requested block sizes up with NextPowerOfTwo.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of 2 are
// preserved; zero and negative sizes map to 1. The size-1 before bits.Len is
// what keeps exact powers from doubling.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of 2 have
// exactly one bit set, so n&(n-1) clears to zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
