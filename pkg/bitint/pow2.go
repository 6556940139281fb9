// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-2 helpers used for FFT block sizing.

All operations are allocation-free and O(1), safe to call from the
real-time audio path.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Powers of 2 are returned unchanged; non-positive input yields 1.
//
// The size-1 before bits.Len is what preserves exact powers of 2:
// without it, 8 would round up to 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
