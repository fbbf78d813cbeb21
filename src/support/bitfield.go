/*
 * Copyright 2025 the idtxp authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package support

import (
	"fmt"
	"math/bits"
)

// Pack returns reg with the bits selected by mask replaced by val, where val
// is aligned to the lowest set bit of mask. Bits of reg outside mask are
// preserved.
//
// Pack panics if val does not fit in the mask. Every register field written by
// this module carries a value already bounded by the divider limits, so an
// oversized value here is a programming error and must not reach the chip:
// the vendor driver dropped the excess bits silently, which corrupts whatever
// field happens to sit above the mask.
func Pack(reg, val, mask uint8) uint8 {
	shift := bits.TrailingZeros8(mask)
	if val > mask>>shift {
		panic(fmt.Sprintf("support: value %#02x overflows mask %#02x", val, mask))
	}
	return reg&^mask | val<<shift
}

// Unpack extracts and right-aligns the bits of reg selected by mask.
func Unpack(reg, mask uint8) uint8 {
	return (reg & mask) >> bits.TrailingZeros8(mask)
}
