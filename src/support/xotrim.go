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

import "errors"

// ErrBadCrystal is returned for a crystal frequency outside every supported
// band. A device with such a reference must not be brought up.
var ErrBadCrystal = errors.New("idtxp: crystal frequency outside supported bands")

// Trim is the crystal amplifier trim bundle for one crystal frequency band.
type Trim struct {
	DblrDis  bool  // disable the reference doubler
	Gm       uint8 // amplifier gm overtone setting
	CapX1    uint8 // load capacitance trim, X1 pin
	AmpSlice uint8 // amplifier slice
	CapX2    uint8 // load capacitance trim, X2 pin
	OtDis    bool  // disable overtone operation
	OtRes    uint8 // overtone filter resistor
}

// XoTrim returns the amplifier trim for a crystal at fxtal Hz. The bands and
// their values are vendor characterization data, reproduced verbatim.
func XoTrim(fxtal uint32) (Trim, error) {
	switch {
	case 40_000_000 <= fxtal && fxtal <= 80_000_000:
		return Trim{
			DblrDis:  false,
			Gm:       0x2,
			CapX1:    0x3C,
			AmpSlice: 0x1,
			CapX2:    0x2,
			OtDis:    true,
			OtRes:    0x0,
		}, nil
	case 100_000_000 <= fxtal && fxtal < 140_000_000:
		return Trim{
			DblrDis:  true,
			Gm:       0x2,
			CapX1:    0x15,
			AmpSlice: 0x0C,
			CapX2:    0x5,
			OtDis:    false,
			OtRes:    0x5,
		}, nil
	case 140_000_000 <= fxtal && fxtal <= 166_000_000:
		return Trim{
			DblrDis:  true,
			Gm:       0x3,
			CapX1:    0x15,
			AmpSlice: 0x0C,
			CapX2:    0x5,
			OtDis:    false,
			OtRes:    0x3,
		}, nil
	}
	return Trim{}, ErrBadCrystal
}
