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

// Package support holds the pure computation behind the XP synthesizer driver:
// the divider search, the charge pump table, the crystal trim table and the
// register bitfield codec. Nothing in here touches a bus.
package support

import "errors"

// Divider and VCO limits of the XP synthesizer PLL.
const (
	DivoMin = 4
	DivoMax = 511

	DivnMin = 41
	DivnMax = 216

	FvcoMin = 6_860_000_000
	FvcoMax = 8_650_000_000
)

// ErrNoSolution is returned when no divider configuration inside the PLL
// limits can produce the requested output frequency.
var ErrNoSolution = errors.New("idtxp: no divider solution for requested frequency")

// Dividers is one feasible PLL configuration for an output frequency:
//
//	Fvco = Fout * Divo = Fpfd * (DivnInt + DivnFrac/2^24)
type Dividers struct {
	Divo     uint16 // output divider, 9 bits
	DivnInt  uint16 // integer part of the feedback divider, 9 bits
	DivnFrac uint32 // fractional part of the feedback divider, 24 bits
	Fvco     uint64 // resulting VCO frequency in Hz
}

// DivoHigh returns bit 8 of the output divider, the part that does not fit in
// the low divider register.
func (d Dividers) DivoHigh() uint8 { return uint8(d.Divo >> 8) }

// DivnIntHigh returns bits 8..7 of the integer feedback divider.
func (d Dividers) DivnIntHigh() uint8 { return uint8(d.DivnInt >> 7) }

/*
CalcDividers computes the output divider, feedback divider and VCO frequency
that produce reqHz from a crystal running at fxtal Hz. dblrDis disables the
reference doubler, halving the phase detector frequency.

The search follows the vendor procedure:

	Output Divider = INT(1 + Fvco_min / Fout)
	Fvco = Fout * Output Divider
	Feedback Divider = Fvco / (Fxtal * Doubler)

walking the output divider upward until the feedback division is exact. When
no integer solution exists below the VCO or feedback limits, the fractional
feedback divider is computed at the initial output divider guess, rounded to
2^-24 with a decimal >= 0.5 rule; a fraction of half or more also carries into
the integer part.

All arithmetic is unsigned integer math, as on the chip.
*/
func CalcDividers(reqHz, fxtal uint32, dblrDis bool) (Dividers, error) {
	if reqHz == 0 || fxtal == 0 {
		return Dividers{}, ErrNoSolution
	}
	pfd := uint64(fxtal)
	if !dblrDis {
		pfd *= 2
	}

	guess := 1 + FvcoMin/uint64(reqHz)
	divo := guess
	var (
		fvco  uint64
		n     uint64
		rem   uint64
		frac  uint64
		exact bool
	)

	// The vendor search does not advance divo while the feedback divider is
	// still under DivnMin, so a reference fast enough to hold it there would
	// spin forever. Cap the iterations at the number of divo values the loop
	// could ever visit and report no solution instead.
	limit := 0
	if guess < DivoMax {
		limit = int(DivoMax - guess)
	}
	for steps := 0; divo < DivoMax; steps++ {
		if steps > limit {
			return Dividers{}, ErrNoSolution
		}
		fvco = uint64(reqHz) * divo
		if fvco > FvcoMax {
			break
		}
		n = fvco / pfd
		rem = fvco % pfd
		if n < DivnMin {
			continue
		}
		if n > DivnMax {
			break
		}
		if rem == 0 {
			exact = true
			break
		}
		divo++
	}

	if !exact {
		divo = guess
		fvco = uint64(reqHz) * divo
		n = fvco / pfd
		rem = fvco % pfd
		frac = (rem << 24) / pfd
		rem = (rem << 24) % pfd
		if rem*10/pfd >= 5 {
			frac++
		}
		if (frac*10)>>24 >= 5 {
			// Half or more carries into the integer part. The vendor
			// arithmetic leaves the fraction in place; the register holds
			// its low 24 bits either way.
			n++
		}
	}

	d := Dividers{
		Divo:     uint16(divo),
		DivnInt:  uint16(n),
		DivnFrac: uint32(frac),
		Fvco:     fvco,
	}
	if divo < DivoMin || divo > DivoMax ||
		n < DivnMin || n > DivnMax ||
		fvco < FvcoMin || fvco > FvcoMax {
		return Dividers{}, ErrNoSolution
	}
	return d, nil
}
