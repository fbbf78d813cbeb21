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

// ChargePump maps a VCO frequency to the charge pump current code that keeps
// the PLL loop stable there. The breakpoints are vendor characterization data;
// a frequency on a boundary takes the code of the range above it.
func ChargePump(fvco uint64) uint8 {
	switch {
	case fvco < 7_000_000_000:
		return 5
	case fvco < 7_400_000_000:
		return 4
	case fvco < 7_800_000_000:
		return 3
	default:
		return 2
	}
}
