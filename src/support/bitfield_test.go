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

import "testing"

func Test_packUnpack(t *testing.T) {
	cases := []struct {
		reg, val, mask, want uint8
	}{
		{0x00, 0x05, 0x0E, 0x0A}, // charge pump code into bits 3:1
		{0xFF, 0x00, 0x0E, 0xF1}, // clearing a field keeps its neighbors
		{0x00, 0x01, 0x80, 0x80}, // single high bit
		{0x12, 0x3C, 0x3F, 0x3C}, // low six bits over stale data
		{0xA5, 0xA5, 0xFF, 0xA5}, // full byte
		{0x40, 0x02, 0x30, 0x60}, // feedback divider high bits
	}
	for _, c := range cases {
		got := Pack(c.reg, c.val, c.mask)
		if got != c.want {
			t.Errorf("Pack(%#02x, %#02x, %#02x) = %#02x, want %#02x",
				c.reg, c.val, c.mask, got, c.want)
		}
		if back := Unpack(got, c.mask); back != c.val {
			t.Errorf("Unpack(%#02x, %#02x) = %#02x, want %#02x",
				got, c.mask, back, c.val)
		}
	}
}

func Test_packPreservesOutsideBits(t *testing.T) {
	for reg := 0; reg < 256; reg++ {
		got := Pack(uint8(reg), 0x2, 0x30)
		if got&^0x30 != uint8(reg)&^0x30 {
			t.Fatalf("Pack(%#02x, 2, 0x30) = %#02x clobbered bits outside the mask", reg, got)
		}
	}
}

func Test_packOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic packing an oversized value")
		}
	}()
	Pack(0x00, 0x04, 0x03)
}
