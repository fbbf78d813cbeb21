package idtxp

import (
	"fmt"

	"tinygo.org/x/drivers"

	"idtxp/src/support"
)

// regBlock mirrors a contiguous run of chip registers. The block is read in
// one bulk transfer, mutated field by field, and committed as one batch, so a
// partially encoded divider set never reaches the chip.
type regBlock struct {
	base uint8
	buf  []byte
}

func newRegBlock(base uint8, size int) *regBlock {
	return &regBlock{base: base, buf: make([]byte, size)}
}

func (rb *regBlock) load(bus drivers.I2C, addr uint8) error {
	if err := bus.ReadRegister(addr, rb.base, rb.buf); err != nil {
		return fmt.Errorf("idtxp: read regs %#02x..%#02x: %w",
			rb.base, int(rb.base)+len(rb.buf)-1, err)
	}
	return nil
}

// set packs val into the field selected by mask of the register at reg.
func (rb *regBlock) set(reg, val, mask uint8) {
	i := reg - rb.base
	rb.buf[i] = support.Pack(rb.buf[i], val, mask)
}

func (rb *regBlock) get(reg, mask uint8) uint8 {
	return support.Unpack(rb.buf[reg-rb.base], mask)
}

// store writes the whole block back, one register per byte in ascending
// address order.
func (rb *regBlock) store(bus drivers.I2C, addr uint8) error {
	for i, v := range rb.buf {
		r := rb.base + uint8(i)
		if err := bus.WriteRegister(addr, r, []byte{v}); err != nil {
			return fmt.Errorf("idtxp: write reg %#02x: %w", r, err)
		}
	}
	return nil
}
