package idtxp

import (
	"fmt"
	"io"
)

// Dump writes a hex dump of the whole register file to w, sixteen
// registers per row with the row base address on the left.
func (d *Device) Dump(w io.Writer) error {
	buf := make([]byte, numConfigRegisters)
	if err := d.bus.ReadRegister(d.Address, 0, buf); err != nil {
		return fmt.Errorf("idtxp: reading register file: %w", err)
	}
	fmt.Fprintf(w, "     0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f\n")
	for row := 0; row < numConfigRegisters; row += 16 {
		fmt.Fprintf(w, "%02x  ", row)
		for _, b := range buf[row : row+16] {
			fmt.Fprintf(w, "%02x ", b)
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}

// Peek reads a single register.
func (d *Device) Peek(reg uint8) (uint8, error) {
	var buf [1]byte
	if err := d.bus.ReadRegister(d.Address, reg, buf[:]); err != nil {
		return 0, fmt.Errorf("idtxp: reading register %#02x: %w", reg, err)
	}
	return buf[0], nil
}

// Poke writes a single register as-is, with no masking. Useful for
// bench debugging; a poke is not reflected in the cached device state.
func (d *Device) Poke(reg, val uint8) error {
	return d.writeReg(reg, val)
}
