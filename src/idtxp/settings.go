package idtxp

import (
	"errors"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
)

// A settings image is a full snapshot of the 256-byte register file,
// typically produced by the vendor's configuration tool. When one is
// installed, Configure writes it to the chip verbatim before the
// crystal trim is applied.

var ErrBadSettings = errors.New("idtxp: settings image must cover registers 0x00..0xff")

// UseSettings installs a raw register image. The slice must be exactly
// numConfigRegisters long; it is copied, so the caller may reuse it.
func (d *Device) UseSettings(image []byte) error {
	if len(image) != numConfigRegisters {
		return fmt.Errorf("%w (got %d bytes)", ErrBadSettings, len(image))
	}
	d.settings = make([]byte, numConfigRegisters)
	copy(d.settings, image)
	return nil
}

// UseSettingsHex installs a register image from an Intel HEX stream.
// Segment addresses are register numbers; together the segments must
// cover the whole register file with nothing out of range.
func (d *Device) UseSettingsHex(r io.Reader) error {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return fmt.Errorf("idtxp: parsing settings: %w", err)
	}
	image := make([]byte, numConfigRegisters)
	covered := 0
	for _, seg := range mem.GetDataSegments() {
		end := int(seg.Address) + len(seg.Data)
		if end > numConfigRegisters {
			return fmt.Errorf("%w (segment %#02x..%#02x)", ErrBadSettings, seg.Address, end-1)
		}
		copy(image[seg.Address:], seg.Data)
		covered += len(seg.Data)
	}
	if covered != numConfigRegisters {
		return fmt.Errorf("%w (segments cover %d bytes)", ErrBadSettings, covered)
	}
	d.settings = image
	return nil
}

// writeAllSettings pushes the installed image to the chip, one register
// at a time in ascending order.
func (d *Device) writeAllSettings() error {
	for reg := 0; reg < numConfigRegisters; reg++ {
		if err := d.writeReg(uint8(reg), d.settings[reg]); err != nil {
			return err
		}
	}
	return nil
}
