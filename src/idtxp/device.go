// Package idtxp drives an IDT XP family programmable oscillator connected to
// an I2C bus.
//
// The driver computes the PLL divider and charge pump configuration for a
// requested output frequency, encodes it into the chip's register bitfields
// and runs the chip's commit protocol to apply it. Frequency changes within
// 0.05% of the current output are committed without a PLL relock so the
// output glides instead of glitching; larger changes relock the PLL.
//
// Methods on Device are not safe for concurrent use: the Device is the unit
// of mutual exclusion, callers that share one must serialize access
// themselves. A transport failure in the middle of a commit sequence leaves
// the chip in an undefined intermediate state; the recovery is to retry the
// whole SetRate from a known good rate.
package idtxp

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"

	"idtxp/src/support"
)

// Address is the factory default I2C device address.
const Address = 0x50

// ErrOutOfRange is returned for a requested frequency outside the device
// limits. The chip is not touched.
var ErrOutOfRange = errors.New("idtxp: requested frequency out of range")

// XoSettings mirrors the crystal oscillator and miscellaneous settings block
// at 0x50..0x57.
type XoSettings struct {
	HspI2cEn   bool  // high speed I2C enable
	CmosEn     bool  // CMOS output enable
	DblrDis    bool  // reference doubler disable
	VddDef     uint8 // supply voltage selector, see SetSupplyVoltage
	VcxoBw     uint8 // VCXO modulation bandwidth
	VcxoGslope bool  // VCXO gain slope
	VcxoGexp   uint8 // VCXO gain exponent
	VcxoGscale uint8 // VCXO gain scale
	OePolEn    bool  // output enable polarity
	DrvType    uint8 // output driver logic type
	Gm         uint8 // XO amplifier gm overtone
	CapX1      uint8 // XO load capacitance trim, X1 pin
	AmpSlice   uint8 // XO amplifier slice
	Bypass     bool  // bypass the XO oscillator
	CapX2      uint8 // XO load capacitance trim, X2 pin
	OtDis      bool  // overtone operation disable
	OtRes      uint8 // overtone filter resistor
}

// Device represents one XP synthesizer on a bus.
type Device struct {
	bus     drivers.I2C
	Address uint8

	fxtal   uint32
	minFreq uint32
	maxFreq uint32
	reqFreq uint32
	actFreq uint32

	div         support.Dividers
	icpOffsetEn bool
	icpValue    uint8
	pllMode     bool
	xo          XoSettings

	settings []byte // optional full register image, applied by Configure
}

// New creates a Device for a chip clocked by a crystal at fxtal Hz. The
// crystal frequency is fixed at construction; Configure validates it against
// the supported bands.
func New(bus drivers.I2C, fxtal uint32) *Device {
	return &Device{
		bus:     bus,
		Address: Address,
		fxtal:   fxtal,
		minFreq: MinFreq,
		maxFreq: MaxFreq,
		actFreq: MinFreq,
	}
}

// Connected probes the chip with a one byte register read.
func (d *Device) Connected() (bool, error) {
	var buf [1]byte
	if err := d.bus.ReadRegister(d.Address, RegDivo70, buf[:]); err != nil {
		return false, err
	}
	return true, nil
}

// Configure brings the chip up: it reads the power-on defaults, writes the
// full settings image if one was supplied, performs the vendor init writes,
// re-reads the defaults and applies the crystal amplifier trim for the
// configured crystal band. It must be called before SetRate.
func (d *Device) Configure() error {
	trim, err := support.XoTrim(d.fxtal)
	if err != nil {
		return err
	}
	if err := d.readDefaults(); err != nil {
		return err
	}
	if d.settings != nil {
		if err := d.writeAllSettings(); err != nil {
			return err
		}
	}
	// Vendor bring-up writes for the XO variant.
	if err := d.writeReg(RegHspI2cCmos, 0x15); err != nil {
		return err
	}
	if err := d.writeReg(RegVcxo, 0x2A); err != nil {
		return err
	}
	if err := d.readDefaults(); err != nil {
		return err
	}
	d.xo.DblrDis = trim.DblrDis
	d.xo.Gm = trim.Gm
	d.xo.CapX1 = trim.CapX1
	d.xo.AmpSlice = trim.AmpSlice
	d.xo.CapX2 = trim.CapX2
	d.xo.OtDis = trim.OtDis
	d.xo.OtRes = trim.OtRes
	return d.writeXoSettings()
}

// SetRate reprograms the output frequency to hz.
//
// The change is classified by its relative size against the current output:
// under 0.05% the new dividers are committed without a PLL relock, otherwise
// the PLL relocks. A failure before the first register write leaves both chip
// and state untouched; see the package comment for mid-sequence failures.
func (d *Device) SetRate(hz uint32) error {
	if hz < d.minFreq || hz > d.maxFreq {
		return fmt.Errorf("%w: %d Hz", ErrOutOfRange, hz)
	}
	d.reqFreq = hz

	var delta uint64
	if hz > d.actFreq {
		delta = uint64(hz - d.actFreq)
	} else {
		delta = uint64(d.actFreq - hz)
	}
	if delta*10000/uint64(d.actFreq) < 5 {
		return d.smallFrequencyChange(hz)
	}
	return d.largeFrequencyChange(hz)
}

// GetRate returns the last output frequency successfully applied.
func (d *Device) GetRate() uint32 { return d.actFreq }

// RoundRate reports the rate the device would program for hz. Any rate looks
// achievable from here; the real limits are enforced by SetRate.
func (d *Device) RoundRate(hz uint32) uint32 { return hz }

// ReadRate recovers the output frequency currently programmed in the chip
// from the divider registers. This is the frequency the hardware is actually
// generating, which for fractional configurations may differ from the rate
// that was requested by the vendor's own rounding.
func (d *Device) ReadRate() (uint32, error) {
	if err := d.readDefaults(); err != nil {
		return 0, err
	}
	if d.div.Divo == 0 {
		return 0, errors.New("idtxp: chip has no divider configuration")
	}
	pfd := uint64(d.fxtal)
	if !d.xo.DblrDis {
		pfd *= 2
	}
	fvco := pfd*uint64(d.div.DivnInt) + pfd*uint64(d.div.DivnFrac)>>24
	return uint32(fvco / uint64(d.div.Divo)), nil
}

// Xo returns a copy of the current oscillator settings.
func (d *Device) Xo() XoSettings { return d.xo }

// Dividers returns a copy of the current divider configuration.
func (d *Device) Dividers() support.Dividers { return d.div }

// SetOutputDrive sets the output enable polarity and the output driver logic
// type.
func (d *Device) SetOutputDrive(oePol bool, drvType uint8) error {
	if drvType > MaskDrvType>>4 {
		return fmt.Errorf("idtxp: drive type %d out of range", drvType)
	}
	d.xo.OePolEn = oePol
	d.xo.DrvType = drvType
	return d.writeXoSettings()
}

// SetSupplyVoltage selects the supply voltage: 0 for 1.8V, 1 for 2.5V, 2 for
// 3.3V.
func (d *Device) SetSupplyVoltage(sel uint8) error {
	if sel > 2 {
		return fmt.Errorf("idtxp: supply voltage selector %d out of range", sel)
	}
	d.xo.VddDef = sel
	return d.writeXoSettings()
}

// largeFrequencyChange applies hz with a full PLL relock.
func (d *Device) largeFrequencyChange(hz uint32) error {
	if err := d.applyFrequency(hz); err != nil {
		return err
	}
	if err := d.writeReg(RegFreqChange, MaskLargeFreqChange); err != nil {
		return err
	}
	if err := d.writeReg(RegFreqChange, 0x00); err != nil {
		return err
	}
	d.actFreq = hz
	return nil
}

// smallFrequencyChange applies hz without relocking the PLL, for drifts small
// enough for the loop to track.
func (d *Device) smallFrequencyChange(hz uint32) error {
	if err := d.applyFrequency(hz); err != nil {
		return err
	}
	if err := d.writeReg(RegFreqChange, MaskSmallFreqChange); err != nil {
		return err
	}
	if err := d.writeReg(RegFreqChange, 0x00); err != nil {
		return err
	}
	d.actFreq = hz
	return nil
}

// applyFrequency computes dividers and charge pump for hz, writes the divider
// block and runs the commit setup sequence. Everything before writeDividers
// is side effect free on the chip.
func (d *Device) applyFrequency(hz uint32) error {
	div, err := support.CalcDividers(hz, d.fxtal, d.xo.DblrDis)
	if err != nil {
		return err
	}
	d.div = div
	d.icpValue = support.ChargePump(div.Fvco)
	if err := d.writeDividers(); err != nil {
		return err
	}
	return d.commitSetup()
}

// commitSetup toggles the control register through the sequence the vendor
// requires before a frequency commit. The byte sequence is chip proprietary;
// keep it exactly as given.
func (d *Device) commitSetup() error {
	for _, v := range [...]uint8{0x00, 0x20, 0x00, 0x01, 0x00} {
		if err := d.writeReg(RegControl, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) readDefaults() error {
	if err := d.readDividers(); err != nil {
		return err
	}
	return d.readXoSettings()
}

func (d *Device) readDividers() error {
	blk := newRegBlock(RegDivo70, numFreqRegisters)
	if err := blk.load(d.bus, d.Address); err != nil {
		return err
	}
	d.div.Divo = uint16(blk.get(RegDivo8DivnInt60, MaskDivo8))<<8 |
		uint16(blk.get(RegDivo70, 0xFF))
	d.div.DivnInt = uint16(blk.get(RegIcpDivnInt87, MaskDivnInt87))<<7 |
		uint16(blk.get(RegDivo8DivnInt60, MaskDivnInt60))
	d.div.DivnFrac = uint32(blk.get(RegDivnFrac2316, 0xFF))<<16 |
		uint32(blk.get(RegDivnFrac158, 0xFF))<<8 |
		uint32(blk.get(RegDivnFrac70, 0xFF))
	d.icpOffsetEn = blk.get(RegIcpDivnInt87, MaskIcpOffsetEn) != 0
	d.icpValue = blk.get(RegIcpDivnInt87, MaskIcpValue)
	d.pllMode = blk.get(RegIcpDivnInt87, MaskPllMode) != 0
	return nil
}

func (d *Device) writeDividers() error {
	blk := newRegBlock(RegDivo70, numFreqRegisters)
	if err := blk.load(d.bus, d.Address); err != nil {
		return err
	}
	blk.set(RegDivo70, uint8(d.div.Divo), 0xFF)
	blk.set(RegDivo8DivnInt60, d.div.DivoHigh(), MaskDivo8)
	blk.set(RegDivo8DivnInt60, uint8(d.div.DivnInt)&MaskDivnInt60, MaskDivnInt60)
	blk.set(RegIcpDivnInt87, boolBit(d.icpOffsetEn), MaskIcpOffsetEn)
	blk.set(RegIcpDivnInt87, d.div.DivnIntHigh(), MaskDivnInt87)
	blk.set(RegIcpDivnInt87, d.icpValue, MaskIcpValue)
	blk.set(RegIcpDivnInt87, boolBit(d.pllMode), MaskPllMode)
	blk.set(RegDivnFrac70, uint8(d.div.DivnFrac), 0xFF)
	blk.set(RegDivnFrac158, uint8(d.div.DivnFrac>>8), 0xFF)
	blk.set(RegDivnFrac2316, uint8(d.div.DivnFrac>>16), 0xFF)
	return blk.store(d.bus, d.Address)
}

func (d *Device) readXoSettings() error {
	blk := newRegBlock(RegHspI2cCmos, numMiscRegisters)
	if err := blk.load(d.bus, d.Address); err != nil {
		return err
	}
	d.xo.HspI2cEn = blk.get(RegHspI2cCmos, MaskHspI2cEn) != 0
	d.xo.CmosEn = blk.get(RegHspI2cCmos, MaskCmosEn) != 0
	d.xo.DblrDis = blk.get(RegDblrDisVdd, MaskDblrDis) != 0
	d.xo.VddDef = blk.get(RegDblrDisVdd, MaskVddDef)
	d.xo.VcxoBw = blk.get(RegDblrDisVdd, MaskVcxoBw)
	d.xo.VcxoGslope = blk.get(RegVcxo, MaskGslope) != 0
	d.xo.VcxoGexp = blk.get(RegVcxo, MaskGexp)
	d.xo.VcxoGscale = blk.get(RegVcxo, MaskGscale)
	d.xo.OePolEn = blk.get(RegOePolDrvType, MaskOePolEn) != 0
	d.xo.DrvType = blk.get(RegOePolDrvType, MaskDrvType)
	d.xo.Gm = blk.get(RegXo0, MaskOtGm)
	d.xo.CapX1 = blk.get(RegXo0, MaskXoCap)
	d.xo.AmpSlice = blk.get(RegXo1, MaskXoAmpSlice)
	d.xo.Bypass = blk.get(RegXo1, MaskBypass) != 0
	d.xo.CapX2 = blk.get(RegXo1, MaskCapX2)
	d.xo.OtDis = blk.get(RegXo2, MaskOtDis) != 0
	d.xo.OtRes = blk.get(RegXo2, MaskOtRes)
	return nil
}

func (d *Device) writeXoSettings() error {
	blk := newRegBlock(RegHspI2cCmos, numMiscRegisters)
	if err := blk.load(d.bus, d.Address); err != nil {
		return err
	}
	blk.set(RegHspI2cCmos, boolBit(d.xo.HspI2cEn), MaskHspI2cEn)
	blk.set(RegHspI2cCmos, boolBit(d.xo.CmosEn), MaskCmosEn)
	blk.set(RegDblrDisVdd, boolBit(d.xo.DblrDis), MaskDblrDis)
	blk.set(RegDblrDisVdd, d.xo.VddDef, MaskVddDef)
	blk.set(RegDblrDisVdd, d.xo.VcxoBw, MaskVcxoBw)
	blk.set(RegVcxo, boolBit(d.xo.VcxoGslope), MaskGslope)
	blk.set(RegVcxo, d.xo.VcxoGexp, MaskGexp)
	blk.set(RegVcxo, d.xo.VcxoGscale, MaskGscale)
	blk.set(RegOePolDrvType, boolBit(d.xo.OePolEn), MaskOePolEn)
	blk.set(RegOePolDrvType, d.xo.DrvType, MaskDrvType)
	blk.set(RegXo0, d.xo.Gm, MaskOtGm)
	blk.set(RegXo0, d.xo.CapX1, MaskXoCap)
	blk.set(RegXo1, d.xo.AmpSlice, MaskXoAmpSlice)
	blk.set(RegXo1, boolBit(d.xo.Bypass), MaskBypass)
	blk.set(RegXo1, d.xo.CapX2, MaskCapX2)
	blk.set(RegXo2, boolBit(d.xo.OtDis), MaskOtDis)
	blk.set(RegXo2, d.xo.OtRes, MaskOtRes)
	return blk.store(d.bus, d.Address)
}

func (d *Device) writeReg(reg, val uint8) error {
	if err := d.bus.WriteRegister(d.Address, reg, []byte{val}); err != nil {
		return fmt.Errorf("idtxp: write reg %#02x: %w", reg, err)
	}
	return nil
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
