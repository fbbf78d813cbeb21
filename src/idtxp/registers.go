package idtxp

// Register map of the XP synthesizer. Addresses, masks and limits are the
// chip's register contract and must match the datasheet bit for bit.

// Frequency0 block, 0x10..0x15.
const (
	RegDivo70         = 0x10 // output divider bits 7:0
	RegDivo8DivnInt60 = 0x11 // output divider bit 8, feedback divider bits 6:0
	RegIcpDivnInt87   = 0x12 // charge pump, feedback divider bits 8:7, PLL mode
	RegDivnFrac70     = 0x13 // fractional feedback divider bits 7:0
	RegDivnFrac158    = 0x14 // fractional feedback divider bits 15:8
	RegDivnFrac2316   = 0x15 // fractional feedback divider bits 23:16
)

// Miscellaneous settings block, 0x50..0x57. 0x54 is the device I2C address
// register and is never touched.
const (
	RegHspI2cCmos   = 0x50
	RegDblrDisVdd   = 0x51
	RegVcxo         = 0x52
	RegOePolDrvType = 0x53
	RegXo0          = 0x55
	RegXo1          = 0x56
	RegXo2          = 0x57
)

// Active trigger control registers.
const (
	RegControl    = 0x60
	RegFreqChange = 0x62
)

// Field masks, relative to their register byte.
const (
	MaskDivo8       = 0x80
	MaskDivnInt60   = 0x7F
	MaskIcpOffsetEn = 0x40
	MaskDivnInt87   = 0x30
	MaskIcpValue    = 0x0E
	MaskPllMode     = 0x01

	MaskHspI2cEn = 0x10
	MaskCmosEn   = 0x08
	MaskDblrDis  = 0x80
	MaskVddDef   = 0x60
	MaskVcxoEn   = 0x04
	MaskVcxoBw   = 0x03
	MaskGslope   = 0x80
	MaskGexp     = 0x70
	MaskGscale   = 0x0F
	MaskOePolEn  = 0x80
	MaskDrvType  = 0x70

	MaskOtGm       = 0xC0
	MaskXoCap      = 0x3F
	MaskXoAmpSlice = 0xF0
	MaskBypass     = 0x08
	MaskCapX2      = 0x07
	MaskOtDis      = 0x80
	MaskOtRes      = 0x70

	MaskNvmcpToNvm      = 0x20
	MaskLockPll         = 0x01
	MaskSmallFreqChange = 0x02
	MaskLargeFreqChange = 0x01
)

const (
	numConfigRegisters = 256
	numFreqRegisters   = 6
	numMiscRegisters   = 8
)

// Output frequency limits of the part.
const (
	MinFreq     = 16_000_000
	MaxFreq     = 2_100_000_000
	HcslMaxFreq = 725_000_000 // ceiling when the output driver is HCSL
)
