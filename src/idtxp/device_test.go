package idtxp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type busWrite struct {
	reg uint8
	val uint8
}

// fakeBus is a register-file I2C double. It records every single-register
// write in order and can be told to fail the nth write.
type fakeBus struct {
	regs   [256]uint8
	writes []busWrite
	failAt int // fail the write with this index, -1 to never fail
}

var errBus = errors.New("bus error")

func newFakeBus() *fakeBus {
	return &fakeBus{failAt: -1}
}

func (b *fakeBus) ReadRegister(addr, reg uint8, buf []byte) error {
	for i := range buf {
		buf[i] = b.regs[int(reg)+i]
	}
	return nil
}

func (b *fakeBus) WriteRegister(addr, reg uint8, buf []byte) error {
	for i, v := range buf {
		if b.failAt >= 0 && len(b.writes) == b.failAt {
			return errBus
		}
		b.regs[int(reg)+i] = v
		b.writes = append(b.writes, busWrite{reg + uint8(i), v})
	}
	return nil
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	return errors.New("fakeBus: Tx not modeled")
}

func testDevice(t *testing.T) (*Device, *fakeBus) {
	t.Helper()
	bus := newFakeBus()
	d := New(bus, 49_152_000)
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return d, bus
}

func Test_configure(t *testing.T) {
	d, bus := testDevice(t)
	if got := bus.regs[RegHspI2cCmos]; got != 0x15 {
		t.Errorf("reg 0x50 = %#02x, want 0x15", got)
	}
	if got := bus.regs[RegVcxo]; got != 0x2A {
		t.Errorf("reg 0x52 = %#02x, want 0x2a", got)
	}
	// 49.152 MHz sits in the 40..80 MHz band: doubler on, gm 2, big load
	// caps, overtone path off.
	for _, c := range []struct {
		reg  uint8
		want uint8
	}{
		{RegXo0, 0xBC},
		{RegXo1, 0x12},
		{RegXo2, 0x80},
	} {
		if got := bus.regs[c.reg]; got != c.want {
			t.Errorf("reg %#02x = %#02x, want %#02x", c.reg, got, c.want)
		}
	}
	xo := d.Xo()
	if xo.DblrDis {
		t.Error("doubler should be enabled for a 49.152 MHz crystal")
	}
	if xo.Gm != 2 || xo.CapX1 != 0x3C || xo.CapX2 != 2 {
		t.Errorf("trim not applied: gm=%d capX1=%#02x capX2=%d", xo.Gm, xo.CapX1, xo.CapX2)
	}
}

func Test_configureBadCrystal(t *testing.T) {
	bus := newFakeBus()
	d := New(bus, 90_000_000)
	if err := d.Configure(); err == nil {
		t.Fatal("Configure accepted a crystal outside every trim band")
	}
	if len(bus.writes) != 0 {
		t.Errorf("chip written %d times despite bad crystal", len(bus.writes))
	}
}

func Test_setRate(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.SetRate(156_250_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	// divo 44, divn 69 + 0.936..., carried to 70 with the fraction kept.
	for _, c := range []struct {
		reg  uint8
		want uint8
	}{
		{RegDivo70, 0x2C},
		{RegDivo8DivnInt60, 0x46},
		{RegIcpDivnInt87, 0x0A},
		{RegDivnFrac70, 0x55},
		{RegDivnFrac158, 0xA5},
		{RegDivnFrac2316, 0xEF},
	} {
		if got := bus.regs[c.reg]; got != c.want {
			t.Errorf("reg %#02x = %#02x, want %#02x", c.reg, got, c.want)
		}
	}
	if got := d.GetRate(); got != 156_250_000 {
		t.Errorf("GetRate = %d, want 156250000", got)
	}
	div := d.Dividers()
	if div.Divo != 44 || div.DivnInt != 70 || div.DivnFrac != 15_705_429 {
		t.Errorf("dividers = %+v", div)
	}
	// 6.875 GHz VCO takes the strongest charge pump setting.
	if got := (bus.regs[RegIcpDivnInt87] & MaskIcpValue) >> 1; got != 5 {
		t.Errorf("charge pump = %d, want 5", got)
	}
	// Control and trigger registers must be left cleared.
	if bus.regs[RegControl] != 0 || bus.regs[RegFreqChange] != 0 {
		t.Errorf("control=%#02x trigger=%#02x, want both 0",
			bus.regs[RegControl], bus.regs[RegFreqChange])
	}
}

func Test_setRateWriteOrder(t *testing.T) {
	d, bus := testDevice(t)
	bus.writes = nil
	if err := d.SetRate(122_880_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	want := []busWrite{
		{RegDivo70, 0x38},
		{RegDivo8DivnInt60, 0x46},
		{RegIcpDivnInt87, 0x0A},
		{RegDivnFrac70, 0x00},
		{RegDivnFrac158, 0x00},
		{RegDivnFrac2316, 0x00},
		{RegControl, 0x00},
		{RegControl, 0x20},
		{RegControl, 0x00},
		{RegControl, 0x01},
		{RegControl, 0x00},
		{RegFreqChange, MaskLargeFreqChange},
		{RegFreqChange, 0x00},
	}
	if len(bus.writes) != len(want) {
		t.Fatalf("got %d writes, want %d: %v", len(bus.writes), len(want), bus.writes)
	}
	for i, w := range want {
		if bus.writes[i] != w {
			t.Errorf("write %d = {%#02x %#02x}, want {%#02x %#02x}",
				i, bus.writes[i].reg, bus.writes[i].val, w.reg, w.val)
		}
	}
}

func Test_smallLargeClassification(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.SetRate(100_000_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	// 0.049999% away: committed without a relock.
	bus.writes = nil
	if err := d.SetRate(100_049_999); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	if got := trigger(bus.writes); got != MaskSmallFreqChange {
		t.Errorf("trigger = %#02x, want small (%#02x)", got, MaskSmallFreqChange)
	}

	// 0.050001% away from the new rate: full relock.
	bus.writes = nil
	if err := d.SetRate(100_100_100); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	if got := trigger(bus.writes); got != MaskLargeFreqChange {
		t.Errorf("trigger = %#02x, want large (%#02x)", got, MaskLargeFreqChange)
	}
}

// trigger returns the first nonzero value written to the frequency change
// register.
func trigger(writes []busWrite) uint8 {
	for _, w := range writes {
		if w.reg == RegFreqChange && w.val != 0 {
			return w.val
		}
	}
	return 0
}

func Test_setRateIdempotent(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.SetRate(100_000_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	bus.writes = nil
	if err := d.SetRate(100_000_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	first := append([]busWrite(nil), bus.writes...)

	bus.writes = nil
	if err := d.SetRate(100_000_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	if len(first) != len(bus.writes) {
		t.Fatalf("repeat produced %d writes, first produced %d", len(bus.writes), len(first))
	}
	for i := range first {
		if first[i] != bus.writes[i] {
			t.Errorf("write %d differs between identical SetRate calls", i)
		}
	}
	if got := trigger(bus.writes); got != MaskSmallFreqChange {
		t.Errorf("zero delta should be a small change, trigger = %#02x", got)
	}
}

func Test_setRateOutOfRange(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.SetRate(100_000_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	bus.writes = nil
	for _, hz := range []uint32{0, MinFreq - 1, MaxFreq + 1} {
		if err := d.SetRate(hz); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetRate(%d) = %v, want ErrOutOfRange", hz, err)
		}
	}
	if len(bus.writes) != 0 {
		t.Errorf("chip written %d times for out of range rates", len(bus.writes))
	}
	if got := d.GetRate(); got != 100_000_000 {
		t.Errorf("GetRate = %d after rejected rates, want 100000000", got)
	}
}

func Test_setRateBusFailure(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.SetRate(100_000_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	// Fail partway into the divider block.
	bus.writes = nil
	bus.failAt = 3
	if err := d.SetRate(200_000_000); !errors.Is(err, errBus) {
		t.Fatalf("SetRate = %v, want wrapped bus error", err)
	}
	if got := d.GetRate(); got != 100_000_000 {
		t.Errorf("GetRate = %d after failed commit, want the previous rate", got)
	}
}

func Test_readRate(t *testing.T) {
	d, _ := testDevice(t)
	if err := d.SetRate(122_880_000); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	got, err := d.ReadRate()
	if err != nil {
		t.Fatalf("ReadRate: %v", err)
	}
	if got != 122_880_000 {
		t.Errorf("ReadRate = %d, want 122880000", got)
	}
}

func Test_dividerRoundTrip(t *testing.T) {
	// Decode must invert encode bit for bit, including the high bits of the
	// output and feedback dividers that straddle register boundaries.
	bus := newFakeBus()
	bus.regs[RegDivo70] = 0x2C         // divo 300 = 0x12C
	bus.regs[RegDivo8DivnInt60] = 0x8C // divo bit 8, divn low 7 of 140
	bus.regs[RegIcpDivnInt87] = 0x18   // divn bits 8:7 of 140, icp 4
	bus.regs[RegDivnFrac70] = 0x56
	bus.regs[RegDivnFrac158] = 0x34
	bus.regs[RegDivnFrac2316] = 0x12
	d := New(bus, 49_152_000)
	if _, err := d.ReadRate(); err != nil {
		t.Fatalf("ReadRate: %v", err)
	}
	div := d.Dividers()
	if div.Divo != 300 || div.DivnInt != 140 || div.DivnFrac != 0x123456 {
		t.Errorf("decoded dividers = %+v", div)
	}
}

func Test_readRateUnconfigured(t *testing.T) {
	bus := newFakeBus()
	d := New(bus, 49_152_000)
	if _, err := d.ReadRate(); err == nil {
		t.Fatal("ReadRate on a blank register file should fail")
	}
}

func Test_roundRate(t *testing.T) {
	d, _ := testDevice(t)
	for _, hz := range []uint32{MinFreq, 100_000_000, MaxFreq} {
		if got := d.RoundRate(hz); got != hz {
			t.Errorf("RoundRate(%d) = %d", hz, got)
		}
	}
}

func Test_outputDrive(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.SetOutputDrive(true, 3); err != nil {
		t.Fatalf("SetOutputDrive: %v", err)
	}
	if got := bus.regs[RegOePolDrvType]; got&MaskOePolEn == 0 || (got&MaskDrvType)>>4 != 3 {
		t.Errorf("reg 0x53 = %#02x", got)
	}
	if err := d.SetOutputDrive(false, 8); err == nil {
		t.Error("drive type 8 does not fit the field and should be rejected")
	}
}

func Test_supplyVoltage(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.SetSupplyVoltage(2); err != nil {
		t.Fatalf("SetSupplyVoltage: %v", err)
	}
	if got := (bus.regs[RegDblrDisVdd] & MaskVddDef) >> 5; got != 2 {
		t.Errorf("vdd selector = %d, want 2", got)
	}
	if err := d.SetSupplyVoltage(3); err == nil {
		t.Error("selector 3 should be rejected")
	}
}

func Test_connected(t *testing.T) {
	d, _ := testDevice(t)
	ok, err := d.Connected()
	if err != nil || !ok {
		t.Errorf("Connected = %v, %v", ok, err)
	}
}

func Test_dump(t *testing.T) {
	d, bus := testDevice(t)
	bus.regs[0x00] = 0xAB
	var out bytes.Buffer
	if err := d.Dump(&out); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 17 {
		t.Fatalf("dump has %d lines, want header plus 16 rows", len(lines))
	}
	if !strings.HasPrefix(lines[1], "00  ab ") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[16], "f0  ") {
		t.Errorf("last row = %q", lines[16])
	}
	want := fmt.Sprintf("50  %02x ", bus.regs[0x50])
	if !strings.HasPrefix(lines[6], want) {
		t.Errorf("row 0x50 = %q, want prefix %q", lines[6], want)
	}
}

func Test_poke(t *testing.T) {
	d, bus := testDevice(t)
	if err := d.Poke(0x7F, 0x5A); err != nil {
		t.Fatalf("Poke: %v", err)
	}
	if bus.regs[0x7F] != 0x5A {
		t.Errorf("reg 0x7f = %#02x", bus.regs[0x7F])
	}
	got, err := d.Peek(0x7F)
	if err != nil || got != 0x5A {
		t.Errorf("Peek = %#02x, %v", got, err)
	}
}
