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

package main

import (
	"errors"

	"github.com/platinasystems/i2c"
	"tinygo.org/x/drivers"
)

// smbus adapts a Linux /dev/i2c-N bus to the register interface the driver
// expects, one SMBus byte transfer per register. The bus is opened per
// transfer, the way the kernel tools do it, so a stuck transaction cannot
// wedge the process.
type smbus struct {
	index int
}

var _ drivers.I2C = smbus{}

func (b smbus) do(rw i2c.RW, addr, reg uint8, data *i2c.SMBusData) error {
	var bus i2c.Bus
	if err := bus.Open(b.index); err != nil {
		return err
	}
	defer bus.Close()
	if err := bus.ForceSlaveAddress(int(addr)); err != nil {
		return err
	}
	return bus.Do(rw, reg, i2c.ByteData, data)
}

func (b smbus) ReadRegister(addr, reg uint8, buf []byte) error {
	for i := range buf {
		var data i2c.SMBusData
		if err := b.do(i2c.Read, addr, reg+uint8(i), &data); err != nil {
			return err
		}
		buf[i] = data[0]
	}
	return nil
}

func (b smbus) WriteRegister(addr, reg uint8, buf []byte) error {
	for i, v := range buf {
		var data i2c.SMBusData
		data[0] = v
		if err := b.do(i2c.Write, addr, reg+uint8(i), &data); err != nil {
			return err
		}
	}
	return nil
}

func (b smbus) Tx(addr uint16, w, r []byte) error {
	return errors.New("smbus: raw transactions not supported")
}
