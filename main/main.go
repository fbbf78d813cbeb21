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

// Command idtxp programs an IDT XP synthesizer over a Linux I2C bus.
package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"

	"idtxp/src/idtxp"
)

const usage = `usage: idtxp [-b BUS] [-a ADDR] [-x HZ] VERB...

	-b BUS	I2C bus index (default 0)
	-a ADDR	device address (default 0x50)
	-x HZ	crystal frequency (default 49152000)

verbs:
	rate HZ		configure the chip and set the output frequency
	get		read back the programmed output frequency
	dump		hex dump the register file
	poke REG VAL	write one register (hex)
	load FILE	configure from a settings image, raw or Intel HEX
`

func main() {
	flag, args := flags.New(os.Args[1:], "-h")
	parm, args := parms.New(args, "-b", "-a", "-x")
	if flag.ByName["-h"] || len(args) == 0 {
		fmt.Print(usage)
		if !flag.ByName["-h"] {
			os.Exit(1)
		}
		return
	}

	d, err := device(parm.ByName)
	if err == nil {
		err = run(d, args)
	}
	if err != nil {
		log.Print("idtxp: ", err)
		os.Exit(1)
	}
}

func device(parm map[string]string) (*idtxp.Device, error) {
	busIndex, err := parmUint(parm["-b"], 0)
	if err != nil {
		return nil, err
	}
	addr, err := parmUint(parm["-a"], idtxp.Address)
	if err != nil {
		return nil, err
	}
	fxtal, err := parmUint(parm["-x"], 49_152_000)
	if err != nil {
		return nil, err
	}
	d := idtxp.New(smbus{index: int(busIndex)}, uint32(fxtal))
	d.Address = uint8(addr)
	return d, nil
}

func run(d *idtxp.Device, args []string) error {
	verb, args := args[0], args[1:]
	switch verb {
	case "rate":
		if len(args) != 1 {
			return fmt.Errorf("rate: want HZ")
		}
		hz, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return err
		}
		if err := d.Configure(); err != nil {
			return err
		}
		return d.SetRate(uint32(hz))
	case "get":
		hz, err := d.ReadRate()
		if err != nil {
			return err
		}
		fmt.Println(hz)
		return nil
	case "dump":
		return d.Dump(os.Stdout)
	case "poke":
		if len(args) != 2 {
			return fmt.Errorf("poke: want REG VAL")
		}
		reg, err := strconv.ParseUint(args[0], 16, 8)
		if err != nil {
			return err
		}
		val, err := strconv.ParseUint(args[1], 16, 8)
		if err != nil {
			return err
		}
		return d.Poke(uint8(reg), uint8(val))
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("load: want FILE")
		}
		image, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		// Intel HEX records start with a colon; anything else is a raw
		// register image.
		if len(image) > 0 && image[0] == ':' {
			err = d.UseSettingsHex(bytes.NewReader(image))
		} else {
			err = d.UseSettings(image)
		}
		if err != nil {
			return err
		}
		return d.Configure()
	}
	return fmt.Errorf("%s: unknown verb", verb)
}

func parmUint(s string, def uint64) (uint64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseUint(s, 0, 32)
}
