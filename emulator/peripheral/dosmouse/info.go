/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package dosmouse

import (
	"fmt"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/version"
)

// driverInfo is the guest resident block with the version and copyright
// strings. The initialization file name is the empty string between
// them.
type driverInfo struct {
	segment                              uint16
	data                                 []byte
	offIniFile, offVersion, offCopyright uint16
}

func (i *driverInfo) write(mem memory.Memory) {
	memory.WriteBlock(mem, memory.NewPointer(i.segment, 0), i.data)
}

func (i *driverInfo) address(offset uint16) memory.Address {
	return memory.NewAddress(i.segment, offset)
}

func (m *Device) prepareDriverInfo() error {
	if m.info.segment != 0 {
		return nil
	}

	ver := "version " + version.FormatBCD(DriverVersionMajor, DriverVersionMinor)
	text := ver + "\x00" + version.Copyright + "\x00"

	const blockSize = 0x10
	blocks := (len(text) + blockSize - 1) / blockSize
	seg, err := m.p.AllocateMemory(uint16(blocks))
	if err != nil {
		return fmt.Errorf("could not allocate driver information: %w", err)
	}

	data := make([]byte, blocks*blockSize)
	copy(data, text)

	m.info = driverInfo{
		segment:      seg,
		data:         data,
		offIniFile:   uint16(len(ver)),
		offVersion:   0,
		offCopyright: uint16(len(ver) + 1),
	}
	m.info.write(m.p)
	return nil
}
