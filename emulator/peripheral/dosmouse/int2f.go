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
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
)

const vmdMouseDeviceID = 0x0C

// HandleInterrupt serves the INT 2Fh multiplex functions used by Windows
// in enhanced mode. Everything else continues down the chain.
func (m *Device) HandleInterrupt(int) error {
	r := m.regs
	s := m.state

	switch r.AX() {
	case 0x1605: // Windows startup
		m.logger.Info("Starting Windows", "version", fmt.Sprintf("%d.%d", r.DI()>>8, r.DI()&0xFF))
		link := s.SetupWindowsStruct(memory.NewAddress(r.ES(), r.BX()))
		r.SetES(link.Segment())
		r.SetBX(link.Offset())
		s.SetWin386Running(true)
		s.SetWin386DrawingCursor(false)
	case 0x1606: // Windows shutdown
		m.logger.Info("Shutting down Windows")
		s.ClearWindowsStruct()
		s.SetWin386Running(false)
		s.SetWin386DrawingCursor(false)
	case 0x1607: // device callout
		if r.BX() != vmdMouseDeviceID {
			return processor.ErrInterruptNotHandled
		}
		switch r.CX() {
		case 0x00: // installation check
			r.SetCX(1)
		case 0x01: // callout address
			r.SetDS(m.win386Callout.Segment())
			r.SetSI(m.win386Callout.Offset())
			r.SetAX(0)
		default:
			m.logger.Warn("Unknown Windows device callout", "cx", fmt.Sprintf("0x%04X", r.CX()))
		}
	case 0x4001, 0x4002: // task switch to background/foreground
	default:
		return processor.ErrInterruptNotHandled
	}
	return nil
}

func (m *Device) handleWin386Callout() error {
	r := m.regs
	r.SetBP(r.SP())

	switch r.AX() {
	case 1:
		m.logger.Debug("Windows mouse event")
	case 2:
		m.state.SetWin386DrawingCursor(true)
	case 3:
		m.state.SetWin386DrawingCursor(false)
	default:
		m.logger.Warn("Windows callout function not implemented", "function", fmt.Sprintf("0x%04X", r.AX()))
	}
	return nil
}

// handleMouseBD is the far call entry of Windows mouse drivers. The
// stack holds offsets, relative to DS, of the AX/BX/CX/DX values.
func (m *Device) handleMouseBD() error {
	r := m.regs
	stack := func(offset uint16) uint16 {
		return m.p.ReadWord(memory.NewPointer(r.SS(), r.SP()+offset))
	}
	data := func(offset uint16) memory.Pointer {
		return memory.NewPointer(r.DS(), offset)
	}

	axPtr, bxPtr, cxPtr, dxPtr := stack(0x0A), stack(0x08), stack(0x06), stack(0x04)

	fn := m.p.ReadWord(data(axPtr))
	r.Set16(fn, m.p.ReadWord(data(bxPtr)), m.p.ReadWord(data(cxPtr)), m.p.ReadWord(data(dxPtr)))

	switch fn {
	case 0x09, 0x16, 0x17:
		r.SetES(r.DS())
	case 0x0C, 0x14:
		if r.BX() != 0 {
			r.SetES(r.BX())
		} else {
			r.SetES(r.DS())
		}
	case 0x10:
		r.SetCX(m.p.ReadWord(data(dxPtr)))
		r.SetDX(m.p.ReadWord(data(dxPtr + 2)))
		r.SetSI(m.p.ReadWord(data(dxPtr + 4)))
		r.SetDI(m.p.ReadWord(data(dxPtr + 6)))
	}

	m.dispatch(r)

	m.p.WriteWord(data(axPtr), r.AX())
	m.p.WriteWord(data(bxPtr), r.BX())
	m.p.WriteWord(data(cxPtr), r.CX())
	m.p.WriteWord(data(dxPtr), r.DX())

	switch fn {
	case 0x1F:
		m.p.WriteWord(data(bxPtr), r.ES())
	case 0x14:
		m.p.WriteWord(data(cxPtr), r.ES())
	}
	return nil
}
