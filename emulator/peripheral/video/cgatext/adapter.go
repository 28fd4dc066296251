/*
Copyright (C) 2019-2020 Andreas T Jonsson

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package cgatext

import (
	"log"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
)

// BIOS data area.
const (
	bdaVideoMode   = 0x449
	bdaColumns     = 0x44A
	bdaPageSize    = 0x44C
	bdaPageStart   = 0x44E
	bdaCursorPos   = 0x450
	bdaCursorShape = 0x460
	bdaActivePage  = 0x462
	bdaCRTCBase    = 0x463
	bdaRows        = 0x484
)

func (m *Device) pageSize() uint16 {
	if !m.mode.Text {
		return memorySize
	}
	if m.mode.Columns <= 40 {
		return 0x800
	}
	return 0x1000
}

func (m *Device) pageOffset(page byte) uint16 {
	if !m.mode.Text {
		return 0
	}
	return uint16(page) * m.pageSize()
}

func (m *Device) textOffset(col, row uint16, page byte) uint16 {
	return (m.pageOffset(page) + (row*m.mode.Columns+col)*2) & (memorySize - 2)
}

// pixelAddress returns the byte offset and bit shift of a pixel in the
// interleaved CGA layout.
func (m *Device) pixelAddress(x, y uint16) (offset uint16, shift, mask byte, ok bool) {
	if x >= m.mode.Width || y >= m.mode.Height {
		return 0, 0, 0, false
	}
	row := (y&1)*oddFieldOffset + (y>>1)*80
	switch m.mode.Number {
	case 0x04, 0x05:
		return row + x>>2, byte(3-x&3) * 2, 0x3, true
	case 0x06:
		return row + x>>3, byte(7 - x&7), 0x1, true
	}
	return 0, 0, 0, false
}

func (m *Device) pixel(x, y uint16) byte {
	offset, shift, mask, ok := m.pixelAddress(x, y)
	if !ok {
		return 0
	}
	return (m.mem[offset] >> shift) & mask
}

func (m *Device) Mode() video.Mode {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.mode
}

func (m *Device) CurrentPage() byte {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.page
}

func (m *Device) ReadCharAttr(col, row uint16, page byte) uint16 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if !m.mode.Text {
		return 0
	}
	offset := m.textOffset(col, row, page)
	return uint16(m.mem[offset]) | uint16(m.mem[offset+1])<<8
}

func (m *Device) WriteCharAttr(col, row uint16, page, ch, attr byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.mode.Text {
		return
	}
	offset := m.textOffset(col, row, page)
	m.mem[offset] = ch
	m.mem[offset+1] = attr
	m.dirtyMemory = true
}

func (m *Device) SetCursorShape(start, end byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.writeCRT(0xA, start)
	m.writeCRT(0xB, end)
	if m.p != nil {
		memory.WriteWord(m.p, bdaCursorShape, uint16(start)<<8|uint16(end))
	}
}

func (m *Device) SetHardwareCursor(col, row uint16, page byte) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.setCursorPos(col, row, page)
}

func (m *Device) setCursorPos(col, row uint16, page byte) {
	page %= maxPages
	m.pageCurs[page] = [2]uint16{col, row}
	if m.p != nil {
		m.p.WriteByte(bdaCursorPos+memory.Pointer(page)*2, byte(col))
		m.p.WriteByte(bdaCursorPos+memory.Pointer(page)*2+1, byte(row))
	}
	if page != m.page {
		return
	}

	pos := m.pageOffset(page)/2 + row*m.mode.Columns + col
	m.writeCRT(0xE, byte(pos>>8))
	m.writeCRT(0xF, byte(pos))
}

func (m *Device) GetPixel(x, y uint16, page byte) byte {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.pixel(x, y)
}

func (m *Device) PutPixel(x, y uint16, page, color byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	offset, shift, mask, ok := m.pixelAddress(x, y)
	if !ok {
		return
	}
	m.mem[offset] = m.mem[offset]&^(mask<<shift) | (color&mask)<<shift
	m.dirtyMemory = true
}

func (m *Device) setMode(mode video.Mode, clear bool) {
	m.mode = mode
	m.page = 0
	m.pageCurs = [maxPages][2]uint16{}
	m.cursorPos = 0
	m.cursor = consoleCursor{update: true, visible: mode.Text}
	m.crtReg[0xA], m.crtReg[0xB] = 6, 7

	if clear {
		if mode.Text {
			for i := 0; i < memorySize; i += 2 {
				m.mem[i] = ' '
				m.mem[i+1] = 0x07
			}
		} else {
			for i := range m.mem {
				m.mem[i] = 0
			}
		}
	}
	m.dirtyMemory = true

	if m.p == nil {
		return
	}
	p := m.p
	p.WriteByte(bdaVideoMode, mode.Number)
	memory.WriteWord(p, bdaColumns, mode.Columns)
	memory.WriteWord(p, bdaPageSize, m.pageSize())
	memory.WriteWord(p, bdaPageStart, 0)
	for i := 0; i < maxPages*2; i++ {
		p.WriteByte(bdaCursorPos+memory.Pointer(i), 0)
	}
	memory.WriteWord(p, bdaCursorShape, 0x0607)
	p.WriteByte(bdaActivePage, 0)
	memory.WriteWord(p, bdaCRTCBase, 0x3D4)
	if mode.Text {
		p.WriteByte(bdaRows, byte(mode.Rows-1))
	}
}

// SetMode switches the BIOS video mode and notifies the listeners.
func (m *Device) SetMode(number byte) bool {
	mode, ok := video.StandardModes[number&0x7F]
	if !ok {
		log.Printf("Unsupported video mode: 0x%02X", number)
		return false
	}

	for _, l := range m.Listeners {
		l.BeforeNewVideoMode()
	}

	m.lock.Lock()
	m.setMode(mode, number&0x80 == 0)
	m.lock.Unlock()

	for _, l := range m.Listeners {
		l.AfterNewVideoMode(true)
	}
	return true
}

func (m *Device) teletype(ch, attr byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.mode.Text {
		return
	}

	page := m.page
	col, row := m.pageCurs[page][0], m.pageCurs[page][1]
	cols, rows := m.mode.Columns, m.mode.Rows

	switch ch {
	case '\a':
		return
	case '\b':
		if col > 0 {
			col--
		}
	case '\r':
		col = 0
	case '\n':
		row++
	default:
		offset := m.textOffset(col, row, page)
		m.mem[offset] = ch
		if attr != 0 {
			m.mem[offset+1] = attr
		}
		col++
	}

	if col >= cols {
		col = 0
		row++
	}
	if row >= rows {
		m.scrollUp(page)
		row = rows - 1
	}
	m.setCursorPos(col, row, page)
	m.dirtyMemory = true
}

func (m *Device) scrollUp(page byte) {
	base := m.pageOffset(page)
	lineSize := m.mode.Columns * 2
	size := lineSize * m.mode.Rows
	copy(m.mem[base:base+size-lineSize], m.mem[base+lineSize:base+size])
	for i := base + size - lineSize; i < base+size; i += 2 {
		m.mem[i] = ' '
		m.mem[i+1] = 0x07
	}
}

// HandleInterrupt implements the INT 10h functions text mode programs
// rely on.
func (m *Device) HandleInterrupt(int) error {
	r := m.p.GetRegisters()
	switch r.AH() {
	case 0x00:
		m.SetMode(r.AL())
	case 0x01:
		m.SetCursorShape(r.CH(), r.CL())
	case 0x02:
		m.SetHardwareCursor(uint16(r.DL()), uint16(r.DH()), r.BH())
	case 0x03:
		m.lock.RLock()
		pos := m.pageCurs[r.BH()%maxPages]
		r.SetDH(byte(pos[1]))
		r.SetDL(byte(pos[0]))
		r.SetCH(m.crtReg[0xA])
		r.SetCL(m.crtReg[0xB])
		m.lock.RUnlock()
	case 0x05:
		m.lock.Lock()
		if m.mode.Text {
			m.page = r.AL() % maxPages
			m.p.WriteByte(bdaActivePage, m.page)
			memory.WriteWord(m.p, bdaPageStart, m.pageOffset(m.page))
			pos := m.pageCurs[m.page]
			m.setCursorPos(pos[0], pos[1], m.page)
		}
		m.lock.Unlock()
	case 0x0E:
		m.teletype(r.AL(), 0)
	case 0x0F:
		mode := m.Mode()
		r.SetAL(mode.Number)
		r.SetAH(byte(mode.Columns))
		if !mode.Text {
			r.SetAH(byte(mode.Width / 8))
		}
		r.SetBH(m.CurrentPage())
	default:
		log.Printf("Unhandled INT 10h function: 0x%02X", r.AH())
	}
	return nil
}

var _ video.Adapter = (*Device)(nil)
var _ processor.InterruptHandler = (*Device)(nil)
