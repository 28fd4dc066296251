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

// Package cgatext renders a CGA compatible adapter in the terminal. It
// also exposes the adapter to the mouse driver and forwards terminal
// mouse input to it.
package cgatext

import (
	"math/rand"
	"sync"
	"time"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
	"github.com/andreas-jonsson/vxtmouse/platform"
	"github.com/gdamore/tcell"
)

const (
	memorySize = 0x4000
	memoryBase = 0xB8000

	oddFieldOffset = 0x2000
	maxPages       = 8
)

var cgaPalette = [16]tcell.Color{
	tcell.ColorBlack,
	tcell.ColorNavy,
	tcell.ColorGreen,
	tcell.ColorTeal,
	tcell.ColorMaroon,
	tcell.ColorPurple,
	tcell.ColorOlive,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlue,
	tcell.ColorLime,
	tcell.ColorAqua,
	tcell.ColorRed,
	tcell.ColorFuchsia,
	tcell.ColorYellow,
	tcell.ColorWhite,
}

type (
	redrawEvent struct{}
	quitEvent   struct{}
)

type consoleCursor struct {
	update, visible bool
	x, y            uint16
}

type Device struct {
	// Screen replaces the terminal when set.
	Screen tcell.Screen
	// Mouse receives terminal mouse input.
	Mouse platform.MouseHandler
	// Listeners are notified around INT 10h mode switches.
	Listeners []video.ModeListener

	lock     sync.RWMutex
	quitChan chan struct{}
	doneChan chan struct{}
	doneOnce sync.Once

	dirtyMemory bool
	mem         [memorySize]byte
	crtReg      [0x100]byte

	crtAddr, modeCtrlReg,
	colorCtrlReg, oldColorCtrlReg,
	refresh byte

	mode      video.Mode
	page      byte
	pageCurs  [maxPages][2]uint16
	cursorPos uint16
	cursor    consoleCursor

	mouse  platform.TcellMouse
	screen tcell.Screen
	p      processor.Processor
}

func (m *Device) Install(p processor.Processor) error {
	m.p = p
	m.cursor.visible = true
	m.doneChan = make(chan struct{})

	// Scramble memory.
	rand.Read(m.mem[:])

	if err := p.InstallMemoryDevice(m, memoryBase, memoryBase+memorySize-1); err != nil {
		return err
	}
	if err := p.InstallIODevice(m, 0x3D0, 0x3DF); err != nil {
		return err
	}
	if err := p.InstallInterruptHandler(0x10, m); err != nil {
		return err
	}
	return m.startRenderLoop()
}

func (m *Device) Name() string {
	return "CGA textmode compatible device"
}

func (m *Device) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.colorCtrlReg = 0x20
	m.modeCtrlReg = 1
	m.setMode(video.StandardModes[0x03], true)
}

func (m *Device) Step(int) error {
	return nil
}

func (m *Device) Close() error {
	if m.screen == nil {
		return nil
	}
	m.screen.PostEventWait(tcell.NewEventInterrupt(quitEvent{}))
	<-m.quitChan
	return nil
}

// Done is closed when the user asks to leave.
func (m *Device) Done() <-chan struct{} {
	return m.doneChan
}

func (m *Device) requestQuit() {
	m.doneOnce.Do(func() { close(m.doneChan) })
}

func (m *Device) createStyleFromAttrib(attr byte) tcell.Style {
	blinkEnabled := m.modeCtrlReg&0x20 != 0
	return tcell.StyleDefault.Blink(blinkEnabled && attr&0x80 != 0).Background(cgaPalette[attr&0x70>>4]).Foreground(cgaPalette[attr&0xF])
}

func (m *Device) startRenderLoop() error {
	s := m.Screen
	if s == nil {
		tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
		var err error
		if s, err = tcell.NewScreen(); err != nil {
			return err
		}
	}
	if err := s.Init(); err != nil {
		return err
	}

	s.ShowCursor(0, 0)
	if m.Mouse != nil {
		s.EnableMouse()
	} else {
		s.DisableMouse()
	}
	s.Clear()

	m.screen = s
	m.dirtyMemory = true
	m.quitChan = make(chan struct{})
	m.mouse = platform.TcellMouse{Handler: m.Mouse, CellWidth: 8, CellHeight: 8}
	if m.Mouse != nil {
		m.mouse.Resize(s.Size())
	}

	redrawTicker := time.NewTicker(time.Second / 30)
	go func() {
		for {
			ev := s.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyEscape, tcell.KeyF12, tcell.KeyCtrlC:
					m.requestQuit()
				}
			case *tcell.EventMouse:
				if m.Mouse != nil {
					m.mouse.HandleEvent(ev)
				}
			case *tcell.EventResize:
				s.Sync()
				if m.Mouse != nil {
					m.mouse.Resize(ev.Size())
				}
				m.lock.Lock()
				m.dirtyMemory = true
				m.lock.Unlock()
			case *tcell.EventInterrupt:
				switch ev.Data().(type) {
				case quitEvent:
					s.Fini()
					redrawTicker.Stop()
					close(m.quitChan)
					return
				case redrawEvent:
					m.redraw()
				}
			case nil:
				return
			}
		}
	}()

	go func() {
		for range redrawTicker.C {
			m.lock.RLock()
			dirty := m.dirtyMemory
			m.lock.RUnlock()
			if dirty {
				s.PostEvent(tcell.NewEventInterrupt(redrawEvent{}))
			}
		}
	}()

	return nil
}

func (m *Device) redraw() {
	m.lock.Lock()
	defer m.lock.Unlock()

	s := m.screen
	if bg := m.colorCtrlReg & 0xF; bg != m.oldColorCtrlReg {
		m.oldColorCtrlReg = bg
		s.Fill(' ', tcell.StyleDefault.Background(cgaPalette[bg]))
	}

	if m.mode.Text {
		m.drawText()
	} else {
		m.drawGraphics()
	}

	if m.cursor.update {
		m.cursor.update = false
		if m.cursor.visible && m.mode.Text {
			s.ShowCursor(int(m.cursor.x), int(m.cursor.y))
		} else {
			s.HideCursor()
		}
	}

	m.dirtyMemory = false
	s.Show()
}

func (m *Device) drawText() {
	cols, rows := int(m.mode.Columns), int(m.mode.Rows)
	base := int(m.pageOffset(m.page))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			offset := (base + y*cols*2 + x*2) & (memorySize - 2)
			m.screen.SetCell(x, y, m.createStyleFromAttrib(m.mem[offset+1]), toUnicode(m.mem[offset]))
		}
	}
}

// drawGraphics shows every 8x8 pixel block as one cell.
func (m *Device) drawGraphics() {
	style := tcell.StyleDefault.Foreground(cgaPalette[15])
	for cy := 0; cy < int(m.mode.Height)/8; cy++ {
		for cx := 0; cx < int(m.mode.Width)/8; cx++ {
			var lit bool
			for y := cy * 8; y < cy*8+8 && !lit; y++ {
				for x := cx * 8; x < cx*8+8; x++ {
					if m.pixel(uint16(x), uint16(y)) != 0 {
						lit = true
						break
					}
				}
			}
			ch := ' '
			if lit {
				ch = '█'
			}
			m.screen.SetCell(cx, cy, style, ch)
		}
	}
}

func (m *Device) In(port uint16) byte {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch port {
	case 0x3D1, 0x3D3, 0x3D5, 0x3D7:
		return m.crtReg[m.crtAddr]
	case 0x3DA:
		m.refresh ^= 0x9
		return m.refresh
	case 0x3D9:
		return m.colorCtrlReg
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch port {
	case 0x3D0, 0x3D2, 0x3D4, 0x3D6:
		m.crtAddr = data
	case 0x3D1, 0x3D3, 0x3D5, 0x3D7:
		m.writeCRT(m.crtAddr, data)
	case 0x3D8:
		m.modeCtrlReg = data
	case 0x3D9:
		m.colorCtrlReg = data
	}
}

func (m *Device) writeCRT(reg, data byte) {
	m.crtReg[reg] = data
	switch reg {
	case 0xA:
		m.cursor.update = true
		m.cursor.visible = data&0x20 == 0
	case 0xE:
		m.cursor.update = true
		m.cursorPos = (m.cursorPos & 0x00FF) | (uint16(data) << 8)
	case 0xF:
		m.cursor.update = true
		m.cursorPos = (m.cursorPos & 0xFF00) | uint16(data)
	}

	cols := m.mode.Columns
	if cols == 0 {
		cols = 80
	}
	pos := m.cursorPos - uint16(m.pageOffset(m.page)/2)
	m.cursor.x = pos % cols
	m.cursor.y = pos / cols
	m.dirtyMemory = true
}

func (m *Device) ReadByte(addr memory.Pointer) byte {
	m.lock.RLock()
	v := m.mem[(addr-memoryBase)&(memorySize-1)]
	m.lock.RUnlock()
	return v
}

func (m *Device) WriteByte(addr memory.Pointer, data byte) {
	m.lock.Lock()
	m.dirtyMemory = true
	m.mem[(addr-memoryBase)&(memorySize-1)] = data
	m.lock.Unlock()
}
