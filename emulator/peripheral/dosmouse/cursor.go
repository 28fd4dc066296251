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

const (
	defaultTextMaskAnd = 0x77FF
	defaultTextMaskXor = 0x7700
)

var defaultScreenMask = [CursorSize]uint16{
	0x3FFF, 0x1FFF, 0x0FFF, 0x07FF, 0x03FF, 0x01FF, 0x00FF, 0x007F,
	0x003F, 0x001F, 0x01FF, 0x00FF, 0x30FF, 0xF87F, 0xF87F, 0xFCFF,
}

var defaultCursorMask = [CursorSize]uint16{
	0x0000, 0x4000, 0x6000, 0x7000, 0x7800, 0x7C00, 0x7E00, 0x7F00,
	0x7F80, 0x7C00, 0x6C00, 0x4600, 0x0600, 0x0300, 0x0300, 0x0000,
}

func (m *Device) restoreCursorBackgroundText() {
	s := m.state
	if s.Hidden() != 0 || s.InhibitDraw() || !s.BackgroundEnabled() {
		return
	}

	data := uint16(s.BackgroundData(1))<<8 | uint16(s.BackgroundData(0))
	m.Video.WriteCharAttr(s.Background(X), s.Background(Y), m.Video.CurrentPage(), byte(data), byte(data>>8))
	s.SetBackgroundEnabled(false)
}

func (m *Device) drawCursorText() {
	m.restoreCursorBackgroundText()

	s := m.state
	x, y := int16(m.posX()), int16(m.posY())
	if x >= s.UpdateRegion(X, 0) && x <= s.UpdateRegion(X, 1) &&
		y >= s.UpdateRegion(Y, 0) && y <= s.UpdateRegion(Y, 1) {
		return
	}

	col, row := m.posX()/8, m.posY()/8
	if s.BiosScreenMode() < 2 {
		col /= 2
	}
	s.SetBackground(X, col)
	s.SetBackground(Y, row)

	page := m.Video.CurrentPage()
	switch s.CursorType() {
	case CursorSoftware, CursorText:
		v := m.Video.ReadCharAttr(col, row, page)
		s.SetBackgroundData(0, byte(v))
		s.SetBackgroundData(1, byte(v>>8))
		s.SetBackgroundEnabled(true)

		v = (v & s.TextMaskAnd()) ^ s.TextMaskXor()
		m.Video.WriteCharAttr(col, row, page, byte(v), byte(v>>8))
	default:
		m.Video.SetHardwareCursor(col, row, page)
	}
}

type cursorClip struct {
	x1, x2, y1, y2     int16
	addX1, addX2, addY uint16
}

func (m *Device) clipCursorArea(x1, y1 int16) cursorClip {
	s := m.state
	c := cursorClip{x1: x1, y1: y1, x2: x1 + CursorSize - 1, y2: y1 + CursorSize - 1}

	if c.y1 < 0 {
		c.addY = uint16(-c.y1)
		c.y1 = 0
	}
	if clipY := s.Clip(Y); c.y2 > clipY {
		c.y2 = clipY
	}
	if c.x1 < 0 {
		c.addX1 = uint16(-c.x1)
		c.x1 = 0
	}
	if clipX := s.Clip(X); c.x2 > clipX {
		c.addX2 = uint16(c.x2 - clipX)
		c.x2 = clipX
	}
	return c
}

func (m *Device) restoreCursorBackground() {
	s := m.state
	if s.Hidden() != 0 || s.InhibitDraw() || !s.BackgroundEnabled() {
		return
	}

	page := s.Page()
	c := m.clipCursorArea(int16(s.Background(X)), int16(s.Background(Y)))

	pos := int(c.addY) * CursorSize
	for y := c.y1; y <= c.y2; y++ {
		pos += int(c.addX1)
		for x := c.x1; x <= c.x2; x++ {
			m.Video.PutPixel(uint16(x), uint16(y), page, s.BackgroundData(pos))
			pos++
		}
		pos += int(c.addX2)
	}
	s.SetBackgroundEnabled(false)
}

func (m *Device) restoreBackground() {
	if m.Video.Mode().Text {
		m.restoreCursorBackgroundText()
	} else {
		m.restoreCursorBackground()
	}
}

func (m *Device) drawCursor() {
	s := m.state
	if s.Hidden() != 0 || s.InhibitDraw() {
		return
	}

	mode := m.Video.Mode()
	if mode.Text {
		m.drawCursorText()
		return
	}

	s.SetClip(X, int16(mode.Width)-1)
	s.SetClip(Y, int16(mode.Height)-1)

	xratio := int16(640)
	if mode.Width > 0 {
		xratio /= int16(mode.Width)
	}
	if xratio == 0 {
		xratio = 1
	}

	m.restoreCursorBackground()

	page := s.Page()
	x0 := int16(m.posX())/xratio - s.Hot(X)
	y0 := int16(m.posY()) - s.Hot(Y)
	c := m.clipCursorArea(x0, y0)

	pos := int(c.addY) * CursorSize
	for y := c.y1; y <= c.y2; y++ {
		pos += int(c.addX1)
		for x := c.x1; x <= c.x2; x++ {
			s.SetBackgroundData(pos, m.Video.GetPixel(uint16(x), uint16(y), page))
			pos++
		}
		pos += int(c.addX2)
	}

	s.SetBackgroundEnabled(true)
	s.SetBackground(X, uint16(x0))
	s.SetBackground(Y, uint16(y0))

	screenMask, cursorMask := defaultScreenMask, defaultCursorMask
	if s.UserScreenMask() {
		screenMask = s.UserScreenMaskData()
	}
	if s.UserCursorMask() {
		cursorMask = s.UserCursorMaskData()
	}

	const highestBit = 1 << (CursorSize - 1)
	pos = int(c.addY) * CursorSize
	for y := c.y1; y <= c.y2; y++ {
		line := int(c.addY) + int(y-c.y1)
		sc, cu := screenMask[line], cursorMask[line]
		if c.addX1 > 0 {
			sc <<= c.addX1
			cu <<= c.addX1
			pos += int(c.addX1)
		}
		for x := c.x1; x <= c.x2; x++ {
			var pixel byte
			if sc&highestBit != 0 {
				pixel = s.BackgroundData(pos)
			}
			if cu&highestBit != 0 {
				pixel ^= 0x0F
			}
			sc <<= 1
			cu <<= 1
			m.Video.PutPixel(uint16(x), uint16(y), page, pixel)
			pos++
		}
		pos += int(c.addX2)
	}
}
