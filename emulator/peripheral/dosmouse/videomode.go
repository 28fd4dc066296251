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

import "github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"

const (
	defaultTextColumns = 80
	defaultTextRows    = 25
)

func textDimensions(mode video.Mode) (columns, rows uint16) {
	columns, rows = mode.Columns, mode.Rows
	if rows < 1 || rows > 250 {
		rows = defaultTextRows
	}
	if columns < 1 || columns > 250 {
		columns = defaultTextColumns
	}
	return
}

// BeforeNewVideoMode removes the cursor from the screen ahead of a BIOS
// mode switch.
func (m *Device) BeforeNewVideoMode() {
	if !m.installed {
		return
	}
	m.restoreBackground()

	s := m.state
	s.SetHidden(1)
	s.SetOldHidden(1)
	s.SetBackgroundEnabled(false)
}

// AfterNewVideoMode applies the defaults of the new mode. Programs that
// set the range before switching to an SVGA graphics mode keep their
// range unless the driver itself is resetting.
func (m *Device) AfterNewVideoMode(changing bool) {
	if !m.installed {
		return
	}
	s := m.state
	mode := m.Video.Mode()
	svga := mode.IsSVGA()
	svgaText := svga && mode.Text

	m.clearPendingEvents()

	s.SetBiosScreenMode(mode.Number)
	s.SetGranularity(X, 0xFFFF)
	s.SetGranularity(Y, 0xFFFF)
	s.SetHot(X, 0)
	s.SetHot(Y, 0)
	s.SetUserScreenMask(false)
	s.SetUserCursorMask(false)
	s.SetTextMaskAnd(defaultTextMaskAnd)
	s.SetTextMaskXor(defaultTextMaskXor)
	s.SetPage(0)
	s.SetUpdateRegion(Y, 1, -1)
	s.SetCursorType(CursorSoftware)
	s.SetEnabled(true)
	s.SetInhibitDraw(false)

	if changing && svga && !svgaText {
		return
	}

	setMaxPosText := func() {
		columns, rows := textDimensions(mode)
		s.SetMaxPos(X, int16(8*columns-1))
		s.SetMaxPos(Y, int16(8*rows-1))
	}

	s.SetMinPos(X, 0)
	s.SetMinPos(Y, 0)

	switch mode.Number {
	case 0x00, 0x01:
		s.SetGranularity(X, 0xFFF0)
		s.SetGranularity(Y, 0xFFF8)
		setMaxPosText()
		// 40 column modes still report 640 virtual pixels.
		s.SetMaxPos(X, s.MaxPos(X)*2+1)
	case 0x02, 0x03, 0x07:
		s.SetGranularity(X, 0xFFF8)
		s.SetGranularity(Y, 0xFFF8)
		setMaxPosText()
	case 0x0D, 0x13:
		s.SetGranularity(X, 0xFFFE)
		s.SetMaxPos(X, 639)
		s.SetMaxPos(Y, 199)
	case 0x04, 0x05, 0x06, 0x08, 0x09, 0x0A, 0x0E:
		// Reporting the true horizontal resolution breaks some games.
		s.SetMaxPos(X, 639)
		s.SetMaxPos(Y, 199)
	case 0x0F, 0x10:
		s.SetMaxPos(X, 639)
		s.SetMaxPos(Y, 349)
	case 0x11, 0x12:
		s.SetMaxPos(X, 639)
		s.SetMaxPos(Y, 479)
	default:
		switch {
		case !svga:
			m.logger.Warn("Unknown video mode", "mode", mode)
			s.SetInhibitDraw(true)
			s.SetMaxPos(X, 639)
			s.SetMaxPos(Y, 479)
		case svgaText:
			s.SetGranularity(X, 0xFFF8)
			s.SetGranularity(Y, 0xFFF8)
			setMaxPosText()
		default:
			s.SetMaxPos(X, int16(mode.Width)-1)
			s.SetMaxPos(Y, int16(mode.Height)-1)
		}
	}
}

// nullVideo stands in when no adapter is attached. It reports an 80x25
// color text mode and discards output.
type nullVideo struct{}

func (nullVideo) Mode() video.Mode                               { return video.StandardModes[0x03] }
func (nullVideo) CurrentPage() byte                              { return 0 }
func (nullVideo) ReadCharAttr(uint16, uint16, byte) uint16       { return 0x0720 }
func (nullVideo) WriteCharAttr(uint16, uint16, byte, byte, byte) {}
func (nullVideo) SetCursorShape(byte, byte)                      {}
func (nullVideo) SetHardwareCursor(uint16, uint16, byte)         {}
func (nullVideo) GetPixel(uint16, uint16, byte) byte             { return 0 }
func (nullVideo) PutPixel(uint16, uint16, byte, byte)            {}
