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

// Package video holds what video adapters share with drivers that draw
// on top of them: BIOS mode descriptors and the adapter access methods.
package video

import "fmt"

const lastStandardMode = 0x13

type Mode struct {
	Number        byte
	Text          bool
	Columns, Rows uint16
	Width, Height uint16

	// Adapter reports modes above 0x13 as SVGA modes.
	VGA bool
}

func (m Mode) String() string {
	if m.Text {
		return fmt.Sprintf("0x%02X (text %dx%d)", m.Number, m.Columns, m.Rows)
	}
	return fmt.Sprintf("0x%02X (graphics %dx%d)", m.Number, m.Width, m.Height)
}

func (m Mode) IsSVGA() bool {
	return m.VGA && m.Number > lastStandardMode
}

// StandardModes lists the BIOS modes every CGA/EGA/VGA compatible
// adapter understands.
var StandardModes = map[byte]Mode{
	0x00: {Number: 0x00, Text: true, Columns: 40, Rows: 25, Width: 320, Height: 200},
	0x01: {Number: 0x01, Text: true, Columns: 40, Rows: 25, Width: 320, Height: 200},
	0x02: {Number: 0x02, Text: true, Columns: 80, Rows: 25, Width: 640, Height: 200},
	0x03: {Number: 0x03, Text: true, Columns: 80, Rows: 25, Width: 640, Height: 200},
	0x04: {Number: 0x04, Width: 320, Height: 200},
	0x05: {Number: 0x05, Width: 320, Height: 200},
	0x06: {Number: 0x06, Width: 640, Height: 200},
	0x07: {Number: 0x07, Text: true, Columns: 80, Rows: 25, Width: 720, Height: 350},
	0x0D: {Number: 0x0D, Width: 320, Height: 200},
	0x0E: {Number: 0x0E, Width: 640, Height: 200},
	0x0F: {Number: 0x0F, Width: 640, Height: 350},
	0x10: {Number: 0x10, Width: 640, Height: 350},
	0x11: {Number: 0x11, Width: 640, Height: 480},
	0x12: {Number: 0x12, Width: 640, Height: 480},
	0x13: {Number: 0x13, Width: 320, Height: 200},
}

// Adapter is the part of a video device a mouse driver needs to
// composite its cursor.
type Adapter interface {
	Mode() Mode
	CurrentPage() byte

	ReadCharAttr(col, row uint16, page byte) uint16
	WriteCharAttr(col, row uint16, page, ch, attr byte)
	SetCursorShape(start, end byte)
	SetHardwareCursor(col, row uint16, page byte)

	GetPixel(x, y uint16, page byte) byte
	PutPixel(x, y uint16, page, color byte)
}

// ModeListener is notified around BIOS mode switches.
type ModeListener interface {
	BeforeNewVideoMode()
	AfterNewVideoMode(changing bool)
}
