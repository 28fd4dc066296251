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

package platform

import "github.com/gdamore/tcell"

// TcellMouse converts terminal mouse events into driver input. Every
// text cell counts as CellWidth x CellHeight host pixels.
type TcellMouse struct {
	Handler    MouseHandler
	CellWidth  int
	CellHeight int

	valid   bool
	x, y    int
	buttons MouseButtons
}

func (m *TcellMouse) cellSize() (int, int) {
	w, h := m.CellWidth, m.CellHeight
	if w <= 0 {
		w = 8
	}
	if h <= 0 {
		h = 8
	}
	return w, h
}

// HandleEvent forwards ev to the handler. Wheel notches are reported
// one at a time, up as negative.
func (m *TcellMouse) HandleEvent(ev *tcell.EventMouse) {
	if m.Handler == nil {
		return
	}

	cw, ch := m.cellSize()
	x, y := ev.Position()
	px, py := x*cw+cw/2, y*ch+ch/2

	if !m.valid {
		m.valid = true
		m.x, m.y = px, py
	}
	if px != m.x || py != m.y {
		m.Handler.NotifyMoved(float32(px-m.x), float32(py-m.y), uint32(px), uint32(py))
		m.x, m.y = px, py
	}

	mask := ev.Buttons()
	var buttons MouseButtons
	if mask&tcell.Button1 != 0 {
		buttons |= MouseLeft
	}
	if mask&tcell.Button2 != 0 {
		buttons |= MouseRight
	}
	if mask&tcell.Button3 != 0 {
		buttons |= MouseMiddle
	}
	if buttons != m.buttons {
		m.buttons = buttons
		m.Handler.NotifyButton(buttons)
	}

	switch {
	case mask&tcell.WheelUp != 0:
		m.Handler.NotifyWheel(-1)
	case mask&tcell.WheelDown != 0:
		m.Handler.NotifyWheel(1)
	}
}

// Resize reports the terminal size in host pixels.
func (m *TcellMouse) Resize(cols, rows int) {
	if rh, ok := m.Handler.(ResolutionHandler); ok {
		cw, ch := m.cellSize()
		rh.SetResolution(uint32(cols*cw), uint32(rows*ch))
	}
}
