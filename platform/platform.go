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

// Package platform translates host input into the events the mouse
// driver consumes.
package platform

import "errors"

// ErrNoSDL is returned by RunSDL when the program was built without the
// sdl tag.
var ErrNoSDL = errors.New("built without SDL support")

// MouseButtons is a bit set of pressed host buttons.
type MouseButtons byte

const (
	MouseLeft MouseButtons = 1 << iota
	MouseRight
	MouseMiddle
)

func (b MouseButtons) Has(btn MouseButtons) bool {
	return b&btn != 0
}

// MouseHandler receives host mouse input. Implementations must be safe
// to call from a goroutine other than the emulation loop.
type MouseHandler interface {
	// NotifyMoved reports relative motion in host pixels and the
	// absolute pointer position inside the host window.
	NotifyMoved(xRel, yRel float32, xAbs, yAbs uint32)
	NotifyButton(buttons MouseButtons)
	NotifyWheel(delta int16)
}

// ResolutionHandler is implemented by handlers that need the host
// window size for absolute positioning.
type ResolutionHandler interface {
	SetResolution(width, height uint32)
}
