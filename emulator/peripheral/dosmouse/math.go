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

import "math"

const (
	maxRelativeMovement = 2048

	mickeyWrapHigh = 32767.5
	mickeyWrapLow  = -32768.5

	defaultDoubleSpeedThreshold = 64
)

// SensitivityCoeff maps a 0-100 sensitivity value to the factor applied
// to relative motion. Zero freezes the cursor.
func SensitivityCoeff(v uint16) float32 {
	if v == 0 {
		return 0
	}
	tmp := float32(v - 1)
	return (tmp*tmp)/3600 + 1.0/3.0
}

func clampRelative(v float32) float32 {
	return clampFloat(v, -maxRelativeMovement, maxRelativeMovement)
}

func clampFloat(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt8(v int32) int8 {
	if v < math.MinInt8 {
		return math.MinInt8
	}
	if v > math.MaxInt8 {
		return math.MaxInt8
	}
	return int8(v)
}

func round16(v float32) uint16 {
	return uint16(int64(math.Round(float64(v))))
}

// WrapMickey adds delta to a mickey counter, keeping it inside the range
// of a signed 16-bit register with rounding applied.
func WrapMickey(counter, delta float32) float32 {
	counter += delta
	if counter > mickeyWrapHigh || counter < mickeyWrapLow {
		counter -= float32(math.Copysign(65536, float64(counter)))
	}
	return counter
}

func (m *Device) pos(a Axis) uint16 {
	return round16(m.state.Absolute(a)) & m.state.Granularity(a)
}

func (m *Device) posX() uint16 { return m.pos(X) }
func (m *Device) posY() uint16 { return m.pos(Y) }

func (m *Device) setSensitivity(x, y, unknown uint16) {
	clamp := func(v uint16) uint16 {
		if v > 100 {
			return 100
		}
		return v
	}
	x, y, unknown = clamp(x), clamp(y), clamp(unknown)

	s := m.state
	s.SetSensitivity(X, byte(x))
	s.SetSensitivity(Y, byte(y))
	s.SetUnknown01(byte(unknown))
	s.SetSensitivityCoeff(X, SensitivityCoeff(x))
	s.SetSensitivityCoeff(Y, SensitivityCoeff(y))
}

// Ratio is the number of mickeys per 8 pixels. Non-positive values are
// ignored.
func (m *Device) setMickeyPixelRate(ratioX, ratioY int16) {
	if ratioX <= 0 || ratioY <= 0 {
		return
	}

	const pixels = 8
	s := m.state
	s.SetMickeysPerPixel(X, float32(ratioX)/pixels)
	s.SetMickeysPerPixel(Y, float32(ratioY)/pixels)
	s.SetPixelsPerMickey(X, pixels/float32(ratioX))
	s.SetPixelsPerMickey(Y, pixels/float32(ratioY))
}

func (m *Device) setDoubleSpeedThreshold(threshold uint16) {
	if threshold == 0 {
		threshold = defaultDoubleSpeedThreshold
	}
	m.state.SetDoubleSpeedThreshold(threshold)
}

func (m *Device) limitCoordinates() {
	s := m.state
	for _, a := range []Axis{X, Y} {
		v := clampFloat(s.Absolute(a), float32(s.MinPos(a)), float32(s.MaxPos(a)))
		s.SetAbsolute(a, v)
	}
}

func (m *Device) displacement(a Axis, rel float32) float32 {
	coeff := m.state.SensitivityCoeff(a)
	d := rel * m.state.PixelsPerMickey(a)

	// Pre-accelerated host input only gets the coefficient for large
	// jumps or when sensitivity is lowered.
	if !m.rawInput || math.Abs(float64(rel)) > 1 || coeff < 1 {
		d *= coeff
	}
	return d
}

// updateMickeys returns the cursor displacement for the given relative
// motion and advances the mickey counters.
func (m *Device) updateMickeys(xRel, yRel float32) (dx, dy float32) {
	s := m.state
	dx = m.displacement(X, xRel)
	dy = m.displacement(Y, yRel)

	s.SetMickeyCounter(X, WrapMickey(s.MickeyCounter(X), dx*s.MickeysPerPixel(X)))
	s.SetMickeyCounter(Y, WrapMickey(s.MickeyCounter(Y), dy*s.MickeysPerPixel(Y)))
	return
}

func (m *Device) moveCursorCaptured(xRel, yRel float32) {
	dx, dy := m.updateMickeys(xRel, yRel)
	s := m.state
	s.SetAbsolute(X, s.Absolute(X)+dx)
	s.SetAbsolute(Y, s.Absolute(Y)+dy)
}

func (m *Device) moveCursorSeamless(xRel, yRel float32, xAbs, yAbs uint32) {
	m.updateMickeys(xRel, yRel)

	s := m.state
	absX, absY := s.Absolute(X), s.Absolute(Y)
	resX, resY := m.resolution[0], m.resolution[1]
	if resX < 2 || resY < 2 {
		s.SetAbsolute(X, absX+xRel)
		s.SetAbsolute(Y, absY+yRel)
		return
	}

	x := float32(xAbs) / float32(resX-1)
	y := float32(yAbs) / float32(resY-1)
	maxX, maxY := s.MaxPos(X), s.MaxPos(Y)

	mode := m.Video.Mode()
	switch {
	case mode.Text:
		cols, rows := textDimensions(mode)
		absX = x * 8 * float32(cols)
		absY = y * 8 * float32(rows)
	case (maxX < 2048 || maxY < 2048 || maxX != maxY) && maxX > 0 && maxY > 0:
		absX = x * float32(maxX)
		absY = y * float32(maxY)
	default:
		absX += xRel
		absY += yRel
	}
	s.SetAbsolute(X, absX)
	s.SetAbsolute(Y, absY)
}

// moveCursor consumes pending relative motion and reports EventMoved if
// the guest visible position or mickey counters changed.
func (m *Device) moveCursor() byte {
	s := m.state
	oldX, oldY := m.posX(), m.posY()
	oldMickeyX := int16(s.MickeyCounter(X))
	oldMickeyY := int16(s.MickeyCounter(Y))

	if m.useRelative {
		m.moveCursorCaptured(clampRelative(m.pending.xRel), clampRelative(m.pending.yRel))
	} else {
		m.moveCursorSeamless(m.pending.xRel, m.pending.yRel, m.pending.xAbs, m.pending.yAbs)
	}
	m.pending.xRel, m.pending.yRel = 0, 0
	m.limitCoordinates()

	absChanged := oldX != m.posX() || oldY != m.posY()
	relChanged := float32(oldMickeyX) != s.MickeyCounter(X) || float32(oldMickeyY) != s.MickeyCounter(Y)
	if absChanged || relChanged {
		return EventMoved
	}
	return 0
}
