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
	"time"

	"github.com/andreas-jonsson/vxtmouse/platform"
)

// Motion and wheel input received from the host but not yet applied to
// the driver state.
type pendingMotion struct {
	xRel, yRel float32
	xAbs, yAbs uint32
	wRel       int16
}

func (p *pendingMotion) reset() {
	p.xRel, p.yRel = 0, 0
	p.wRel = 0
}

func (m *Device) hasPendingEvent() bool {
	return m.pendingMoved || m.pendingButton || m.pendingWheel
}

func (m *Device) delayExpired() {
	m.delayRunning = false
	m.delayFinished = true
	m.maybeTriggerEvent()
}

func (m *Device) maybeStartDelayTimer(delay time.Duration) {
	if m.delayRunning {
		return
	}
	m.delayEvent = m.sched.AddEvent(delay, m.delayExpired)
	m.delayRunning = true
	m.delayFinished = false
}

func (m *Device) maybeTriggerEvent() {
	if !m.delayFinished {
		m.maybeStartDelayTimer(m.Delay)
		return
	}
	if !m.hasPendingEvent() {
		return
	}

	m.maybeStartDelayTimer(m.Delay)
	m.pic.IRQ(IRQ)
}

func (m *Device) clearPendingEvents() {
	if m.delayRunning {
		m.sched.RemoveEvent(m.delayEvent)
		m.delayRunning = false
	}

	m.pendingMoved = false
	m.pendingButton = m.pendingButtons != 0
	m.pendingWheel = false
	m.maybeStartDelayTimer(m.Delay)
}

func (m *Device) notifyMoved(xRel, yRel float32, xAbs, yAbs uint32) {
	var needed bool
	if m.useRelative {
		needed = true
	} else {
		needed = m.pending.xAbs != xAbs || m.pending.yAbs != yAbs
	}

	m.pending.xRel = clampRelative(m.pending.xRel + xRel)
	m.pending.yRel = clampRelative(m.pending.yRel + yRel)
	m.pending.xAbs = xAbs
	m.pending.yAbs = yAbs

	// Events are queued even without a registered callback. Some games
	// rewrite the callback settings constantly and would miss input.
	if needed && m.Immediate {
		needed = m.moveCursor() != 0
	}
	if needed {
		m.pendingMoved = true
		m.maybeTriggerEvent()
	}
}

func (m *Device) notifyButton(buttons platform.MouseButtons) {
	m.pendingButton = true
	m.pendingButtons = buttons
	m.maybeTriggerEvent()
}

func (m *Device) notifyWheel(delta int16) {
	if !m.state.WheelAPI() {
		return
	}

	m.pending.wRel = int16(clampInt8(int32(m.pending.wRel) + int32(delta)))
	needed := m.pending.wRel != 0
	if needed && m.Immediate {
		needed = m.moveWheel() != 0
	}
	if needed {
		m.pendingWheel = true
		m.maybeTriggerEvent()
	}
}

func (m *Device) updateMoved() byte {
	if m.Immediate {
		return EventMoved
	}
	return m.moveCursor()
}

func (m *Device) updateButtons(buttons platform.MouseButtons) byte {
	if m.buttons == buttons {
		return 0
	}

	s := m.state
	markPressed := func(idx int) {
		s.SetLastPressed(X, idx, m.posX())
		s.SetLastPressed(Y, idx, m.posY())
		s.SetTimesPressed(idx, s.TimesPressed(idx)+1)
	}
	markReleased := func(idx int) {
		s.SetLastReleased(X, idx, m.posX())
		s.SetLastReleased(Y, idx, m.posY())
		s.SetTimesReleased(idx, s.TimesReleased(idx)+1)
	}

	var mask byte
	for idx, b := range []platform.MouseButtons{platform.MouseLeft, platform.MouseRight, platform.MouseMiddle} {
		pressed := EventPressedLeft << (2 * idx)
		released := EventReleasedLeft << (2 * idx)

		switch {
		case buttons&b != 0 && m.buttons&b == 0:
			markPressed(idx)
			mask |= pressed
		case buttons&b == 0 && m.buttons&b != 0:
			markReleased(idx)
			mask |= released
		}
	}

	m.buttons = buttons
	return mask
}

func (m *Device) moveWheel() byte {
	s := m.state
	s.SetWheelCounter(clampInt8(int32(s.WheelCounter()) + int32(m.pending.wRel)))
	m.pending.wRel = 0

	s.SetLastWheelMoved(X, m.posX())
	s.SetLastWheelMoved(Y, m.posY())

	if s.WheelCounter() != 0 {
		return EventWheel
	}
	return 0
}

func (m *Device) updateWheel() byte {
	if m.Immediate {
		return EventWheel
	}
	return m.moveWheel()
}

// DoInterrupt applies everything pending to the driver state and returns
// the events the guest callback subscribed to. Events outside the
// callback mask are consumed as well.
func (m *Device) DoInterrupt() byte {
	if !m.hasPendingEvent() {
		return 0
	}

	var mask byte
	if m.pendingMoved {
		mask = m.updateMoved()

		// Redraw from the IRQ handler; Windows expects real mode code to
		// update the cursor here.
		if mask != 0 {
			m.drawCursor()
		}
		m.pendingMoved = false
	}

	if m.pendingButton {
		mask |= m.updateButtons(m.pendingButtons)
		m.pendingButton = false
	}

	if m.pendingWheel {
		mask |= m.updateWheel()
		m.pendingWheel = false
	}

	if m.state.UserCallbackMask()&uint16(mask) == 0 {
		return 0
	}
	return mask
}

// FinalizeInterrupt makes sure input that arrived while the guest was
// busy is delivered later.
func (m *Device) FinalizeInterrupt() {
	if m.hasPendingEvent() {
		m.maybeStartDelayTimer(time.Millisecond)
	}
}

// PendingEvent reports whether input waits for the next interrupt.
func (m *Device) PendingEvent() bool {
	return m.hasPendingEvent()
}
