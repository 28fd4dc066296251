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

func (m *Device) readWheel8() byte {
	if !m.state.WheelAPI() {
		return 0
	}
	v := m.state.WheelCounter()
	m.state.SetWheelCounter(0)
	return byte(v)
}

func (m *Device) readWheel16() uint16 {
	if !m.state.WheelAPI() {
		return 0
	}
	v := m.state.WheelCounter()
	m.state.SetWheelCounter(0)
	return uint16(int16(v))
}

// DoCallback loads the callback registers and pushes a frame that
// enters the user callback and returns through the driver trampoline.
func (m *Device) DoCallback(mask byte) {
	m.cbRunning = true

	s := m.state
	r := m.regs
	moved := mask&EventMoved != 0
	wheel := mask&EventWheel != 0

	// AH=1 flags absolute coordinates for seamless aware Windows drivers.
	if !m.useRelative && moved {
		r.SetAH(1)
	} else {
		r.SetAH(0)
	}
	r.SetAL(mask)
	r.SetBL(byte(m.buttons))
	if wheel {
		r.SetBH(m.readWheel8())
	} else {
		r.SetBH(0)
	}
	r.SetCX(m.posX())
	r.SetDX(m.posY())
	r.SetSI(round16(s.MickeyCounter(X)))
	r.SetDI(round16(s.MickeyCounter(Y)))

	ret := s.CallbackReturn()
	cb := s.UserCallback()
	m.p.Push16(ret.Segment())
	m.p.Push16(ret.Offset())
	m.p.Push16(cb.Segment())
	m.p.Push16(cb.Offset())
}

func (m *Device) handleCallbackReturn() error {
	m.cbRunning = false
	return nil
}

func (m *Device) pushRegisters() {
	r := m.regs
	for _, v := range []uint16{r.ES(), r.DS(), r.AX(), r.CX(), r.DX(), r.BX(), r.BP(), r.SI(), r.DI()} {
		m.p.Push16(v)
	}
}

func (m *Device) popRegisters() {
	r := m.regs
	for _, set := range []func(uint16){r.SetDI, r.SetSI, r.SetBP, r.SetBX, r.SetDX, r.SetCX, r.SetAX, r.SetDS, r.SetES} {
		set(m.p.Pop16())
	}
}

// IRQ 12 handler. Guest registers are saved here and restored by the
// return handler, which also acknowledges the interrupt.
func (m *Device) handleInt74() error {
	m.pushRegisters()
	m.p.Push16(m.int74Return.Segment())
	m.p.Push16(m.int74Return.Offset())

	if m.cbRunning {
		return nil
	}
	if mask := m.DoInterrupt(); mask != 0 {
		m.DoCallback(mask)
	}
	return nil
}

func (m *Device) handleInt74Return() error {
	m.popRegisters()
	m.FinalizeInterrupt()
	m.pic.EOI(IRQ)
	return nil
}
