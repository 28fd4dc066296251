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

package pic

import (
	"errors"
	"sync"
	"time"

	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
)

var ErrNoInterrupts = errors.New("no interrupts")

const (
	masterVector = 0x08
	slaveVector  = 0x70
	cascadeIRQ   = 2
)

type controller struct {
	maskReg, requestReg, serviceReg,
	icwStep, readMode byte
	icw [5]byte
}

func (c *controller) in(port uint16) byte {
	if port&1 == 0 {
		if c.readMode == 0 {
			return c.requestReg
		}
		return c.serviceReg
	}
	return c.maskReg
}

func (c *controller) out(port uint16, data byte) {
	if port&1 == 0 {
		if data&0x10 != 0 {
			c.icwStep = 1
			c.maskReg = 0
			c.icw[c.icwStep] = data
			c.icwStep++
			return
		}
		if (data & 0x98) == 8 {
			c.readMode = data & 2
		}
		if data&0x20 != 0 {
			c.eoi()
		}
		return
	}

	if c.icwStep == 3 && c.icw[1]&2 != 0 {
		c.icwStep = 4
	}
	if c.icwStep < 5 && c.icwStep > 0 {
		c.icw[c.icwStep] = data
		c.icwStep++
		return
	}
	c.maskReg = data
}

// eoi clears the highest priority in-service line.
func (c *controller) eoi() {
	for i := 0; i < 8; i++ {
		if (c.serviceReg>>i)&1 != 0 {
			c.serviceReg ^= 1 << i
			return
		}
	}
}

// Device is a cascaded pair of Intel 8259 controllers. It also owns the
// timed event queue used by peripherals that need delayed interrupts.
type Device struct {
	lock   sync.Mutex
	master controller
	slave  controller

	// Now is the time source of the event queue.
	Now func() time.Time

	nextID processor.EventID
	events []event
}

type event struct {
	id       processor.EventID
	deadline time.Time
	fn       func()
}

func (m *Device) Install(p processor.Processor) error {
	if err := p.InstallIODevice(m, 0x20, 0x21); err != nil {
		return err
	}
	return p.InstallIODevice(m, 0xA0, 0xA1)
}

func (m *Device) Name() string {
	return "Programmable Interrupt Controller (Intel 8259)"
}

func (m *Device) Reset() {
	m.lock.Lock()
	m.master = controller{}
	m.slave = controller{}
	m.master.icw[2] = masterVector
	m.slave.icw[2] = slaveVector
	m.events = nil
	m.lock.Unlock()
}

// Step fires every event whose deadline has passed.
func (m *Device) Step(int) error {
	now := m.now()
	for {
		m.lock.Lock()
		idx := -1
		for i, ev := range m.events {
			if !ev.deadline.After(now) && (idx < 0 || ev.deadline.Before(m.events[idx].deadline)) {
				idx = i
			}
		}
		if idx < 0 {
			m.lock.Unlock()
			return nil
		}
		ev := m.events[idx]
		m.events = append(m.events[:idx], m.events[idx+1:]...)
		m.lock.Unlock()

		ev.fn()
	}
}

func (m *Device) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Device) AddEvent(delay time.Duration, fn func()) processor.EventID {
	deadline := m.now().Add(delay)

	m.lock.Lock()
	defer m.lock.Unlock()

	m.nextID++
	m.events = append(m.events, event{id: m.nextID, deadline: deadline, fn: fn})
	return m.nextID
}

func (m *Device) RemoveEvent(id processor.EventID) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i, ev := range m.events {
		if ev.id == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return
		}
	}
}

// PendingEvents returns the number of queued timer events.
func (m *Device) PendingEvents() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.events)
}

func (m *Device) GetInterrupt() (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i := 0; i < 16; i++ {
		c, line := m.line(i)
		if i == cascadeIRQ {
			continue
		}
		if has := c.requestReg & ^c.maskReg; (has>>line)&1 != 0 {
			c.requestReg ^= 1 << line
			c.serviceReg |= 1 << line
			return int(c.icw[2]&0xF8) + int(line), nil
		}
	}
	return 0, ErrNoInterrupts
}

func (m *Device) line(n int) (*controller, uint) {
	if n >= 8 {
		return &m.slave, uint(n - 8)
	}
	return &m.master, uint(n)
}

func (m *Device) IRQ(n int) {
	m.lock.Lock()
	c, line := m.line(n)
	c.requestReg |= 1 << line
	m.lock.Unlock()
}

func (m *Device) SetMask(n int, masked bool) {
	m.lock.Lock()
	c, line := m.line(n)
	if masked {
		c.maskReg |= 1 << line
	} else {
		c.maskReg &^= 1 << line
	}
	m.lock.Unlock()
}

// EOI acknowledges line n, including the master cascade for slave lines.
func (m *Device) EOI(n int) {
	m.lock.Lock()
	c, line := m.line(n)
	c.serviceReg &^= 1 << line
	if n >= 8 {
		m.master.serviceReg &^= 1 << cascadeIRQ
	}
	m.lock.Unlock()
}

func (m *Device) In(port uint16) byte {
	m.lock.Lock()
	defer m.lock.Unlock()

	if port >= 0xA0 {
		return m.slave.in(port)
	}
	return m.master.in(port)
}

func (m *Device) Out(port uint16, data byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if port >= 0xA0 {
		m.slave.out(port, data)
		return
	}
	m.master.out(port, data)
}
