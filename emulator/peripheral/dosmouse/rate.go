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

// Used when neither the guest nor the user asked for a rate. 200 Hz is
// the PS/2 maximum.
const defaultRateHz = 200

// fixedRate remembers the last rate as the interface rate.
type fixedRate struct {
	hz uint16
}

func (r *fixedRate) NotifyInterfaceRate(hz uint16) { r.hz = hz }
func (r *fixedRate) Rate() uint16                  { return r.hz }

func (m *Device) notifyInterfaceRate() {
	switch {
	case m.rateIsSet:
		m.Rate.NotifyInterfaceRate(m.rateHz)
	case m.minRateHz != 0:
		m.Rate.NotifyInterfaceRate(m.minRateHz)
	default:
		m.Rate.NotifyInterfaceRate(defaultRateHz)
	}
}

// NotifyMinRate sets the user minimum sampling rate. A rate requested
// by the guest takes precedence.
func (m *Device) NotifyMinRate(hz uint16) {
	m.minRateHz = hz
	if !m.installed || m.rateIsSet {
		return
	}
	m.notifyInterfaceRate()
}

func (m *Device) setInterruptRate(id uint16) {
	var hz uint16
	switch id {
	case 0:
		// TODO: rate 0 should suppress events instead of being ignored.
		hz = 0
	case 1:
		hz = 30
	case 2:
		hz = 50
	case 3:
		hz = 100
	default:
		hz = 200
	}

	if hz != 0 {
		m.rateIsSet = true
		m.rateHz = hz
		m.notifyInterfaceRate()
	}
}

func (m *Device) interruptRate() byte {
	hz := m.Rate.Rate()
	if m.rateIsSet {
		hz = m.rateHz
	}

	switch {
	case hz == 0:
		return 0
	case hz < (30+50)/2:
		return 1
	case hz < (50+100)/2:
		return 2
	case hz < (100+200)/2:
		return 3
	}
	return 4
}
