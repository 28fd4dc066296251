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
	"fmt"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
)

type int33Function struct {
	name string
	fn   func(m *Device, r *processor.Registers)
}

// Register level implementations of the INT 33h functions, keyed by AX.
var int33Functions = map[uint16]int33Function{
	0x00: {"reset driver and read status", (*Device).fnReset},
	0x01: {"show mouse cursor", (*Device).fnShowCursor},
	0x02: {"hide mouse cursor", (*Device).fnHideCursor},
	0x03: {"get position and button status", (*Device).fnGetPosition},
	0x04: {"position mouse cursor", (*Device).fnSetPosition},
	0x05: {"get button press data", (*Device).fnButtonPressData},
	0x06: {"get button release data", (*Device).fnButtonReleaseData},
	0x07: {"define horizontal cursor range", (*Device).fnHorizontalRange},
	0x08: {"define vertical cursor range", (*Device).fnVerticalRange},
	0x09: {"define graphics cursor", (*Device).fnGraphicsCursor},
	0x0A: {"define text cursor", (*Device).fnTextCursor},
	0x0B: {"read motion counters", (*Device).fnMotionCounters},
	0x0C: {"define user callback", (*Device).fnSetCallback},
	0x0D: {"light pen emulation on", notImplemented("Light pen emulation")},
	0x0E: {"light pen emulation off", ignore},
	0x0F: {"define mickey/pixel rate", (*Device).fnMickeyPixelRate},
	0x10: {"define update region", (*Device).fnUpdateRegion},
	0x11: {"get wheel capabilities", (*Device).fnWheelCapabilities},
	0x12: {"set large graphics cursor block", notImplemented("Large graphics cursor block")},
	0x13: {"set double-speed threshold", (*Device).fnDoubleSpeedThreshold},
	0x14: {"exchange user callback", (*Device).fnExchangeCallback},
	0x15: {"get state size", (*Device).fnStateSize},
	0x16: {"save driver state", (*Device).fnSaveState},
	0x17: {"load driver state", (*Device).fnLoadState},
	0x18: {"set alternate user handler", notImplemented("Alternate mouse user handler")},
	0x19: {"get alternate user handler", notImplemented("Alternate mouse user handler")},
	0x1A: {"set sensitivity", (*Device).fnSetSensitivity},
	0x1B: {"get sensitivity", (*Device).fnGetSensitivity},
	0x1C: {"set interrupt rate", (*Device).fnSetInterruptRate},
	0x1D: {"set display page", (*Device).fnSetPage},
	0x1E: {"get display page", (*Device).fnGetPage},
	0x1F: {"disable driver", (*Device).fnDisable},
	0x20: {"enable driver", (*Device).fnEnable},
	0x21: {"software reset", (*Device).fnSoftwareReset},
	0x22: {"set language", (*Device).fnSetLanguage},
	0x23: {"get language", (*Device).fnGetLanguage},
	0x24: {"get version and mouse type", (*Device).fnVersion},
	0x25: {"get general driver information", (*Device).fnDriverInformation},
	0x26: {"get maximum virtual coordinates", (*Device).fnMaxCoordinates},
	0x27: {"get text masks and motion counters", (*Device).fnTextMasks},
	0x28: {"set video mode", notImplemented("Set video mode")},
	0x29: {"enumerate video modes", notImplemented("Enumerate video modes")},
	0x2A: {"get cursor hot spot", (*Device).fnHotSpot},
	0x2B: {"load acceleration profiles", notImplemented("Custom acceleration profiles")},
	0x2C: {"get acceleration profiles", notImplemented("Custom acceleration profiles")},
	0x2D: {"select acceleration profile", notImplemented("Custom acceleration profiles")},
	0x2E: {"set acceleration profile names", notImplemented("Custom acceleration profiles")},
	0x2F: {"mouse hardware reset", notImplemented("Hardware reset")},
	0x30: {"get/set BallPoint information", notImplemented("Get/set BallPoint information")},
	0x31: {"get virtual coordinate range", (*Device).fnCoordinateRange},
	0x32: {"get active advanced functions", (*Device).fnAdvancedFunctions},
	0x33: {"get/switch acceleration profile", notImplemented("Custom acceleration profiles")},
	0x34: {"get initialization file", (*Device).fnIniFile},
	0x35: {"LCD large pointer support", notImplemented("LCD screen large pointer support")},
	0x4D: {"get copyright string", (*Device).fnCopyright},
	0x6D: {"get version string", (*Device).fnVersionString},

	// Vendor detection calls. Software bound to other drivers keeps working when
	// these are ignored.
	0x70:   {"Mouse Systems installation check", ignore},
	0x72:   {"Mouse Systems/Genius extension", ignore},
	0x73:   {"Mouse Systems button assignments", ignore},
	0x53C1: {"Logitech CyberMan extension", ignore},
}

func ignore(*Device, *processor.Registers) {}

func notImplemented(what string) func(*Device, *processor.Registers) {
	return func(m *Device, r *processor.Registers) {
		m.logger.Info(what+" not implemented", "function", fmt.Sprintf("0x%04X", r.AX()))
	}
}

func (m *Device) handleInt33() error {
	m.dispatch(m.regs)
	return nil
}

func (m *Device) dispatch(r *processor.Registers) {
	f, ok := int33Functions[r.AX()]
	if !ok {
		m.logger.Info("Driver function not implemented", "function", fmt.Sprintf("0x%04X", r.AX()))
		return
	}
	m.logger.Debug("INT 33h", "function", fmt.Sprintf("0x%04X", r.AX()), "name", f.name)
	f.fn(m, r)
}

func (m *Device) fnReset(r *processor.Registers) {
	m.resetHardware()
	m.fnSoftwareReset(r)
}

func (m *Device) fnSoftwareReset(r *processor.Registers) {
	r.SetAX(0xFFFF) // installed
	r.SetBX(3)      // buttons
	m.resetDriver()
}

func (m *Device) fnShowCursor(*processor.Registers) {
	s := m.state
	if h := s.Hidden(); h != 0 {
		s.SetHidden(h - 1)
	}
	s.SetUpdateRegion(Y, 1, -1)
	m.drawCursor()
}

func (m *Device) fnHideCursor(*processor.Registers) {
	m.restoreBackground()
	m.state.SetHidden(m.state.Hidden() + 1)
}

func (m *Device) fnGetPosition(r *processor.Registers) {
	r.SetBL(byte(m.buttons))
	r.SetBH(m.readWheel8())
	r.SetCX(m.posX())
	r.SetDX(m.posY())
}

// Only axes that differ from the rounded position are written, keeping
// the fractional part otherwise.
func (m *Device) fnSetPosition(r *processor.Registers) {
	s := m.state
	if int32(int16(r.CX())) != int32(m.posX()) {
		s.SetAbsolute(X, float32(r.CX()))
	}
	if int32(int16(r.DX())) != int32(m.posY()) {
		s.SetAbsolute(Y, float32(r.DX()))
	}
	m.limitCoordinates()
	m.drawCursor()
}

const wheelIndex = 0xFFFF

func (m *Device) buttonData(r *processor.Registers, released bool) {
	s := m.state
	idx := r.BX()

	switch {
	case idx == wheelIndex && s.WheelAPI():
		r.SetBX(m.readWheel16())
		r.SetCX(s.LastWheelMoved(X))
		r.SetDX(s.LastWheelMoved(Y))
	case idx < NumButtons:
		i := int(idx)
		r.SetAX(uint16(m.buttons))
		if released {
			r.Set16(r.AX(), s.TimesReleased(i), s.LastReleased(X, i), s.LastReleased(Y, i))
			s.SetTimesReleased(i, 0)
		} else {
			r.Set16(r.AX(), s.TimesPressed(i), s.LastPressed(X, i), s.LastPressed(Y, i))
			s.SetTimesPressed(i, 0)
		}
	default:
		r.Set16(uint16(m.buttons), 0, 0, 0)
	}
}

func (m *Device) fnButtonPressData(r *processor.Registers) {
	m.buttonData(r, false)
}

func (m *Device) fnButtonReleaseData(r *processor.Registers) {
	m.buttonData(r, true)
}

func (m *Device) setRange(a Axis, r *processor.Registers) {
	lo, hi := int16(r.CX()), int16(r.DX())
	if lo > hi {
		lo, hi = hi, lo
	}

	s := m.state
	s.SetMinPos(a, lo)
	s.SetMaxPos(a, hi)
	s.SetAbsolute(a, clampFloat(s.Absolute(a), float32(lo), float32(hi)))
}

func (m *Device) fnHorizontalRange(r *processor.Registers) {
	m.setRange(X, r)
}

func (m *Device) fnVerticalRange(r *processor.Registers) {
	m.setRange(Y, r)
}

func (m *Device) readMask(ptr memory.Pointer) (mask [CursorSize]uint16) {
	for i := range mask {
		mask[i] = memory.ReadWord(m.p, ptr+memory.Pointer(2*i))
	}
	return
}

func clampHotSpot(v uint16) int16 {
	h := int16(v)
	if h < -CursorSize {
		return -CursorSize
	}
	if h > CursorSize {
		return CursorSize
	}
	return h
}

func (m *Device) fnGraphicsCursor(r *processor.Registers) {
	s := m.state
	src := memory.NewPointer(r.ES(), r.DX())
	s.SetUserScreenMaskData(m.readMask(src))
	s.SetUserCursorMaskData(m.readMask(src + 2*CursorSize))
	s.SetUserScreenMask(true)
	s.SetUserCursorMask(true)
	s.SetHot(X, clampHotSpot(r.BX()))
	s.SetHot(Y, clampHotSpot(r.CX()))
	s.SetCursorType(CursorText)
	m.drawCursor()
}

func (m *Device) fnTextCursor(r *processor.Registers) {
	s := m.state
	if r.BX() != 0 {
		s.SetCursorType(CursorHardware)
	} else {
		s.SetCursorType(CursorSoftware)
	}
	s.SetTextMaskAnd(r.CX())
	s.SetTextMaskXor(r.DX())
	if r.BX() != 0 {
		m.Video.SetCursorShape(r.CL(), r.DL())
	}
	m.drawCursor()
}

func (m *Device) fnMotionCounters(r *processor.Registers) {
	s := m.state
	r.SetCX(round16(s.MickeyCounter(X)))
	r.SetDX(round16(s.MickeyCounter(Y)))
	s.SetMickeyCounter(X, 0)
	s.SetMickeyCounter(Y, 0)
}

func (m *Device) fnTextMasks(r *processor.Registers) {
	r.SetAX(m.state.TextMaskAnd())
	r.SetBX(m.state.TextMaskXor())
	m.fnMotionCounters(r)
}

func (m *Device) fnSetCallback(r *processor.Registers) {
	m.state.SetUserCallbackMask(r.CX())
	m.state.SetUserCallback(memory.NewAddress(r.ES(), r.DX()))
}

func (m *Device) fnMickeyPixelRate(r *processor.Registers) {
	m.setMickeyPixelRate(int16(r.CX()), int16(r.DX()))
}

func (m *Device) fnUpdateRegion(r *processor.Registers) {
	s := m.state
	s.SetUpdateRegion(X, 0, int16(r.CX()))
	s.SetUpdateRegion(Y, 0, int16(r.DX()))
	s.SetUpdateRegion(X, 1, int16(r.SI()))
	s.SetUpdateRegion(Y, 1, int16(r.DI()))
	m.drawCursor()
}

func (m *Device) fnWheelCapabilities(r *processor.Registers) {
	r.SetAX(0x574D) // 'WM'
	r.SetBX(0)      // capability flags
	r.SetCX(1)      // wheel present
	m.state.SetWheelCounter(0)
	m.state.SetWheelAPI(true)
}

func (m *Device) fnDoubleSpeedThreshold(r *processor.Registers) {
	m.setDoubleSpeedThreshold(r.BX())
}

func (m *Device) fnExchangeCallback(r *processor.Registers) {
	s := m.state
	oldMask := s.UserCallbackMask()
	old := s.UserCallback()

	m.fnSetCallback(r)

	r.SetCX(oldMask)
	r.SetDX(old.Offset())
	r.SetES(old.Segment())
}

func (m *Device) fnStateSize(r *processor.Registers) {
	r.SetBX(StateSize)
}

func (m *Device) fnSaveState(r *processor.Registers) {
	memory.WriteBlock(m.p, memory.NewPointer(r.ES(), r.DX()), m.state.Bytes())
}

func (m *Device) fnLoadState(r *processor.Registers) {
	data := make([]byte, StateSize)
	memory.ReadBlock(m.p, memory.NewPointer(r.ES(), r.DX()), data)
	m.state.Load(data)
	m.stateRestored()
}

func (m *Device) fnSetSensitivity(r *processor.Registers) {
	m.setSensitivity(r.BX(), r.CX(), r.DX())
}

func (m *Device) fnGetSensitivity(r *processor.Registers) {
	s := m.state
	r.SetBX(uint16(s.Sensitivity(X)))
	r.SetCX(uint16(s.Sensitivity(Y)))
	r.SetDX(uint16(s.Unknown01()))
}

func (m *Device) fnSetInterruptRate(r *processor.Registers) {
	m.setInterruptRate(r.BX())
}

func (m *Device) fnSetPage(r *processor.Registers) {
	m.state.SetPage(r.BL())
}

func (m *Device) fnGetPage(r *processor.Registers) {
	r.SetBX(uint16(m.state.Page()))
}

// AX is left untouched; callers check it for 0x001F.
func (m *Device) fnDisable(r *processor.Registers) {
	s := m.state
	r.SetBX(0)
	r.SetES(0)
	s.SetEnabled(false)
	s.SetOldHidden(s.Hidden())
	s.SetHidden(1)
}

func (m *Device) fnEnable(*processor.Registers) {
	s := m.state
	s.SetEnabled(true)
	s.SetHidden(s.OldHidden())
}

func (m *Device) fnSetLanguage(r *processor.Registers) {
	m.state.SetLanguage(r.BX())
}

func (m *Device) fnGetLanguage(r *processor.Registers) {
	r.SetBX(m.state.Language())
}

const mouseTypePS2 = 0x04

func (m *Device) fnVersion(r *processor.Registers) {
	r.SetBH(DriverVersionMajor)
	r.SetBL(DriverVersionMinor)
	r.SetCH(mouseTypePS2)
	r.SetCL(0) // IRQ, zero for PS/2
}

func (m *Device) fnDriverInformation(r *processor.Registers) {
	const integratedDriver = 1 << 6

	r.SetAL(1) // active display drivers
	r.SetAH(integratedDriver | byte(m.state.CursorType())<<4 | m.interruptRate())
	r.SetBX(0)
	r.SetCX(0)
	r.SetDX(0)
}

func (m *Device) fnMaxCoordinates(r *processor.Registers) {
	s := m.state
	if s.Enabled() {
		r.SetBX(0)
	} else {
		r.SetBX(0xFFFF)
	}
	r.SetCX(uint16(s.MaxPos(X)))
	r.SetDX(uint16(s.MaxPos(Y)))
}

func (m *Device) fnHotSpot(r *processor.Registers) {
	s := m.state
	r.SetAL(byte(-int16(s.Hidden())))
	r.SetBX(uint16(s.Hot(X)))
	r.SetCX(uint16(s.Hot(Y)))
	r.SetDX(mouseTypePS2)
}

func (m *Device) fnCoordinateRange(r *processor.Registers) {
	s := m.state
	r.Set16(uint16(s.MinPos(X)), uint16(s.MinPos(Y)), uint16(s.MaxPos(X)), uint16(s.MaxPos(Y)))
}

// Supported: 0x25, 0x26, 0x27, 0x2A, 0x31 and 0x32. Function 0x34 is
// left out since there is no initialization file to read.
const advancedFunctions = 0xE40C

func (m *Device) fnAdvancedFunctions(r *processor.Registers) {
	r.Set16(advancedFunctions, 0, 0, 0)
}

func (m *Device) fnIniFile(r *processor.Registers) {
	r.SetES(m.info.segment)
	r.SetDX(m.info.offIniFile)
}

func (m *Device) fnCopyright(r *processor.Registers) {
	r.SetES(m.info.segment)
	r.SetDI(m.info.offCopyright)
}

func (m *Device) fnVersionString(r *processor.Registers) {
	r.SetES(m.info.segment)
	r.SetDI(m.info.offVersion)
}
