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

// Package dosmouse implements a Microsoft compatible DOS mouse driver
// (INT 33h) on top of the machine. Driver state lives in guest memory so
// guest code and Windows can inspect and copy it.
package dosmouse

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
	"github.com/andreas-jonsson/vxtmouse/platform"
)

const (
	IRQ       = 12
	irqVector = 0x74

	// Versions are BCD coded.
	DriverVersionMajor = 0x08
	DriverVersionMinor = 0x05

	// Value loaded into the user callback segment at startup.
	magicCallbackSegment = 0x6362

	maxQueuedEvents = 256
)

// Event bits, compatible with the mask of function 0x0C.
const (
	EventMoved byte = 1 << iota
	EventPressedLeft
	EventReleasedLeft
	EventPressedRight
	EventReleasedRight
	EventPressedMiddle
	EventReleasedMiddle
	EventWheel
)

type Config struct {
	Delay       time.Duration `help:"Minimum delay between two guest callbacks." default:"5ms"`
	Immediate   bool          `help:"Update driver state as soon as host input arrives."`
	MinRate     uint16        `help:"Minimum mouse sampling rate in Hz. Zero selects the driver default." default:"0"`
	Sensitivity uint16        `help:"Startup sensitivity for both axes (0-100)." default:"50"`
	Raw         bool          `help:"Host input is not accelerated by the host OS." default:"true" negatable:""`
	Relative    bool          `help:"Captured mouse (relative motion) instead of seamless."`
}

// DefaultConfig matches the kong defaults.
func DefaultConfig() Config {
	return Config{
		Delay:       5 * time.Millisecond,
		Sensitivity: 50,
		Raw:         true,
	}
}

// RateNotifier receives the sampling rate the guest asked for.
type RateNotifier interface {
	NotifyInterfaceRate(hz uint16)
	Rate() uint16
}

type hostEventKind int

const (
	hostMoved hostEventKind = iota
	hostButton
	hostWheel
	hostInputType
	hostResolution
	hostDelay
)

type hostEvent struct {
	kind       hostEventKind
	xRel, yRel float32
	xAbs, yAbs uint32
	buttons    platform.MouseButtons
	wheel      int16
	relative   bool
	raw        bool
	delay      time.Duration
}

type Device struct {
	Config

	Video  video.Adapter
	Rate   RateNotifier
	Logger *slog.Logger

	// Host input crosses into the emulation goroutine through this
	// queue. Everything below it is owned by Step and guest callbacks.
	lock  sync.Mutex
	queue []hostEvent

	p      processor.Processor
	regs   *processor.Registers
	pic    processor.InterruptController
	sched  processor.EventScheduler
	state  *State
	logger *slog.Logger
	info   driverInfo

	int33, mouseBD, callbackReturn memory.Address
	win386Callout                  memory.Address
	int74, int74Return             memory.Address

	delayRunning, delayFinished bool
	delayEvent                  processor.EventID

	pendingMoved, pendingButton, pendingWheel bool
	pendingButtons                            platform.MouseButtons
	pending                                   pendingMotion

	// Hardware state, tracked even while the driver is disabled.
	buttons platform.MouseButtons

	useRelative bool
	rawInput    bool
	resolution  [2]uint32

	rateIsSet bool
	rateHz    uint16
	minRateHz uint16

	cbRunning bool
	installed bool
}

func (m *Device) Install(p processor.Processor) error {
	m.p = p
	m.regs = p.GetRegisters()
	m.pic = p.GetInterruptController()
	m.sched = p.GetScheduler()
	if m.pic == nil || m.sched == nil {
		return errors.New("mouse driver requires an interrupt controller with event scheduling")
	}

	if m.Logger == nil {
		m.Logger = slog.Default()
	}
	m.logger = m.Logger.With("component", "dosmouse")

	if m.Video == nil {
		m.Video = nullVideo{}
	}
	if m.Rate == nil {
		m.Rate = &fixedRate{}
	}
	if m.Delay == 0 {
		m.Delay = DefaultConfig().Delay
	}
	m.useRelative = m.Relative
	m.rawInput = m.Raw
	if m.resolution[0] == 0 {
		m.resolution = [2]uint32{640, 400}
	}

	if err := m.prepareDriverInfo(); err != nil {
		return err
	}

	m.state = NewState(p)
	if err := m.state.Initialize(p); err != nil {
		return fmt.Errorf("could not start mouse driver: %w", err)
	}
	if err := m.installCallbacks(); err != nil {
		return err
	}
	if err := p.InstallInterruptHandler(0x2F, m); err != nil {
		return err
	}
	m.installed = true
	return nil
}

// Installed reports whether the driver is resident. A driver that failed
// to install ignores host input and machine resets.
func (m *Device) Installed() bool {
	return m.installed
}

func (m *Device) installCallbacks() error {
	p := m.p
	var err error

	if m.win386Callout, err = p.InstallCallback(processor.RetFar, m.handleWin386Callout); err != nil {
		return err
	}

	// Both segment and offset of the entry point must have non-zero
	// low bytes.
	seg, err := p.AllocateMemory(1)
	if err != nil {
		return fmt.Errorf("could not allocate interrupt entry: %w", err)
	}
	m.int33 = memory.NewAddress(seg-1, 0x10)
	if err = p.InstallCallbackAt(m.int33, processor.Iret, m.handleInt33); err != nil {
		return err
	}
	m.mouseBD = m.int33.AddInt(2)
	if err = p.InstallCallbackAt(m.mouseBD, processor.RetFar8, m.handleMouseBD); err != nil {
		return err
	}

	if m.callbackReturn, err = p.InstallCallback(processor.RetFarCli, m.handleCallbackReturn); err != nil {
		return err
	}
	if m.int74, err = p.InstallCallback(processor.RetFar, m.handleInt74); err != nil {
		return err
	}
	if m.int74Return, err = p.InstallCallback(processor.Iret, m.handleInt74Return); err != nil {
		return err
	}

	m.writeVectors()
	return nil
}

func (m *Device) writeVectors() {
	memory.WriteDWord(m.p, memory.Pointer(0x33*4), uint32(m.int33))
	memory.WriteDWord(m.p, memory.Pointer(irqVector*4), uint32(m.int74))
}

func (m *Device) Name() string {
	return "DOS Mouse Driver (INT 33h)"
}

// Reset brings the driver to the state it has right after loading.
func (m *Device) Reset() {
	if !m.installed {
		return
	}
	m.writeVectors()
	m.info.write(m.p)

	s := m.state
	s.Load(make([]byte, StateSize))
	s.SetUnknown01(defaultUnknown01)
	s.SetCursorType(CursorSoftware)

	s.SetCallbackReturn(m.callbackReturn)
	s.SetUserCallback(memory.NewAddress(magicCallbackSegment, 0))
	s.SetHidden(1)
	s.SetBiosScreenMode(0xFF)

	if m.delayRunning {
		m.sched.RemoveEvent(m.delayEvent)
		m.delayRunning = false
	}
	m.delayFinished = true
	m.pendingButtons = 0
	m.buttons = 0
	m.cbRunning = false
	m.useRelative = m.Relative
	m.rawInput = m.Raw

	m.setSensitivity(m.Sensitivity, m.Sensitivity, m.Sensitivity)
	m.resetHardware()
	m.resetDriver()
	m.NotifyMinRate(m.MinRate)
}

func (m *Device) resetHardware() {
	// The wheel API stays enabled across driver resets, only a hardware
	// reset turns it off.
	m.state.SetWheelCounter(0)
	m.state.SetWheelAPI(false)

	m.pic.SetMask(IRQ, false)

	m.rateIsSet = false
	m.notifyInterfaceRate()
}

func (m *Device) resetDriver() {
	s := m.state
	s.SetWheelCounter(0)
	m.pending.reset()

	m.BeforeNewVideoMode()
	m.AfterNewVideoMode(false)

	m.setMickeyPixelRate(8, 16)
	m.setDoubleSpeedThreshold(0)

	s.SetEnabled(true)
	s.SetAbsolute(X, float32((s.MaxPos(X)+1)/2))
	s.SetAbsolute(Y, float32((s.MaxPos(Y)+1)/2))
	s.SetMickeyCounter(X, 0)
	s.SetMickeyCounter(Y, 0)

	for idx := 0; idx < NumButtons; idx++ {
		s.SetTimesPressed(idx, 0)
		s.SetTimesReleased(idx, 0)
		for _, a := range []Axis{X, Y} {
			s.SetLastPressed(a, idx, 0)
			s.SetLastReleased(a, idx, 0)
		}
	}
	s.SetLastWheelMoved(X, 0)
	s.SetLastWheelMoved(Y, 0)
	s.SetUserCallbackMask(0)

	m.cbRunning = false
	m.clearPendingEvents()
}

// Step applies queued host input on the emulation goroutine.
func (m *Device) Step(int) error {
	if !m.installed {
		return nil
	}
	m.lock.Lock()
	events := m.queue
	m.queue = nil
	m.lock.Unlock()

	for _, ev := range events {
		switch ev.kind {
		case hostMoved:
			m.notifyMoved(ev.xRel, ev.yRel, ev.xAbs, ev.yAbs)
		case hostButton:
			m.notifyButton(ev.buttons)
		case hostWheel:
			m.notifyWheel(ev.wheel)
		case hostInputType:
			m.useRelative, m.rawInput = ev.relative, ev.raw
		case hostResolution:
			m.resolution = [2]uint32{ev.xAbs, ev.yAbs}
		case hostDelay:
			m.Delay = ev.delay
		}
	}
	return nil
}

func (m *Device) push(ev hostEvent) {
	if !m.installed {
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if len(m.queue) < maxQueuedEvents {
		m.queue = append(m.queue, ev)
		return
	}

	// Motion is the only input that can be merged without losing
	// transitions.
	if ev.kind == hostMoved {
		for i := len(m.queue) - 1; i >= 0; i-- {
			if last := &m.queue[i]; last.kind == hostMoved {
				last.xRel += ev.xRel
				last.yRel += ev.yRel
				last.xAbs, last.yAbs = ev.xAbs, ev.yAbs
				return
			}
		}
	}
	m.logger.Debug("Host input queue full, dropping event", "kind", int(ev.kind))
}

// NotifyMoved may be called from any goroutine.
func (m *Device) NotifyMoved(xRel, yRel float32, xAbs, yAbs uint32) {
	m.push(hostEvent{kind: hostMoved, xRel: xRel, yRel: yRel, xAbs: xAbs, yAbs: yAbs})
}

// NotifyButton may be called from any goroutine.
func (m *Device) NotifyButton(buttons platform.MouseButtons) {
	m.push(hostEvent{kind: hostButton, buttons: buttons})
}

// NotifyWheel may be called from any goroutine.
func (m *Device) NotifyWheel(delta int16) {
	m.push(hostEvent{kind: hostWheel, wheel: delta})
}

// NotifyInputType selects captured (relative) or seamless tracking and
// tells whether the host already accelerates motion.
func (m *Device) NotifyInputType(relative, raw bool) {
	m.push(hostEvent{kind: hostInputType, relative: relative, raw: raw})
}

// SetResolution sets the host area absolute coordinates refer to.
func (m *Device) SetResolution(width, height uint32) {
	m.push(hostEvent{kind: hostResolution, xAbs: width, yAbs: height})
}

func (m *Device) SetDelay(delay time.Duration) {
	m.push(hostEvent{kind: hostDelay, delay: delay})
}

// State exposes the guest resident driver state.
func (m *Device) State() *State {
	return m.state
}

// SaveState returns a raw copy of the driver state block.
func (m *Device) SaveState() []byte {
	if !m.installed {
		return nil
	}
	return m.state.Bytes()
}

// RestoreState loads a raw driver state block, the same way function
// 0x17 does.
func (m *Device) RestoreState(data []byte) {
	if !m.installed {
		return
	}
	m.state.Load(data)
	m.stateRestored()
}

func (m *Device) stateRestored() {
	m.pending.reset()
	s := m.state
	m.setSensitivity(uint16(s.Sensitivity(X)), uint16(s.Sensitivity(Y)), uint16(s.Unknown01()))
}

// Int33 is the far address of the INT 33h entry point.
func (m *Device) Int33() memory.Address {
	return m.int33
}

// MouseBD is the far call entry used by Windows mouse drivers.
func (m *Device) MouseBD() memory.Address {
	return m.mouseBD
}

// Buttons returns the hardware button state.
func (m *Device) Buttons() platform.MouseButtons {
	return m.buttons
}

// CallbackRunning reports whether a guest callback is in progress.
func (m *Device) CallbackRunning() bool {
	return m.cbRunning
}
