/*
Copyright (C) 2019-2020 Andreas T Jonsson

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package emulator wires the mouse driver into a machine with a text mode
// display and runs a small guest that follows the mouse.
package emulator

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/andreas-jonsson/vxtmouse/emulator/dialog"
	"github.com/andreas-jonsson/vxtmouse/emulator/machine"
	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/dosmouse"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/pic"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/ram"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video/cgatext"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
	"github.com/andreas-jonsson/vxtmouse/emulator/snapshot"
	"github.com/andreas-jonsson/vxtmouse/platform"
	"github.com/andreas-jonsson/vxtmouse/version"
	"github.com/gdamore/tcell"
	"github.com/spf13/afero"
)

const stepInterval = time.Millisecond

type Options struct {
	Mouse dosmouse.Config

	// Snapshot is restored at startup and written back on exit.
	Snapshot string
	Fs       afero.Fs

	Logger *slog.Logger

	// Screen replaces the terminal.
	Screen tcell.Screen
	// Clock replaces time.Now for the interrupt controller.
	Clock func() time.Time

	// SDL captures the host mouse in a window instead of the terminal.
	SDL bool

	// Peripherals are installed after the video adapter and ahead of
	// the mouse driver.
	Peripherals []peripheral.Peripheral
}

type Emulator struct {
	opts   Options
	logger *slog.Logger

	m     *machine.Machine
	mouse *dosmouse.Device
	video *cgatext.Device

	callback memory.Address
	status   guestStatus
}

type guestStatus struct {
	dirty      bool
	events     byte
	buttons    platform.MouseButtons
	x, y       uint16
	mickeyX    int16
	mickeyY    int16
	wheel      int8
	wheelTotal int
}

func New(opts Options) (*Emulator, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	e := &Emulator{opts: opts, logger: opts.Logger.With("component", "emulator")}
	e.mouse = &dosmouse.Device{Config: opts.Mouse, Logger: opts.Logger}
	e.video = &cgatext.Device{
		Screen:    opts.Screen,
		Listeners: []video.ModeListener{e.mouse},
	}
	e.mouse.Video = e.video
	if !opts.SDL {
		e.video.Mouse = e.mouse
	}

	peripherals := []peripheral.Peripheral{
		&ram.Device{}, // RAM (needs to go first since it maps the full memory range)
		&pic.Device{Now: opts.Clock},
		e.video,
	}
	peripherals = append(peripherals, opts.Peripherals...)
	peripherals = append(peripherals, e.mouse)
	e.m = machine.NewMachine(peripherals)

	if !e.mouse.Installed() {
		e.logger.Warn("Mouse driver failed to install, continuing without it")
	}

	var err error
	if e.callback, err = e.m.InstallCallback(processor.RetFar, e.mouseEvent); err != nil {
		e.m.Close()
		return nil, err
	}
	return e, nil
}

// Mouse exposes the driver, mostly so host input sources can feed it.
func (e *Emulator) Mouse() *dosmouse.Device {
	return e.mouse
}

func (e *Emulator) Video() *cgatext.Device {
	return e.video
}

// Boot resets the machine and runs the guest program up to its idle
// loop. A saved driver state is restored once the driver is found.
func (e *Emulator) Boot() error {
	e.m.Reset()
	e.status = guestStatus{dirty: true}

	m := e.m
	m.SetAX(0x0003) // 80x25 color text
	if err := m.Interrupt(0x10); err != nil {
		return err
	}
	if err := e.printBanner(); err != nil {
		return err
	}

	if !e.mouse.Installed() {
		e.status.dirty = false
		return e.printAt(0, 24, "Mouse driver not installed.")
	}

	m.SetAX(0x0000)
	if err := m.Interrupt(0x33); err != nil {
		return err
	}
	if m.AX() != 0xFFFF {
		return errors.New("mouse driver not detected")
	}

	if err := e.restoreSnapshot(); err != nil {
		return err
	}

	m.SetES(e.callback.Segment())
	m.Set16(0x000C, 0, 0x00FF, e.callback.Offset())
	if err := m.Interrupt(0x33); err != nil {
		return err
	}

	m.SetAX(0x0011) // enable wheel reporting
	if err := m.Interrupt(0x33); err != nil {
		return err
	}

	m.SetAX(0x0001)
	if err := m.Interrupt(0x33); err != nil {
		return err
	}

	m.SetAX(0x0003)
	if err := m.Interrupt(0x33); err != nil {
		return err
	}
	e.status.buttons = platform.MouseButtons(m.BL())
	e.status.x, e.status.y = m.CX(), m.DX()
	return nil
}

func (e *Emulator) printBanner() error {
	banner := fmt.Sprintf("VirtualXT mouse driver %s - %s", version.Current, version.Copyright)
	if err := e.printAt(0, 0, banner); err != nil {
		return err
	}
	return e.printAt(0, 1, "Move the mouse, press buttons or scroll. Esc quits.")
}

// mouseEvent is the guest callback registered with function 0x0C. It
// only records the event; the idle loop updates the screen.
func (e *Emulator) mouseEvent() error {
	r := e.m.GetRegisters()
	s := &e.status

	s.dirty = true
	s.events = r.AL()
	s.buttons = platform.MouseButtons(r.BL())
	s.x, s.y = r.CX(), r.DX()
	s.mickeyX, s.mickeyY = int16(r.SI()), int16(r.DI())
	if r.AL()&dosmouse.EventWheel != 0 {
		s.wheel = int8(r.BH())
		s.wheelTotal += int(s.wheel)
	}
	e.logger.Debug("Mouse event", "events", fmt.Sprintf("0x%02X", s.events), "x", s.x, "y", s.y)
	return nil
}

func buttonString(b platform.MouseButtons) string {
	var out [3]byte
	for i, c := range []struct {
		btn platform.MouseButtons
		ch  byte
	}{{platform.MouseLeft, 'L'}, {platform.MouseMiddle, 'M'}, {platform.MouseRight, 'R'}} {
		out[i] = '-'
		if b.Has(c.btn) {
			out[i] = c.ch
		}
	}
	return string(out[:])
}

func (e *Emulator) statusLine() string {
	s := e.status
	return fmt.Sprintf("X:%4d Y:%4d  Buttons:%s  Wheel:%+5d  Mickeys:%6d %6d  Events:%02X",
		s.x, s.y, buttonString(s.buttons), s.wheelTotal, s.mickeyX, s.mickeyY, s.events)
}

// idle is one pass of the guest main loop.
func (e *Emulator) idle() error {
	if !e.status.dirty {
		return nil
	}
	e.status.dirty = false

	m := e.m
	m.SetAX(0x0002)
	if err := m.Interrupt(0x33); err != nil {
		return err
	}
	if err := e.printAt(0, 24, e.statusLine()); err != nil {
		return err
	}
	m.SetAX(0x0001)
	return m.Interrupt(0x33)
}

// printAt writes s with INT 10h teletype output. Lines are cut at 79
// columns so the screen never scrolls.
func (e *Emulator) printAt(col, row byte, s string) error {
	if len(s) > 79-int(col) {
		s = s[:79-int(col)]
	}

	m := e.m
	m.SetAX(0x0200)
	m.SetBX(0)
	m.SetDX(uint16(row)<<8 | uint16(col))
	if err := m.Interrupt(0x10); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		m.SetAX(0x0E00 | uint16(s[i]))
		if err := m.Interrupt(0x10); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emulator) restoreSnapshot() error {
	if e.opts.Snapshot == "" {
		return nil
	}

	data, err := snapshot.Load(e.opts.Fs, e.opts.Snapshot)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case errors.Is(err, snapshot.ErrIncompatible), errors.Is(err, snapshot.ErrBadMagic):
		e.logger.Warn("Ignoring driver snapshot", "file", e.opts.Snapshot, "error", err)
		return nil
	case err != nil:
		return err
	}

	e.mouse.RestoreState(data)
	e.logger.Info("Restored driver state", "file", e.opts.Snapshot)
	return nil
}

func (e *Emulator) saveSnapshot() error {
	if e.opts.Snapshot == "" || !e.mouse.Installed() {
		return nil
	}
	if err := snapshot.Save(e.opts.Fs, e.opts.Snapshot, e.mouse.SaveState()); err != nil {
		return fmt.Errorf("could not save driver state: %w", err)
	}
	e.logger.Info("Saved driver state", "file", e.opts.Snapshot)
	return nil
}

// Step advances the machine once and lets the guest react.
func (e *Emulator) Step() error {
	if err := e.m.Step(0); err != nil {
		return err
	}
	return e.idle()
}

// Run steps the machine until quit is closed, the display asks to leave
// or a shutdown is requested.
func (e *Emulator) Run(quit <-chan struct{}) error {
	ticker := time.NewTicker(stepInterval)
	defer ticker.Stop()

	for !dialog.ShutdownRequested() {
		if dialog.RestartRequested() {
			e.logger.Info("Restarting")
			if err := e.Boot(); err != nil {
				return err
			}
		}

		select {
		case <-quit:
			return nil
		case <-e.video.Done():
			return nil
		case <-ticker.C:
			if err := e.Step(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close saves the driver state and shuts down the peripherals.
func (e *Emulator) Close() error {
	err := e.saveSnapshot()
	e.m.Close()
	return err
}

// Start boots a new emulator and runs it until the user quits.
func Start(opts Options) (err error) {
	e, err := New(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); err == nil {
			err = cerr
		}
	}()

	if err := e.Boot(); err != nil {
		return err
	}

	if !opts.SDL {
		return e.Run(nil)
	}

	cfg := platform.SDLConfig{Title: "VirtualXT Mouse", Relative: opts.Mouse.Relative}
	err = platform.RunSDL(cfg, e.mouse, e.Run)
	if errors.Is(err, platform.ErrNoSDL) {
		dialog.ShowErrorMessage(err.Error())
	}
	return err
}
