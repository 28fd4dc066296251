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
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/andreas-jonsson/vxtmouse/emulator/machine"
	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/pic"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/ram"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
	"github.com/stretchr/testify/require"
)

type cell struct {
	col, row uint16
	page     byte
}

type fakeVideo struct {
	mode     video.Mode
	text     map[cell]uint16
	pixels   map[[2]uint16]byte
	shape    [2]byte
	hwCursor cell
}

func newFakeVideo(mode video.Mode) *fakeVideo {
	return &fakeVideo{
		mode:   mode,
		text:   make(map[cell]uint16),
		pixels: make(map[[2]uint16]byte),
	}
}

func (v *fakeVideo) Mode() video.Mode  { return v.mode }
func (v *fakeVideo) CurrentPage() byte { return 0 }

func (v *fakeVideo) ReadCharAttr(col, row uint16, page byte) uint16 {
	if ca, ok := v.text[cell{col, row, page}]; ok {
		return ca
	}
	return 0x0720
}

func (v *fakeVideo) WriteCharAttr(col, row uint16, page, ch, attr byte) {
	v.text[cell{col, row, page}] = uint16(attr)<<8 | uint16(ch)
}

func (v *fakeVideo) SetCursorShape(start, end byte) {
	v.shape = [2]byte{start, end}
}

func (v *fakeVideo) SetHardwareCursor(col, row uint16, page byte) {
	v.hwCursor = cell{col, row, page}
}

func (v *fakeVideo) GetPixel(x, y uint16, page byte) byte {
	return v.pixels[[2]uint16{x, y}]
}

func (v *fakeVideo) PutPixel(x, y uint16, page, color byte) {
	v.pixels[[2]uint16{x, y}] = color
}

type fakeRate struct {
	requested []uint16
}

func (r *fakeRate) NotifyInterfaceRate(hz uint16) {
	r.requested = append(r.requested, hz)
}

func (r *fakeRate) Rate() uint16 {
	if len(r.requested) == 0 {
		return 0
	}
	return r.requested[len(r.requested)-1]
}

type harness struct {
	t     *testing.T
	m     *machine.Machine
	pic   *pic.Device
	mouse *Device
	video *fakeVideo
	rate  *fakeRate
	now   time.Time
}

func newHarness(t *testing.T, cfg Config, mode byte) *harness {
	t.Helper()

	h := &harness{
		t:     t,
		video: newFakeVideo(video.StandardModes[mode]),
		rate:  &fakeRate{},
		now:   time.Unix(0, 0),
	}
	h.pic = &pic.Device{Now: func() time.Time { return h.now }}
	h.mouse = &Device{
		Config: cfg,
		Video:  h.video,
		Rate:   h.rate,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.m = machine.NewMachine([]peripheral.Peripheral{
		&ram.Device{Clear: true},
		h.pic,
		h.mouse,
	})
	require.True(t, h.mouse.State().Initialized())
	h.m.Reset()
	return h
}

// int33 issues INT 33h through the interrupt vector table.
func (h *harness) int33(ax, bx, cx, dx uint16) {
	h.t.Helper()
	h.m.Set16(ax, bx, cx, dx)
	require.NoError(h.t, h.m.Interrupt(0x33))
}

func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	h.now = h.now.Add(d)
	require.NoError(h.t, h.m.Step(0))
}

// settle lets the delay timer started by a driver reset expire.
func (h *harness) settle() {
	h.t.Helper()
	h.advance(h.mouse.Delay)
}

type callbackRegs struct {
	ax, bx, cx, dx, si, di uint16
}

// installCallback registers a guest callback for the events in mask and
// returns the register snapshots it receives.
func (h *harness) installCallback(mask uint16) *[]callbackRegs {
	h.t.Helper()

	calls := &[]callbackRegs{}
	addr, err := h.m.InstallCallback(processor.RetFar, func() error {
		r := h.m.GetRegisters()
		*calls = append(*calls, callbackRegs{r.AX(), r.BX(), r.CX(), r.DX(), r.SI(), r.DI()})
		return nil
	})
	require.NoError(h.t, err)

	h.m.SetES(addr.Segment())
	h.int33(0x0C, 0, mask, addr.Offset())
	return calls
}

func (h *harness) readString(addr memory.Address) string {
	var buf []byte
	for ptr := addr.Pointer(); ; ptr++ {
		b := h.m.ReadByte(ptr)
		if b == 0 {
			return string(buf)
		}
		buf = append(buf, b)
	}
}
