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
	"testing"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) int2f(ax, bx, cx uint16) {
	h.t.Helper()
	h.m.SetAX(ax)
	h.m.SetBX(bx)
	h.m.SetCX(cx)
	require.NoError(h.t, h.m.Interrupt(0x2F))
}

func TestWindowsStartup(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x03)
	s := h.mouse.State()

	link := memory.NewAddress(0x1234, 0x5678)
	h.m.SetES(link.Segment())
	h.m.SetDI(0x030A)
	h.int2f(0x1605, link.Offset(), 0)

	startup := memory.NewAddress(h.m.ES(), h.m.BX())
	assert.Equal(t, s.Address(2), startup)
	assert.True(t, s.Win386Running())
	assert.False(t, s.Win386DrawingCursor())

	assert.Equal(t, byte(3), h.m.ReadByte(startup.AddInt(1).Pointer()))
	assert.Equal(t, uint32(link), memory.ReadDWord(h.m, startup.AddInt(2).Pointer()))
	assert.Equal(t, uint32(s.Address(20)), memory.ReadDWord(h.m, startup.AddInt(10).Pointer()))
	assert.Equal(t, uint32(s.Address(0)), memory.ReadDWord(h.m, s.Address(20).Pointer()))
	assert.Equal(t, uint16(StateSize), h.m.ReadWord(s.Address(24).Pointer()))

	h.int2f(0x1606, 0, 0)
	assert.False(t, s.Win386Running())
	assert.Zero(t, memory.ReadDWord(h.m, startup.AddInt(2).Pointer()))
	assert.Zero(t, memory.ReadDWord(h.m, s.Address(20).Pointer()))
}

func TestWindowsCallout(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x03)
	s := h.mouse.State()

	h.int2f(0x1607, vmdMouseDeviceID, 0)
	assert.Equal(t, uint16(1), h.m.CX())

	h.int2f(0x1607, vmdMouseDeviceID, 1)
	assert.Zero(t, h.m.AX())
	callout := memory.NewAddress(h.m.DS(), h.m.SI())

	h.m.SetAX(2)
	require.NoError(t, h.m.CallFar(callout))
	assert.True(t, s.Win386DrawingCursor())

	h.m.SetAX(3)
	require.NoError(t, h.m.CallFar(callout))
	assert.False(t, s.Win386DrawingCursor())

	h.m.SetAX(7)
	require.NoError(t, h.m.CallFar(callout))
	assert.False(t, s.Win386DrawingCursor())
}

func TestMultiplexChain(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x03)

	chained := 0
	addr, err := h.m.InstallCallback(processor.Iret, func() error {
		chained++
		return nil
	})
	require.NoError(t, err)
	memory.WriteDWord(h.m, memory.Pointer(0x2F*4), uint32(addr))

	h.int2f(0x1607, 0x0D, 0)
	assert.Equal(t, 1, chained)

	h.int2f(0x1680, 0, 0)
	assert.Equal(t, 2, chained)

	h.int2f(0x4001, 0, 0)
	h.int2f(0x1607, vmdMouseDeviceID, 0)
	assert.Equal(t, 2, chained)
}

// mouseBD calls the Windows entry point with the registers in guest
// memory and returns them as written back by the driver.
func (h *harness) mouseBD(ax, bx, cx, dx uint16) [4]uint16 {
	h.t.Helper()

	const ds, base = 0x2000, 0x0100
	h.m.SetDS(ds)
	for i, v := range []uint16{ax, bx, cx, dx} {
		h.m.WriteWord(memory.NewPointer(ds, base+uint16(2*i)), v)
	}
	for i := 0; i < 4; i++ {
		h.m.Push16(base + uint16(2*i))
	}

	sp := h.m.SP()
	require.NoError(h.t, h.m.CallFar(h.mouse.MouseBD()))
	assert.Equal(h.t, sp+8, h.m.SP())

	var out [4]uint16
	for i := range out {
		out[i] = h.m.ReadWord(memory.NewPointer(ds, base+uint16(2*i)))
	}
	return out
}

func TestMouseBD(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x12)
	assert.Equal(t, h.mouse.Int33().AddInt(2), h.mouse.MouseBD())

	h.mouseBD(0x04, 0, 100, 50)
	out := h.mouseBD(0x03, 0, 0, 0)
	assert.Equal(t, [4]uint16{0x03, 0, 100, 50}, out)

	t.Run("ExchangeCallback", func(t *testing.T) {
		out := h.mouseBD(0x14, 0x3000, 0x1F, 0x0200)
		assert.Equal(t, uint16(magicCallbackSegment), out[2])
		assert.Zero(t, out[3])

		s := h.mouse.State()
		assert.Equal(t, memory.NewAddress(0x3000, 0x0200), s.UserCallback())
		assert.Equal(t, uint16(0x1F), s.UserCallbackMask())
	})

	t.Run("Disable", func(t *testing.T) {
		out := h.mouseBD(0x1F, 0xFFFF, 0, 0)
		assert.Equal(t, uint16(0x1F), out[0])
		assert.Zero(t, out[1])
		assert.False(t, h.mouse.State().Enabled())
	})
}
