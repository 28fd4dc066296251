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
	"github.com/andreas-jonsson/vxtmouse/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x03)

	int33 := h.mouse.Int33()
	assert.NotZero(t, int33.Segment()&0xFF)
	assert.NotZero(t, int33.Offset()&0xFF)
	assert.Equal(t, int33.AddInt(2), h.mouse.MouseBD())
	assert.Equal(t, uint32(int33), memory.ReadDWord(h.m, 0x33*4))

	s := h.mouse.State()
	assert.Equal(t, uint16(1), s.Hidden())
	assert.Equal(t, memory.NewAddress(magicCallbackSegment, 0), s.UserCallback())
	assert.Equal(t, byte(0x03), s.BiosScreenMode())
	assert.Equal(t, []uint16{defaultRateHz}, h.rate.requested[len(h.rate.requested)-1:])
}

func TestResetDriver(t *testing.T) {
	tests := []struct {
		mode       byte
		maxX, maxY uint16
		x, y       uint16
	}{
		{0x00, 639, 199, 320, 96},
		{0x03, 639, 199, 320, 96},
		{0x04, 639, 199, 320, 100},
		{0x0D, 639, 199, 320, 100},
		{0x10, 639, 349, 320, 175},
		{0x12, 639, 479, 320, 240},
		{0x13, 639, 199, 320, 100},
	}

	for _, tt := range tests {
		h := newHarness(t, DefaultConfig(), tt.mode)

		h.int33(0x00, 0, 0, 0)
		assert.Equal(t, uint16(0xFFFF), h.m.AX(), "mode 0x%02X", tt.mode)
		assert.Equal(t, uint16(3), h.m.BX())

		h.int33(0x26, 0, 0, 0)
		assert.Equal(t, uint16(0), h.m.BX())
		assert.Equal(t, tt.maxX, h.m.CX(), "mode 0x%02X", tt.mode)
		assert.Equal(t, tt.maxY, h.m.DX(), "mode 0x%02X", tt.mode)

		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, tt.x, h.m.CX(), "mode 0x%02X", tt.mode)
		assert.Equal(t, tt.y, h.m.DX(), "mode 0x%02X", tt.mode)
	}
}

func TestPositionAndRange(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x12)

	h.int33(0x04, 0, 10, 20)
	h.int33(0x03, 0, 0, 0)
	assert.Equal(t, uint16(10), h.m.CX())
	assert.Equal(t, uint16(20), h.m.DX())

	t.Run("ReversedRange", func(t *testing.T) {
		h.int33(0x07, 0, 500, 100)
		s := h.mouse.State()
		assert.Equal(t, int16(100), s.MinPos(X))
		assert.Equal(t, int16(500), s.MaxPos(X))

		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, uint16(100), h.m.CX())

		h.int33(0x08, 0, 300, 400)
		h.int33(0x31, 0, 0, 0)
		assert.Equal(t, uint16(100), h.m.AX())
		assert.Equal(t, uint16(300), h.m.BX())
		assert.Equal(t, uint16(500), h.m.CX())
		assert.Equal(t, uint16(400), h.m.DX())

		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, uint16(300), h.m.DX())
	})

	t.Run("Clamped", func(t *testing.T) {
		h.int33(0x04, 0, 1000, 0xFFFF)
		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, uint16(500), h.m.CX())
		assert.Equal(t, uint16(400), h.m.DX())
	})
}

func TestSaveLoadState(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x12)
	buffer := memory.NewAddress(0x2000, 0x10)

	h.int33(0x15, 0, 0, 0)
	assert.Equal(t, uint16(StateSize), h.m.BX())

	h.int33(0x04, 0, 100, 200)
	h.m.SetES(buffer.Segment())
	h.int33(0x16, 0, 0, buffer.Offset())

	saved := make([]byte, StateSize)
	memory.ReadBlock(h.m, buffer.Pointer(), saved)
	assert.Equal(t, h.mouse.SaveState(), saved)

	h.int33(0x04, 0, 5, 6)
	h.int33(0x1A, 10, 150, 30)
	h.int33(0x1B, 0, 0, 0)
	assert.Equal(t, []uint16{10, 100, 30}, []uint16{h.m.BX(), h.m.CX(), h.m.DX()})

	h.m.SetES(buffer.Segment())
	h.int33(0x17, 0, 0, buffer.Offset())

	h.int33(0x03, 0, 0, 0)
	assert.Equal(t, uint16(100), h.m.CX())
	assert.Equal(t, uint16(200), h.m.DX())

	h.int33(0x1B, 0, 0, 0)
	assert.Equal(t, []uint16{50, 50, 50}, []uint16{h.m.BX(), h.m.CX(), h.m.DX()})
	assert.Equal(t, SensitivityCoeff(50), h.mouse.State().SensitivityCoeff(Y))

	t.Run("RestoreState", func(t *testing.T) {
		h.int33(0x04, 0, 5, 6)
		h.mouse.RestoreState(saved)
		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, uint16(100), h.m.CX())
	})

	t.Run("FreshDriver", func(t *testing.T) {
		src := newHarness(t, DefaultConfig(), 0x12)
		src.int33(0x04, 0, 123, 45)
		src.int33(0x1A, 20, 70, 10)
		src.installCallback(0x1F)
		cb := src.mouse.State().UserCallback()

		src.m.SetES(buffer.Segment())
		src.int33(0x16, 0, 0, buffer.Offset())
		block := make([]byte, StateSize)
		memory.ReadBlock(src.m, buffer.Pointer(), block)

		dst := newHarness(t, DefaultConfig(), 0x12)
		memory.WriteBlock(dst.m, buffer.Pointer(), block)
		dst.m.SetES(buffer.Segment())
		dst.int33(0x17, 0, 0, buffer.Offset())

		dst.int33(0x03, 0, 0, 0)
		assert.Equal(t, uint16(123), dst.m.CX())
		assert.Equal(t, uint16(45), dst.m.DX())

		dst.int33(0x1B, 0, 0, 0)
		assert.Equal(t, []uint16{20, 70, 10}, []uint16{dst.m.BX(), dst.m.CX(), dst.m.DX()})
		assert.Equal(t, SensitivityCoeff(70), dst.mouse.State().SensitivityCoeff(Y))

		dst.m.SetES(0)
		dst.int33(0x14, 0, 0, 0)
		assert.Equal(t, uint16(0x1F), dst.m.CX())
		assert.Equal(t, cb, memory.NewAddress(dst.m.ES(), dst.m.DX()))
	})
}

func TestButtonData(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x12)
	h.settle()

	h.mouse.NotifyButton(0x01)
	h.advance(0)
	h.int33(0x04, 0, 50, 60)
	h.mouse.NotifyButton(0)
	h.settle()

	h.int33(0x05, 0, 0, 0)
	assert.Equal(t, uint16(0), h.m.AX())
	assert.Equal(t, uint16(1), h.m.BX())
	assert.Equal(t, uint16(320), h.m.CX())
	assert.Equal(t, uint16(240), h.m.DX())

	h.int33(0x05, 0, 0, 0)
	assert.Equal(t, uint16(0), h.m.BX())

	h.int33(0x06, 0, 0, 0)
	assert.Equal(t, uint16(1), h.m.BX())
	assert.Equal(t, uint16(50), h.m.CX())
	assert.Equal(t, uint16(60), h.m.DX())

	h.int33(0x05, 7, 0, 0)
	assert.Equal(t, []uint16{0, 0, 0}, []uint16{h.m.BX(), h.m.CX(), h.m.DX()})
}

func TestWheel(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x12)
	h.settle()

	h.mouse.NotifyWheel(2)
	h.advance(0)
	h.int33(0x03, 0, 0, 0)
	assert.Equal(t, byte(0), h.m.BH())

	h.int33(0x11, 0, 0, 0)
	assert.Equal(t, uint16(0x574D), h.m.AX())
	assert.Equal(t, uint16(1), h.m.CX())

	h.mouse.NotifyWheel(3)
	h.settle()
	h.int33(0x03, 0, 0, 0)
	assert.Equal(t, byte(3), h.m.BH())
	h.int33(0x03, 0, 0, 0)
	assert.Equal(t, byte(0), h.m.BH())

	h.mouse.NotifyWheel(-2)
	h.settle()
	h.int33(0x05, 0xFFFF, 0, 0)
	assert.Equal(t, uint16(0xFFFE), h.m.BX())
	assert.Equal(t, uint16(320), h.m.CX())
	assert.Equal(t, uint16(240), h.m.DX())

	t.Run("Saturates", func(t *testing.T) {
		h.mouse.NotifyWheel(100)
		h.mouse.NotifyWheel(100)
		h.settle()
		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, byte(127), h.m.BH())
	})

	// Functions 0x03 and 0x05 read and clear the same counter, so a
	// notch reported through 0x03 is gone for 0x05.
	t.Run("SharedCounter", func(t *testing.T) {
		h.mouse.NotifyWheel(3)
		h.settle()
		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, byte(3), h.m.BH())
		h.int33(0x05, 0xFFFF, 0, 0)
		assert.Equal(t, uint16(0), h.m.BX())
		h.int33(0x05, 0xFFFF, 0, 0)
		assert.Equal(t, uint16(0), h.m.BX())

		h.mouse.NotifyWheel(1)
		h.settle()
		h.int33(0x05, 0xFFFF, 0, 0)
		assert.Equal(t, uint16(1), h.m.BX())
		h.int33(0x05, 0xFFFF, 0, 0)
		assert.Equal(t, uint16(0), h.m.BX())
	})

	t.Run("DisabledByReset", func(t *testing.T) {
		h.int33(0x00, 0, 0, 0)
		h.mouse.NotifyWheel(1)
		h.settle()
		h.int33(0x05, 0xFFFF, 0, 0)
		assert.Equal(t, uint16(0), h.m.AX())
		assert.Equal(t, uint16(0), h.m.BX())
	})
}

func TestMotionCounters(t *testing.T) {
	h := newHarness(t, Config{Relative: true, Raw: true, Sensitivity: 50, Delay: DefaultConfig().Delay}, 0x12)
	h.settle()

	h.mouse.NotifyMoved(1, 1, 0, 0)
	h.advance(0)

	h.int33(0x0B, 0, 0, 0)
	assert.Equal(t, uint16(1), h.m.CX())
	assert.Equal(t, uint16(1), h.m.DX())

	h.int33(0x0B, 0, 0, 0)
	assert.Equal(t, uint16(0), h.m.CX())

	h.int33(0x27, 0, 0, 0)
	assert.Equal(t, uint16(defaultTextMaskAnd), h.m.AX())
	assert.Equal(t, uint16(defaultTextMaskXor), h.m.BX())

	t.Run("ZeroSensitivity", func(t *testing.T) {
		h.int33(0x1A, 0, 0, 0)
		h.int33(0x03, 0, 0, 0)
		x, y := h.m.CX(), h.m.DX()

		h.mouse.NotifyMoved(40, 40, 0, 0)
		h.settle()
		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, x, h.m.CX())
		assert.Equal(t, y, h.m.DX())
	})
}

func TestDisableEnable(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x03)
	s := h.mouse.State()

	h.int33(0x01, 0, 0, 0)
	require.Equal(t, uint16(0), s.Hidden())

	h.m.SetES(0x1234)
	h.int33(0x1F, 0xFFFF, 0, 0)
	assert.Equal(t, uint16(0x001F), h.m.AX())
	assert.Equal(t, uint16(0), h.m.BX())
	assert.Equal(t, uint16(0), h.m.ES())
	assert.False(t, s.Enabled())
	assert.Equal(t, uint16(1), s.Hidden())

	h.int33(0x26, 0, 0, 0)
	assert.Equal(t, uint16(0xFFFF), h.m.BX())

	h.int33(0x20, 0, 0, 0)
	assert.True(t, s.Enabled())
	assert.Equal(t, uint16(0), s.Hidden())
}

func TestMiscFunctions(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x03)

	t.Run("Version", func(t *testing.T) {
		h.int33(0x24, 0, 0, 0)
		assert.Equal(t, uint16(0x0805), h.m.BX())
		assert.Equal(t, uint16(0x0400), h.m.CX())
	})

	t.Run("Language", func(t *testing.T) {
		h.int33(0x22, 3, 0, 0)
		h.int33(0x23, 0, 0, 0)
		assert.Equal(t, uint16(3), h.m.BX())
	})

	t.Run("Page", func(t *testing.T) {
		h.int33(0x1D, 2, 0, 0)
		h.int33(0x1E, 0, 0, 0)
		assert.Equal(t, uint16(2), h.m.BX())
	})

	t.Run("HotSpot", func(t *testing.T) {
		h.int33(0x2A, 0, 0, 0)
		assert.Equal(t, byte(0xFF), h.m.AL())
		assert.Equal(t, uint16(mouseTypePS2), h.m.DX())
	})

	t.Run("AdvancedFunctions", func(t *testing.T) {
		h.int33(0x32, 0, 0, 0)
		assert.Equal(t, uint16(advancedFunctions), h.m.AX())
	})

	t.Run("InterruptRate", func(t *testing.T) {
		h.int33(0x1C, 3, 0, 0)
		assert.Equal(t, uint16(100), h.rate.Rate())

		h.int33(0x25, 0, 0, 0)
		assert.Equal(t, byte(0x43), h.m.AH())
		assert.Equal(t, byte(1), h.m.AL())

		h.int33(0x1C, 0, 0, 0)
		assert.Equal(t, uint16(100), h.rate.Rate())
	})

	t.Run("Strings", func(t *testing.T) {
		h.int33(0x6D, 0, 0, 0)
		assert.Equal(t, "version 8.05", h.readString(memory.NewAddress(h.m.ES(), h.m.DI())))

		h.int33(0x4D, 0, 0, 0)
		assert.Equal(t, version.Copyright, h.readString(memory.NewAddress(h.m.ES(), h.m.DI())))

		h.int33(0x34, 0, 0, 0)
		assert.Equal(t, "", h.readString(memory.NewAddress(h.m.ES(), h.m.DX())))
	})

	t.Run("ExchangeCallback", func(t *testing.T) {
		h.m.SetES(0x1000)
		h.int33(0x0C, 0, 0x1F, 0x0020)

		h.m.SetES(0x2000)
		h.int33(0x14, 0, 0x02, 0x0040)
		assert.Equal(t, uint16(0x1F), h.m.CX())
		assert.Equal(t, uint16(0x0020), h.m.DX())
		assert.Equal(t, uint16(0x1000), h.m.ES())

		s := h.mouse.State()
		assert.Equal(t, uint16(0x02), s.UserCallbackMask())
		assert.Equal(t, memory.NewAddress(0x2000, 0x0040), s.UserCallback())
	})

	t.Run("Unknown", func(t *testing.T) {
		h.m.SetBX(0x5555)
		h.int33(0x70, 0x5555, 0, 0)
		assert.Equal(t, uint16(0x70), h.m.AX())
		assert.Equal(t, uint16(0x5555), h.m.BX())

		h.int33(0x99, 0, 0, 0)
		assert.Equal(t, uint16(0x99), h.m.AX())
	})
}
