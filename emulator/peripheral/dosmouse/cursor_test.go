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
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"
	"github.com/stretchr/testify/assert"
)

func TestTextCursor(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x03)
	center := cell{40, 12, 0}

	h.int33(0x01, 0, 0, 0)
	assert.Equal(t, uint16(0x7020), h.video.text[center])

	h.int33(0x02, 0, 0, 0)
	assert.Equal(t, uint16(0x0720), h.video.text[center])
	assert.Equal(t, uint16(1), h.mouse.State().Hidden())

	h.int33(0x01, 0, 0, 0)
	h.int33(0x04, 0, 0, 0)
	assert.Equal(t, uint16(0x0720), h.video.text[center])
	assert.Equal(t, uint16(0x7020), h.video.text[cell{0, 0, 0}])

	t.Run("Masks", func(t *testing.T) {
		h.int33(0x0A, 0, 0x00FF, 0x0F00)
		assert.Equal(t, uint16(0x0F20), h.video.text[cell{0, 0, 0}])

		h.int33(0x27, 0, 0, 0)
		assert.Equal(t, uint16(0x00FF), h.m.AX())
		assert.Equal(t, uint16(0x0F00), h.m.BX())
	})

	t.Run("UpdateRegion", func(t *testing.T) {
		h.m.SetSI(100)
		h.m.SetDI(100)
		h.int33(0x10, 0, 0, 0)
		assert.Equal(t, uint16(0x0720), h.video.text[cell{0, 0, 0}])

		h.int33(0x04, 0, 16, 24)
		assert.Equal(t, uint16(0x0720), h.video.ReadCharAttr(2, 3, 0))

		// Showing the cursor again clears the region.
		h.int33(0x01, 0, 0, 0)
		assert.Equal(t, uint16(0x0F20), h.video.text[cell{2, 3, 0}])
	})

	t.Run("Hardware", func(t *testing.T) {
		h.int33(0x0A, 1, 6, 7)
		assert.Equal(t, [2]byte{6, 7}, h.video.shape)
		assert.Equal(t, uint16(0x0720), h.video.text[cell{2, 3, 0}])
		assert.Equal(t, cell{2, 3, 0}, h.video.hwCursor)

		h.int33(0x04, 0, 80, 80)
		assert.Equal(t, cell{10, 10, 0}, h.video.hwCursor)

		h.int33(0x25, 0, 0, 0)
		assert.Equal(t, byte(CursorHardware)<<4, h.m.AH()&0x30)
	})
}

func TestTextCursor40Columns(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x00)

	h.int33(0x01, 0, 0, 0)
	assert.Equal(t, uint16(0x7020), h.video.text[cell{20, 12, 0}])
}

func TestGraphicsCursor(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x04)
	h.video.pixels[[2]uint16{160, 100}] = 3
	h.video.pixels[[2]uint16{170, 100}] = 5

	h.int33(0x01, 0, 0, 0)
	assert.Equal(t, byte(0), h.video.pixels[[2]uint16{160, 100}])
	assert.Equal(t, byte(5), h.video.pixels[[2]uint16{170, 100}])
	assert.Equal(t, byte(0x0F), h.video.pixels[[2]uint16{161, 101}])

	h.int33(0x02, 0, 0, 0)
	assert.Equal(t, byte(3), h.video.pixels[[2]uint16{160, 100}])
	assert.Equal(t, byte(0), h.video.pixels[[2]uint16{161, 101}])

	t.Run("Clipping", func(t *testing.T) {
		h.int33(0x01, 0, 0, 0)
		h.int33(0x04, 0, 638, 199)
		for p := range h.video.pixels {
			assert.LessOrEqual(t, p[0], uint16(319))
			assert.LessOrEqual(t, p[1], uint16(199))
		}
		h.int33(0x02, 0, 0, 0)
	})

	t.Run("UserShape", func(t *testing.T) {
		const seg = 0x3000
		for i := 0; i < CursorSize; i++ {
			h.m.WriteWord(memory.NewPointer(seg, uint16(2*i)), 0x0000)
			h.m.WriteWord(memory.NewPointer(seg, uint16(2*(CursorSize+i))), 0xFFFF)
		}

		h.int33(0x04, 0, 320, 100)
		h.int33(0x01, 0, 0, 0)
		h.m.SetES(seg)
		h.int33(0x09, 2, 3, 0)

		s := h.mouse.State()
		assert.True(t, s.UserScreenMask())
		assert.True(t, s.UserCursorMask())
		assert.Equal(t, int16(2), s.Hot(X))

		assert.Equal(t, byte(0x0F), h.video.pixels[[2]uint16{158, 97}])
		assert.Equal(t, byte(0x0F), h.video.pixels[[2]uint16{173, 112}])
		assert.Equal(t, byte(0), h.video.pixels[[2]uint16{157, 97}])

		h.int33(0x2A, 0, 0, 0)
		assert.Equal(t, uint16(2), h.m.BX())
		assert.Equal(t, uint16(3), h.m.CX())
	})

	t.Run("HotSpotClamp", func(t *testing.T) {
		assert.Equal(t, int16(CursorSize), clampHotSpot(100))
		assert.Equal(t, int16(-CursorSize), clampHotSpot(0xFF00))
	})
}

func TestInhibitDraw(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x04)
	h.video.mode = video.Mode{Number: 0x50, Width: 320, Height: 200}
	h.mouse.BeforeNewVideoMode()
	h.mouse.AfterNewVideoMode(true)

	h.int33(0x01, 0, 0, 0)
	assert.Empty(t, h.video.pixels)
}

func TestVideoModeChange(t *testing.T) {
	svga := video.Mode{Number: 0x5F, Width: 1024, Height: 768, VGA: true}

	t.Run("SVGAKeepsRange", func(t *testing.T) {
		h := newHarness(t, DefaultConfig(), 0x12)
		h.int33(0x07, 0, 0, 1023)

		h.video.mode = svga
		h.mouse.BeforeNewVideoMode()
		h.mouse.AfterNewVideoMode(true)

		s := h.mouse.State()
		assert.Equal(t, byte(0x5F), s.BiosScreenMode())
		assert.Equal(t, int16(1023), s.MaxPos(X))
		assert.Equal(t, int16(479), s.MaxPos(Y))
		assert.Equal(t, uint16(1), s.Hidden())
	})

	t.Run("SVGAReset", func(t *testing.T) {
		h := newHarness(t, DefaultConfig(), 0x12)
		h.video.mode = svga
		h.int33(0x00, 0, 0, 0)

		s := h.mouse.State()
		assert.Equal(t, int16(1023), s.MaxPos(X))
		assert.Equal(t, int16(767), s.MaxPos(Y))
		h.int33(0x03, 0, 0, 0)
		assert.Equal(t, uint16(512), h.m.CX())
		assert.Equal(t, uint16(384), h.m.DX())
	})

	t.Run("SVGAText", func(t *testing.T) {
		h := newHarness(t, DefaultConfig(), 0x03)
		h.video.mode = video.Mode{Number: 0x54, Text: true, Columns: 132, Rows: 43, VGA: true}
		h.mouse.BeforeNewVideoMode()
		h.mouse.AfterNewVideoMode(true)

		s := h.mouse.State()
		assert.Equal(t, int16(8*132-1), s.MaxPos(X))
		assert.Equal(t, int16(8*43-1), s.MaxPos(Y))
		assert.Equal(t, uint16(0xFFF8), s.Granularity(X))
	})

	t.Run("Unknown", func(t *testing.T) {
		h := newHarness(t, DefaultConfig(), 0x03)
		h.video.mode = video.Mode{Number: 0x50, Width: 800, Height: 600}
		h.mouse.BeforeNewVideoMode()
		h.mouse.AfterNewVideoMode(false)

		s := h.mouse.State()
		assert.True(t, s.InhibitDraw())
		assert.Equal(t, int16(639), s.MaxPos(X))
		assert.Equal(t, int16(479), s.MaxPos(Y))
	})

	t.Run("ClearsPending", func(t *testing.T) {
		h := newHarness(t, Config{Relative: true}, 0x12)
		h.settle()
		h.mouse.NotifyMoved(1, 1, 0, 0)
		h.advance(0)

		h.mouse.cbRunning = true
		h.mouse.NotifyMoved(1, 1, 0, 0)
		h.advance(0)
		assert.True(t, h.mouse.PendingEvent())

		h.mouse.AfterNewVideoMode(true)
		assert.False(t, h.mouse.PendingEvent())
	})
}
