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
	"time"

	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/video"
	"github.com/andreas-jonsson/vxtmouse/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capturedConfig() Config {
	cfg := DefaultConfig()
	cfg.Relative = true
	return cfg
}

func TestCallbackFrame(t *testing.T) {
	h := newHarness(t, capturedConfig(), 0x12)
	calls := h.installCallback(0x7F)
	h.settle()

	h.m.Set16(0x1234, 0x5678, 0x9ABC, 0xDEF0)
	h.m.SetES(0x1111)
	sp := h.m.SP()

	h.mouse.NotifyMoved(1, 1, 0, 0)
	h.mouse.NotifyMoved(1, 1, 0, 0)
	h.advance(0)

	require.Len(t, *calls, 1)
	assert.Equal(t, callbackRegs{ax: uint16(EventMoved), bx: 0, cx: 322, dx: 241, si: 2, di: 2}, (*calls)[0])

	ax, bx, cx, dx := h.m.Get16()
	assert.Equal(t, [4]uint16{0x1234, 0x5678, 0x9ABC, 0xDEF0}, [4]uint16{ax, bx, cx, dx})
	assert.Equal(t, uint16(0x1111), h.m.ES())
	assert.Equal(t, sp, h.m.SP())
	assert.True(t, h.m.Idle())
	assert.False(t, h.mouse.CallbackRunning())

	t.Run("SingleTimer", func(t *testing.T) {
		h.mouse.NotifyMoved(1, 0, 0, 0)
		h.advance(0)
		assert.Len(t, *calls, 1)
		assert.True(t, h.mouse.PendingEvent())
		assert.Equal(t, 1, h.pic.PendingEvents())

		h.advance(h.mouse.Delay / 2)
		assert.Len(t, *calls, 1)

		h.advance(h.mouse.Delay / 2)
		require.Len(t, *calls, 2)
		assert.Equal(t, uint16(323), (*calls)[1].cx)
		assert.Equal(t, uint16(3), (*calls)[1].si)
		assert.False(t, h.mouse.PendingEvent())
	})
}

func TestButtonEvents(t *testing.T) {
	h := newHarness(t, capturedConfig(), 0x12)
	calls := h.installCallback(0x7F)
	h.settle()

	h.mouse.NotifyButton(platform.MouseLeft)
	h.advance(0)
	h.mouse.NotifyButton(platform.MouseLeft | platform.MouseRight)
	h.settle()
	h.mouse.NotifyButton(platform.MouseMiddle)
	h.settle()
	h.mouse.NotifyButton(platform.MouseMiddle)
	h.settle()

	require.Len(t, *calls, 3)
	assert.Equal(t, uint16(EventPressedLeft), (*calls)[0].ax)
	assert.Equal(t, uint16(1), (*calls)[0].bx)
	assert.Equal(t, uint16(EventPressedRight), (*calls)[1].ax)
	assert.Equal(t, uint16(3), (*calls)[1].bx)
	assert.Equal(t, uint16(EventReleasedLeft|EventReleasedRight|EventPressedMiddle), (*calls)[2].ax)
	assert.Equal(t, uint16(4), (*calls)[2].bx)
	assert.Equal(t, platform.MouseMiddle, h.mouse.Buttons())

	s := h.mouse.State()
	assert.Equal(t, uint16(1), s.TimesPressed(0))
	assert.Equal(t, uint16(1), s.TimesReleased(1))
	assert.Equal(t, uint16(1), s.TimesPressed(2))
}

func TestCallbackMask(t *testing.T) {
	h := newHarness(t, capturedConfig(), 0x12)
	calls := h.installCallback(uint16(EventPressedLeft))
	h.settle()

	h.mouse.NotifyMoved(5, 5, 0, 0)
	h.advance(0)
	assert.Empty(t, *calls)

	h.int33(0x03, 0, 0, 0)
	assert.NotEqual(t, uint16(320), h.m.CX())

	h.mouse.NotifyButton(platform.MouseLeft)
	h.mouse.NotifyMoved(5, 5, 0, 0)
	h.settle()
	require.Len(t, *calls, 1)
	assert.Equal(t, uint16(EventMoved|EventPressedLeft), (*calls)[0].ax)
}

func TestSeamless(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x12)
	calls := h.installCallback(uint16(EventMoved))
	h.settle()

	h.mouse.NotifyMoved(0, 0, 100, 399)
	h.advance(0)
	require.Len(t, *calls, 1)
	assert.Equal(t, uint16(0x0100|uint16(EventMoved)), (*calls)[0].ax)
	assert.Equal(t, uint16(100), (*calls)[0].cx)
	assert.Equal(t, uint16(479), (*calls)[0].dx)

	t.Run("SamePositionIgnored", func(t *testing.T) {
		h.mouse.NotifyMoved(0, 0, 100, 399)
		h.settle()
		assert.Len(t, *calls, 1)
	})

	t.Run("Resolution", func(t *testing.T) {
		h.mouse.SetResolution(320, 240)
		h.mouse.NotifyMoved(0, 0, 319, 0)
		h.settle()
		require.Len(t, *calls, 2)
		assert.Equal(t, uint16(639), (*calls)[1].cx)
		assert.Equal(t, uint16(0), (*calls)[1].dx)
	})

	t.Run("TextMode", func(t *testing.T) {
		h.video.mode = video.StandardModes[0x03]
		h.mouse.SetResolution(640, 400)
		h.mouse.NotifyMoved(0, 0, 639, 399)
		h.settle()
		require.Len(t, *calls, 3)
		assert.Equal(t, uint16(639), (*calls)[2].cx)
		assert.Equal(t, uint16(200), (*calls)[2].dx)
	})
}

func TestImmediate(t *testing.T) {
	cfg := capturedConfig()
	cfg.Immediate = true
	h := newHarness(t, cfg, 0x12)
	calls := h.installCallback(uint16(EventMoved))
	h.settle()

	h.mouse.NotifyMoved(1, 0, 0, 0)
	h.advance(0)
	h.mouse.NotifyMoved(1, 0, 0, 0)
	h.advance(0)

	// The second move updates the position before the delayed event.
	require.Len(t, *calls, 1)
	h.int33(0x03, 0, 0, 0)
	assert.Equal(t, uint16(322), h.m.CX())

	h.settle()
	require.Len(t, *calls, 2)
	assert.Equal(t, uint16(322), (*calls)[1].cx)
}

func TestCallbackNotReentered(t *testing.T) {
	h := newHarness(t, capturedConfig(), 0x12)
	h.settle()

	h.mouse.cbRunning = true
	h.mouse.NotifyMoved(2, 2, 0, 0)
	h.advance(0)
	assert.True(t, h.mouse.PendingEvent())

	h.mouse.cbRunning = false
	h.advance(time.Millisecond)
	h.settle()
	assert.False(t, h.mouse.PendingEvent())
}

func TestHostQueue(t *testing.T) {
	h := newHarness(t, capturedConfig(), 0x12)
	calls := h.installCallback(uint16(EventMoved))
	h.settle()

	for i := 0; i < maxQueuedEvents+100; i++ {
		h.mouse.NotifyMoved(1, 0, 0, 0)
	}
	assert.Len(t, h.mouse.queue, maxQueuedEvents)

	h.advance(0)
	require.Len(t, *calls, 1)
	assert.Greater(t, (*calls)[0].cx, uint16(320+maxQueuedEvents))

	t.Run("MergeBehindButtons", func(t *testing.T) {
		h.mouse.NotifyMoved(1, 0, 0, 0)
		for i := 1; i < maxQueuedEvents; i++ {
			h.mouse.NotifyButton(platform.MouseButtons(i & 1))
		}
		require.Len(t, h.mouse.queue, maxQueuedEvents)

		h.mouse.NotifyMoved(5, 2, 7, 9)
		require.Len(t, h.mouse.queue, maxQueuedEvents)
		first := h.mouse.queue[0]
		assert.Equal(t, float32(6), first.xRel)
		assert.Equal(t, float32(2), first.yRel)
		assert.Equal(t, [2]uint32{7, 9}, [2]uint32{first.xAbs, first.yAbs})

		h.mouse.NotifyButton(platform.MouseRight)
		h.mouse.NotifyWheel(1)
		assert.Len(t, h.mouse.queue, maxQueuedEvents)
		h.advance(0)
	})

	t.Run("NoMotionQueued", func(t *testing.T) {
		for i := 0; i < maxQueuedEvents; i++ {
			h.mouse.NotifyWheel(1)
		}
		h.mouse.NotifyMoved(1, 1, 0, 0)
		require.Len(t, h.mouse.queue, maxQueuedEvents)
		assert.Equal(t, hostWheel, h.mouse.queue[maxQueuedEvents-1].kind)
		h.advance(0)
	})
}

func TestResetRestoresInputType(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 0x12)

	h.mouse.NotifyInputType(true, false)
	h.advance(0)
	assert.True(t, h.mouse.useRelative)
	assert.False(t, h.mouse.rawInput)

	h.m.Reset()
	assert.False(t, h.mouse.useRelative)
	assert.True(t, h.mouse.rawInput)
}
