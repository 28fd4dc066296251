//go:build sdl
// +build sdl

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

package platform

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// SDLConfig controls the capture window.
type SDLConfig struct {
	Title         string
	Width, Height int32
	// Relative grabs the host pointer and reports raw motion only.
	Relative bool
}

// RunSDL opens a window on the main thread and feeds its mouse input to
// h while run executes on another goroutine. It returns when run returns
// or the window is closed.
func RunSDL(cfg SDLConfig, h MouseHandler, run func(quit <-chan struct{}) error) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 640, 400
	}
	if cfg.Title == "" {
		cfg.Title = "VirtualXT Mouse"
	}

	var err error
	sdl.Main(func() {
		err = runSDL(cfg, h, run)
	})
	return err
}

func runSDL(cfg SDLConfig, h MouseHandler, run func(quit <-chan struct{}) error) error {
	var (
		window *sdl.Window
		err    error
	)
	sdl.Do(func() {
		if err = sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
			return
		}
		window, err = sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, cfg.Width, cfg.Height, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	})
	if err != nil {
		return err
	}
	defer sdl.Do(func() {
		window.Destroy()
		sdl.Quit()
	})

	if rh, ok := h.(ResolutionHandler); ok {
		rh.SetResolution(uint32(cfg.Width), uint32(cfg.Height))
	}

	quit := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- run(quit) }()

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			closed := false
			sdl.Do(func() { closed = pollSDL(cfg, h) })
			if closed {
				close(quit)
				return <-done
			}
		}
	}
}

func sdlButtons(state uint32) MouseButtons {
	var buttons MouseButtons
	if state&sdl.ButtonLMask() != 0 {
		buttons |= MouseLeft
	}
	if state&sdl.ButtonRMask() != 0 {
		buttons |= MouseRight
	}
	if state&sdl.ButtonMMask() != 0 {
		buttons |= MouseMiddle
	}
	return buttons
}

func pollSDL(cfg SDLConfig, h MouseHandler) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			sdl.SetRelativeMouseMode(false)
			return true
		case *sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				if rh, ok := h.(ResolutionHandler); ok {
					rh.SetResolution(uint32(ev.Data1), uint32(ev.Data2))
				}
			}
		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYUP && ev.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				sdl.SetRelativeMouseMode(false)
			}
		case *sdl.MouseMotionEvent:
			if cfg.Relative && !sdl.GetRelativeMouseMode() {
				continue
			}
			h.NotifyMoved(float32(ev.XRel), float32(ev.YRel), uint32(ev.X), uint32(ev.Y))
		case *sdl.MouseButtonEvent:
			if cfg.Relative && !sdl.GetRelativeMouseMode() {
				if ev.Type == sdl.MOUSEBUTTONDOWN {
					sdl.SetRelativeMouseMode(true)
				}
				continue
			}
			_, _, state := sdl.GetMouseState()
			h.NotifyButton(sdlButtons(state))
		case *sdl.MouseWheelEvent:
			if ev.Y != 0 {
				h.NotifyWheel(int16(-ev.Y))
			}
		}
	}
	return false
}
