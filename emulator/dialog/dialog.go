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

// Package dialog reports fatal problems to the user and carries the
// shutdown and restart requests between the UI and the emulation loop.
package dialog

import (
	"os/exec"
	"runtime"
	"sync/atomic"
)

var quitFlag, restartFlag int32

func RequestShutdown() {
	atomic.StoreInt32(&quitFlag, 1)
}

func ShutdownRequested() bool {
	return atomic.LoadInt32(&quitFlag) != 0
}

func RequestRestart() {
	atomic.StoreInt32(&restartFlag, 1)
}

// RestartRequested consumes a pending restart request.
func RestartRequested() bool {
	return atomic.SwapInt32(&restartFlag, 0) != 0
}

func OpenURL(url string) error {
	var (
		cmd  string
		args []string
	)

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	return exec.Command(cmd, append(args, url)...).Start()
}
