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

package processor

import (
	"errors"
	"time"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
)

type Stats struct {
	NumInterrupts uint32
	NumCallbacks  uint64
	RX, TX        uint64
}

var (
	ErrInterruptNotHandled = errors.New("interrupt not handled")
	ErrNoCode              = errors.New("no code at address")
	ErrNoMemory            = errors.New("out of conventional memory")
)

// CallbackKind selects how control leaves a native callback.
type CallbackKind int

const (
	RetFar CallbackKind = iota
	RetFar8
	RetFarCli
	Iret
)

func (k CallbackKind) String() string {
	switch k {
	case RetFar:
		return "RETF"
	case RetFar8:
		return "RETF 8"
	case RetFarCli:
		return "CLI; RETF"
	case Iret:
		return "IRET"
	default:
		return "invalid"
	}
}

type Callback func() error

type InterruptHandler interface {
	HandleInterrupt(n int) error
}

type InterruptController interface {
	GetInterrupt() (int, error)
	IRQ(n int)
	SetMask(n int, masked bool)
	EOI(n int)
}

type EventID uint64

// EventScheduler runs one-shot handlers on the emulation thread.
type EventScheduler interface {
	AddEvent(delay time.Duration, fn func()) EventID
	RemoveEvent(id EventID)
}

type Processor interface {
	InByte(port uint16) byte
	OutByte(port uint16, data byte)

	ReadByte(addr memory.Pointer) byte
	WriteByte(addr memory.Pointer, data byte)
	ReadWord(addr memory.Pointer) uint16
	WriteWord(addr memory.Pointer, data uint16)

	Push16(v uint16)
	Pop16() uint16

	GetRegisters() *Registers
	GetMappedMemoryDevice(addr memory.Pointer) memory.Memory
	GetMappedIODevice(port uint16) memory.IO

	InstallMemoryDevice(device memory.Memory, from, to memory.Pointer) error
	InstallIODevice(device memory.IO, from, to uint16) error

	GetInterruptController() InterruptController
	GetScheduler() EventScheduler
	InstallInterruptHandler(num int, handler InterruptHandler) error

	InstallCallback(kind CallbackKind, cb Callback) (memory.Address, error)
	InstallCallbackAt(addr memory.Address, kind CallbackKind, cb Callback) error
	AllocateMemory(paragraphs uint16) (uint16, error)
}
