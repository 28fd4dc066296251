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

// Package machine implements a high level real-mode machine. It has no
// instruction decoder; guest entry points are native callbacks bound to
// far addresses, and control flow between them follows the real-mode
// stack conventions (far returns, interrupt frames).
package machine

import (
	"errors"
	"fmt"
	"log"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral"
	"github.com/andreas-jonsson/vxtmouse/emulator/processor"
)

const MaxPeripherals = 32

const (
	callbackSegment = 0xF000
	callbackOffset  = 0x1000
	callbackSize    = 0x10
	maxCallbacks    = 0x100

	// Default private memory area handed out by AllocateMemory.
	PrivateSegment    = 0xC800
	PrivateParagraphs = 0x0800

	stackSegment = 0x9000
	stackTop     = 0xFFFE

	maxChainLength = 64
)

// HostReturn is the far address that hands control back to the host.
var HostReturn = memory.NewAddress(callbackSegment, callbackOffset-callbackSize)

var ErrChainTooLong = errors.New("callback chain too long")

type callback struct {
	kind processor.CallbackKind
	fn   processor.Callback
}

type Machine struct {
	processor.Registers

	stats        processor.Stats
	peripherals  []peripheral.Peripheral
	pic          processor.InterruptController
	scheduler    processor.EventScheduler
	interceptors [0x100]processor.InterruptHandler

	callbacks    map[memory.Pointer]callback
	numCallbacks int
	freeSegment  uint16
	privateLimit uint32
	running      bool

	iomap         [0x10000]byte
	ioPeripherals [MaxPeripherals]memory.IO

	mmap           [0x100000]byte
	memPeripherals [MaxPeripherals]memory.Memory
}

func NewMachine(peripherals []peripheral.Peripheral) *Machine {
	p := &Machine{
		peripherals: peripherals,
		callbacks:   make(map[memory.Pointer]callback),
	}
	p.SetPrivateMemory(PrivateSegment, PrivateParagraphs)

	dummyIO := &memory.DummyIO{}
	for i := range p.ioPeripherals[:] {
		p.ioPeripherals[i] = dummyIO
	}

	dummyMem := &memory.DummyMemory{}
	for i := range p.memPeripherals[:] {
		p.memPeripherals[i] = dummyMem
	}

	for i := 1; i <= len(peripherals); i++ {
		if dev, ok := peripherals[i-1].(memory.IO); ok {
			p.ioPeripherals[i] = dev
		}
		if dev, ok := peripherals[i-1].(memory.Memory); ok {
			p.memPeripherals[i] = dev
		}
	}

	p.installPeripherals()
	return p
}

// SetPrivateMemory resets the area used by AllocateMemory.
func (p *Machine) SetPrivateMemory(seg, paragraphs uint16) {
	p.freeSegment = seg
	p.privateLimit = uint32(seg) + uint32(paragraphs)
}

func (p *Machine) installPeripherals() {
	for _, d := range p.peripherals {
		if pic, ok := d.(processor.InterruptController); ok && p.pic == nil {
			p.pic = pic
		}
		if s, ok := d.(processor.EventScheduler); ok && p.scheduler == nil {
			p.scheduler = s
		}
	}
	if p.pic == nil {
		log.Print("No interrupt controller detected!")
	}

	for _, d := range p.peripherals {
		if err := d.Install(p); err != nil {
			log.Printf("Failed to install peripheral \"%s\": %v", d.Name(), err)
		}
	}
}

func (p *Machine) Close() {
	for _, d := range p.peripherals {
		if cd, b := d.(peripheral.PeripheralCloser); b {
			if err := cd.Close(); err != nil {
				log.Print("Failed to close peripheral: ", err)
			}
		}
	}
}

func (p *Machine) GetStats() processor.Stats {
	s := p.stats
	p.stats = processor.Stats{}
	return s
}

func (p *Machine) GetInterruptController() processor.InterruptController {
	return p.pic
}

func (p *Machine) GetScheduler() processor.EventScheduler {
	return p.scheduler
}

func (p *Machine) Reset() {
	p.Registers.Reset()
	p.SetSS(stackSegment)
	p.SetSP(stackTop)
	p.SetCS(HostReturn.Segment())
	p.IP = HostReturn.Offset()
	p.Flags.Set(processor.InterruptEnable)

	for _, d := range p.peripherals {
		d.Reset()
	}
}

func (p *Machine) GetMappedMemoryDevice(addr memory.Pointer) memory.Memory {
	return p.memPeripherals[p.mmap[addr]]
}

func (p *Machine) GetMappedIODevice(port uint16) memory.IO {
	return p.ioPeripherals[p.iomap[port]]
}

func (p *Machine) GetRegisters() *processor.Registers {
	return &p.Registers
}

func (p *Machine) InByte(port uint16) byte {
	p.stats.RX++
	return p.GetMappedIODevice(port).In(port)
}

func (p *Machine) OutByte(port uint16, data byte) {
	p.stats.TX++
	p.GetMappedIODevice(port).Out(port, data)
}

func (p *Machine) ReadByte(addr memory.Pointer) byte {
	p.stats.RX++
	addr &= 0xFFFFF
	return p.GetMappedMemoryDevice(addr).ReadByte(addr)
}

func (p *Machine) WriteByte(addr memory.Pointer, data byte) {
	p.stats.TX++
	addr &= 0xFFFFF
	p.GetMappedMemoryDevice(addr).WriteByte(addr, data)
}

func (p *Machine) ReadWord(addr memory.Pointer) uint16 {
	return memory.ReadWord(p, addr)
}

func (p *Machine) WriteWord(addr memory.Pointer, data uint16) {
	memory.WriteWord(p, addr, data)
}

func (p *Machine) stackTop() memory.Pointer {
	return memory.NewPointer(p.SS(), p.SP())
}

func (p *Machine) Push16(v uint16) {
	p.SetSP(p.SP() - 2)
	p.WriteWord(p.stackTop(), v)
}

func (p *Machine) Pop16() uint16 {
	v := p.ReadWord(p.stackTop())
	p.SetSP(p.SP() + 2)
	return v
}

func (p *Machine) InstallInterruptHandler(num int, handler processor.InterruptHandler) error {
	if num < 0 || num > 0xFF {
		return errors.New("invalid interrupt number")
	}
	p.interceptors[num] = handler
	return nil
}

func (p *Machine) InstallMemoryDevice(device memory.Memory, from, to memory.Pointer) error {
	for i, d := range p.memPeripherals[:] {
		if d == device {
			for from <= to && from < memory.Pointer(len(p.mmap)) {
				p.mmap[from] = byte(i)
				from++
			}
			return nil
		}
	}
	return errors.New("could not find peripheral")
}

func (p *Machine) InstallIODevice(device memory.IO, from, to uint16) error {
	for i, d := range p.ioPeripherals[:] {
		if d == device {
			for port := uint32(from); port <= uint32(to); port++ {
				p.iomap[port] = byte(i)
			}
			return nil
		}
	}
	return errors.New("could not find peripheral")
}

// InstallCallback binds cb to the next free slot in the callback segment.
func (p *Machine) InstallCallback(kind processor.CallbackKind, cb processor.Callback) (memory.Address, error) {
	if p.numCallbacks >= maxCallbacks {
		return 0, errors.New("no free callback slots")
	}
	addr := memory.NewAddress(callbackSegment, uint16(callbackOffset+p.numCallbacks*callbackSize))
	p.numCallbacks++
	return addr, p.InstallCallbackAt(addr, kind, cb)
}

func (p *Machine) InstallCallbackAt(addr memory.Address, kind processor.CallbackKind, cb processor.Callback) error {
	ptr := addr.Pointer()
	if ptr == HostReturn.Pointer() {
		return fmt.Errorf("address %v is reserved", addr)
	}
	if _, ok := p.callbacks[ptr]; ok {
		log.Panic("callback already installed at ", addr)
	}
	p.callbacks[ptr] = callback{kind: kind, fn: cb}
	return nil
}

// AllocateMemory hands out paragraphs from the private memory area.
func (p *Machine) AllocateMemory(paragraphs uint16) (uint16, error) {
	if paragraphs == 0 || uint32(p.freeSegment)+uint32(paragraphs) > p.privateLimit {
		return 0, processor.ErrNoMemory
	}
	seg := p.freeSegment
	p.freeSegment += paragraphs
	return seg, nil
}

// Interrupt raises software interrupt n from the host context.
func (p *Machine) Interrupt(n int) error {
	p.stats.NumInterrupts++

	if handler := p.interceptors[n]; handler != nil {
		if err := handler.HandleInterrupt(n); err == nil {
			return nil
		} else if err != processor.ErrInterruptNotHandled {
			return err
		}
	}

	p.Push16(p.Flags.Load())
	p.Push16(p.CS())
	p.Push16(p.IP)

	offset := memory.Pointer(n * 4)
	p.SetCS(p.ReadWord(offset + 2))
	p.IP = p.ReadWord(offset)
	p.Flags.Clear(processor.InterruptEnable | processor.Trap)
	return p.execute()
}

// CallFar performs a far call into guest space and runs until it returns.
func (p *Machine) CallFar(addr memory.Address) error {
	p.Push16(p.CS())
	p.Push16(p.IP)
	p.SetCS(addr.Segment())
	p.IP = addr.Offset()
	return p.execute()
}

func (p *Machine) execute() error {
	if p.running {
		log.Panic("reentrant guest execution")
	}
	p.running = true
	defer func() { p.running = false }()

	for n := 0; ; n++ {
		addr := memory.NewAddress(p.CS(), p.IP)
		if addr.Pointer() == HostReturn.Pointer() {
			return nil
		}
		if n >= maxChainLength {
			return ErrChainTooLong
		}

		cb, ok := p.callbacks[addr.Pointer()]
		if !ok {
			return fmt.Errorf("%w: %v", processor.ErrNoCode, addr)
		}

		p.stats.NumCallbacks++
		if err := cb.fn(); err != nil {
			return err
		}
		p.leave(cb.kind)
	}
}

func (p *Machine) leave(kind processor.CallbackKind) {
	switch kind {
	case processor.RetFarCli:
		p.Flags.Clear(processor.InterruptEnable)
		fallthrough
	case processor.RetFar:
		p.IP = p.Pop16()
		p.SetCS(p.Pop16())
	case processor.RetFar8:
		p.IP = p.Pop16()
		p.SetCS(p.Pop16())
		p.SetSP(p.SP() + 8)
	case processor.Iret:
		p.IP = p.Pop16()
		p.SetCS(p.Pop16())
		p.Flags.Store(p.Pop16())
	default:
		log.Panic("invalid callback kind: ", kind)
	}
}

// Idle reports whether the host owns the instruction pointer.
func (p *Machine) Idle() bool {
	return !p.running && memory.NewAddress(p.CS(), p.IP).Pointer() == HostReturn.Pointer()
}

// Step advances all peripherals and dispatches one pending hardware
// interrupt if the machine is idle with interrupts enabled.
func (p *Machine) Step(cycles int) error {
	for _, d := range p.peripherals {
		if err := d.Step(cycles); err != nil {
			return err
		}
	}

	if p.pic == nil || !p.Idle() || !p.Flags.GetBool(processor.InterruptEnable) {
		return nil
	}
	if n, err := p.pic.GetInterrupt(); err == nil {
		return p.Interrupt(n)
	}
	return nil
}
