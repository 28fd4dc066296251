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
	"errors"
	"log"
	"math"

	"github.com/andreas-jonsson/vxtmouse/emulator/memory"
)

var (
	ErrAlreadyInitialized = errors.New("driver state already initialized")
	ErrNoMemory           = errors.New("could not allocate driver state")
)

const (
	NumButtons = 3
	CursorSize = 16
)

// Axis selects the horizontal or vertical half of a coordinate pair.
type Axis int

const (
	X Axis = iota
	Y
)

type CursorType byte

const (
	CursorSoftware CursorType = iota
	CursorHardware
	CursorText
)

// Byte offsets inside the guest-resident state block. The layout is
// visible to guest code through functions 0x15-0x17 and the Windows
// instance descriptor, so fields are only ever appended.
const (
	offWin386Running       = 0
	offWin386DrawingCursor = 1

	offWin386Startup       = 2
	offStartupVersionMinor = 2
	offStartupVersionMajor = 3
	offStartupNextInfo     = 4
	offStartupDeviceDriver = 8
	offStartupDriverData   = 12
	offStartupInstanceData = 16
	offWin386Instances     = 20
	win386InstanceSize     = 6
	offWin386InstancesEnd  = 32

	offMickeysPerPixel = 32
	offPixelsPerMickey = 40
	offSensitivityCoef = 48
	offAbsolute        = 56
	offMickeyCounter   = 64

	offTimesPressed   = 72
	offTimesReleased  = 78
	offLastPressed    = 84
	offLastReleased   = 96
	offLastWheelMoved = 108

	offEnabled              = 112
	offWheelAPI             = 113
	offDoubleSpeedThreshold = 114
	offGranularity          = 116
	offUpdateRegion         = 120
	offLanguage             = 128
	offBiosScreenMode       = 130
	offSensitivity          = 131
	offUnknown01            = 133
	offPosRange             = 134

	offPage              = 142
	offInhibitDraw       = 143
	offHidden            = 144
	offOldHidden         = 146
	offClip              = 148
	offHot               = 152
	offCursorType        = 156
	offBackgroundEnabled = 157
	offBackground        = 158
	offBackgroundData    = 162

	offTextMaskAnd        = 418
	offTextMaskXor        = 420
	offUserScreenMask     = 422
	offUserCursorMask     = 423
	offUserScreenMaskData = 424
	offUserCursorMaskData = 456

	offCallbackReturnSeg = 488
	offCallbackReturnOff = 490
	offUserCallbackSeg   = 492
	offUserCallbackOff   = 494
	offUserCallbackMask  = 496

	offWheelCounter = 498

	// StateSize is the byte length reported by function 0x15.
	StateSize = 500
)

const defaultUnknown01 = 50

// Allocator hands out paragraphs of guest memory.
type Allocator interface {
	AllocateMemory(paragraphs uint16) (uint16, error)
}

// State is the guest-memory-backed driver state block. All access goes
// through fixed offsets so the block can be copied byte for byte by the
// guest.
type State struct {
	mem memory.Memory
	seg uint16
}

func NewState(mem memory.Memory) *State {
	return &State{mem: mem}
}

// Initialize allocates the block and applies the defaults.
func (s *State) Initialize(alloc Allocator) error {
	if s.seg != 0 {
		return ErrAlreadyInitialized
	}

	seg, err := alloc.AllocateMemory((StateSize + 15) / 16)
	if err != nil || seg == 0 {
		return ErrNoMemory
	}
	s.seg = seg

	for i := 0; i < StateSize; i++ {
		s.w8(i, 0)
	}
	s.SetUnknown01(defaultUnknown01)
	s.SetCursorType(CursorSoftware)
	return nil
}

func (s *State) Initialized() bool {
	return s != nil && s.seg != 0
}

func (s *State) Segment() uint16 {
	return s.seg
}

// Address returns the far address of a byte inside the block.
func (s *State) Address(offset int) memory.Address {
	return memory.NewAddress(s.seg, uint16(offset))
}

func (s *State) ptr(offset int) memory.Pointer {
	return memory.NewPointer(s.seg, uint16(offset))
}

func (s *State) r8(offset int) byte {
	return s.mem.ReadByte(s.ptr(offset))
}

func (s *State) w8(offset int, v byte) {
	s.mem.WriteByte(s.ptr(offset), v)
}

func (s *State) r16(offset int) uint16 {
	return memory.ReadWord(s.mem, s.ptr(offset))
}

func (s *State) w16(offset int, v uint16) {
	memory.WriteWord(s.mem, s.ptr(offset), v)
}

func (s *State) r32(offset int) uint32 {
	return memory.ReadDWord(s.mem, s.ptr(offset))
}

func (s *State) w32(offset int, v uint32) {
	memory.WriteDWord(s.mem, s.ptr(offset), v)
}

func (s *State) rf(offset int) float32 {
	return math.Float32frombits(s.r32(offset))
}

func (s *State) wf(offset int, v float32) {
	s.w32(offset, math.Float32bits(v))
}

func (s *State) rb(offset int) bool {
	return s.r8(offset) != 0
}

func (s *State) wb(offset int, v bool) {
	if v {
		s.w8(offset, 1)
	} else {
		s.w8(offset, 0)
	}
}

func checkIndex(idx, size int) {
	if idx < 0 || idx >= size {
		log.Panicf("driver state index out of range: %d (size %d)", idx, size)
	}
}

// Bytes copies the raw block.
func (s *State) Bytes() []byte {
	buf := make([]byte, StateSize)
	memory.ReadBlock(s.mem, s.ptr(0), buf)
	return buf
}

// Load overwrites the raw block.
func (s *State) Load(data []byte) {
	if len(data) > StateSize {
		data = data[:StateSize]
	}
	memory.WriteBlock(s.mem, s.ptr(0), data)
}

func (s *State) ClearWindowsStruct() {
	for i := offWin386Startup; i < offWin386InstancesEnd; i++ {
		s.w8(i, 0)
	}
}

// SetupWindowsStruct fills the Windows 386 startup structure, linking
// it to the previous one, and returns its far address.
func (s *State) SetupWindowsStruct(link memory.Address) memory.Address {
	s.w8(offStartupVersionMinor, 0)
	s.w8(offStartupVersionMajor, 3)
	s.w32(offStartupNextInfo, uint32(link))
	s.w32(offStartupDeviceDriver, 0)
	s.w32(offStartupDriverData, uint32(s.Address(offWin386Instances)))
	s.w32(offStartupInstanceData, 0)

	s.w32(offWin386Instances, uint32(s.Address(0)))
	s.w16(offWin386Instances+4, StateSize)
	s.w32(offWin386Instances+win386InstanceSize, 0)
	s.w16(offWin386Instances+win386InstanceSize+4, 0)

	return s.Address(offWin386Startup)
}

func (s *State) Win386Running() bool           { return s.rb(offWin386Running) }
func (s *State) SetWin386Running(v bool)       { s.wb(offWin386Running, v) }
func (s *State) Win386DrawingCursor() bool     { return s.rb(offWin386DrawingCursor) }
func (s *State) SetWin386DrawingCursor(v bool) { s.wb(offWin386DrawingCursor, v) }

func (s *State) MickeysPerPixel(a Axis) float32 { return s.rf(offMickeysPerPixel + 4*int(a)) }
func (s *State) SetMickeysPerPixel(a Axis, v float32) {
	s.wf(offMickeysPerPixel+4*int(a), v)
}

func (s *State) PixelsPerMickey(a Axis) float32 { return s.rf(offPixelsPerMickey + 4*int(a)) }
func (s *State) SetPixelsPerMickey(a Axis, v float32) {
	s.wf(offPixelsPerMickey+4*int(a), v)
}

func (s *State) SensitivityCoeff(a Axis) float32 { return s.rf(offSensitivityCoef + 4*int(a)) }
func (s *State) SetSensitivityCoeff(a Axis, v float32) {
	s.wf(offSensitivityCoef+4*int(a), v)
}

func (s *State) Absolute(a Axis) float32       { return s.rf(offAbsolute + 4*int(a)) }
func (s *State) SetAbsolute(a Axis, v float32) { s.wf(offAbsolute+4*int(a), v) }
func (s *State) MickeyCounter(a Axis) float32  { return s.rf(offMickeyCounter + 4*int(a)) }
func (s *State) SetMickeyCounter(a Axis, v float32) {
	s.wf(offMickeyCounter+4*int(a), v)
}

func (s *State) TimesPressed(idx int) uint16 {
	checkIndex(idx, NumButtons)
	return s.r16(offTimesPressed + 2*idx)
}

func (s *State) SetTimesPressed(idx int, v uint16) {
	checkIndex(idx, NumButtons)
	s.w16(offTimesPressed+2*idx, v)
}

func (s *State) TimesReleased(idx int) uint16 {
	checkIndex(idx, NumButtons)
	return s.r16(offTimesReleased + 2*idx)
}

func (s *State) SetTimesReleased(idx int, v uint16) {
	checkIndex(idx, NumButtons)
	s.w16(offTimesReleased+2*idx, v)
}

func (s *State) LastPressed(a Axis, idx int) uint16 {
	checkIndex(idx, NumButtons)
	return s.r16(offLastPressed + 2*NumButtons*int(a) + 2*idx)
}

func (s *State) SetLastPressed(a Axis, idx int, v uint16) {
	checkIndex(idx, NumButtons)
	s.w16(offLastPressed+2*NumButtons*int(a)+2*idx, v)
}

func (s *State) LastReleased(a Axis, idx int) uint16 {
	checkIndex(idx, NumButtons)
	return s.r16(offLastReleased + 2*NumButtons*int(a) + 2*idx)
}

func (s *State) SetLastReleased(a Axis, idx int, v uint16) {
	checkIndex(idx, NumButtons)
	s.w16(offLastReleased+2*NumButtons*int(a)+2*idx, v)
}

func (s *State) LastWheelMoved(a Axis) uint16 { return s.r16(offLastWheelMoved + 2*int(a)) }
func (s *State) SetLastWheelMoved(a Axis, v uint16) {
	s.w16(offLastWheelMoved+2*int(a), v)
}

func (s *State) Enabled() bool      { return s.rb(offEnabled) }
func (s *State) SetEnabled(v bool)  { s.wb(offEnabled, v) }
func (s *State) WheelAPI() bool     { return s.rb(offWheelAPI) }
func (s *State) SetWheelAPI(v bool) { s.wb(offWheelAPI, v) }

func (s *State) DoubleSpeedThreshold() uint16     { return s.r16(offDoubleSpeedThreshold) }
func (s *State) SetDoubleSpeedThreshold(v uint16) { s.w16(offDoubleSpeedThreshold, v) }

func (s *State) Granularity(a Axis) uint16       { return s.r16(offGranularity + 2*int(a)) }
func (s *State) SetGranularity(a Axis, v uint16) { s.w16(offGranularity+2*int(a), v) }

// UpdateRegion returns the corners of the exclusion rectangle where
// index 0 is the top-left and 1 the bottom-right corner.
func (s *State) UpdateRegion(a Axis, corner int) int16 {
	checkIndex(corner, 2)
	return int16(s.r16(offUpdateRegion + 4*corner + 2*int(a)))
}

func (s *State) SetUpdateRegion(a Axis, corner int, v int16) {
	checkIndex(corner, 2)
	s.w16(offUpdateRegion+4*corner+2*int(a), uint16(v))
}

func (s *State) Language() uint16     { return s.r16(offLanguage) }
func (s *State) SetLanguage(v uint16) { s.w16(offLanguage, v) }

func (s *State) BiosScreenMode() byte     { return s.r8(offBiosScreenMode) }
func (s *State) SetBiosScreenMode(v byte) { s.w8(offBiosScreenMode, v) }

func (s *State) Sensitivity(a Axis) byte       { return s.r8(offSensitivity + int(a)) }
func (s *State) SetSensitivity(a Axis, v byte) { s.w8(offSensitivity+int(a), v) }
func (s *State) Unknown01() byte               { return s.r8(offUnknown01) }
func (s *State) SetUnknown01(v byte)           { s.w8(offUnknown01, v) }

func (s *State) MinPos(a Axis) int16       { return int16(s.r16(offPosRange + 4*int(a))) }
func (s *State) SetMinPos(a Axis, v int16) { s.w16(offPosRange+4*int(a), uint16(v)) }
func (s *State) MaxPos(a Axis) int16       { return int16(s.r16(offPosRange + 4*int(a) + 2)) }
func (s *State) SetMaxPos(a Axis, v int16) { s.w16(offPosRange+4*int(a)+2, uint16(v)) }

func (s *State) Page() byte              { return s.r8(offPage) }
func (s *State) SetPage(v byte)          { s.w8(offPage, v) }
func (s *State) InhibitDraw() bool       { return s.rb(offInhibitDraw) }
func (s *State) SetInhibitDraw(v bool)   { s.wb(offInhibitDraw, v) }
func (s *State) Hidden() uint16          { return s.r16(offHidden) }
func (s *State) SetHidden(v uint16)      { s.w16(offHidden, v) }
func (s *State) OldHidden() uint16       { return s.r16(offOldHidden) }
func (s *State) SetOldHidden(v uint16)   { s.w16(offOldHidden, v) }
func (s *State) Clip(a Axis) int16       { return int16(s.r16(offClip + 2*int(a))) }
func (s *State) SetClip(a Axis, v int16) { s.w16(offClip+2*int(a), uint16(v)) }
func (s *State) Hot(a Axis) int16        { return int16(s.r16(offHot + 2*int(a))) }
func (s *State) SetHot(a Axis, v int16)  { s.w16(offHot+2*int(a), uint16(v)) }

func (s *State) CursorType() CursorType     { return CursorType(s.r8(offCursorType)) }
func (s *State) SetCursorType(v CursorType) { s.w8(offCursorType, byte(v)) }

func (s *State) BackgroundEnabled() bool     { return s.rb(offBackgroundEnabled) }
func (s *State) SetBackgroundEnabled(v bool) { s.wb(offBackgroundEnabled, v) }

func (s *State) Background(a Axis) uint16       { return s.r16(offBackground + 2*int(a)) }
func (s *State) SetBackground(a Axis, v uint16) { s.w16(offBackground+2*int(a), v) }

func (s *State) BackgroundData(idx int) byte {
	checkIndex(idx, CursorSize*CursorSize)
	return s.r8(offBackgroundData + idx)
}

func (s *State) SetBackgroundData(idx int, v byte) {
	checkIndex(idx, CursorSize*CursorSize)
	s.w8(offBackgroundData+idx, v)
}

func (s *State) TextMaskAnd() uint16     { return s.r16(offTextMaskAnd) }
func (s *State) SetTextMaskAnd(v uint16) { s.w16(offTextMaskAnd, v) }
func (s *State) TextMaskXor() uint16     { return s.r16(offTextMaskXor) }
func (s *State) SetTextMaskXor(v uint16) { s.w16(offTextMaskXor, v) }

func (s *State) UserScreenMask() bool     { return s.rb(offUserScreenMask) }
func (s *State) SetUserScreenMask(v bool) { s.wb(offUserScreenMask, v) }
func (s *State) UserCursorMask() bool     { return s.rb(offUserCursorMask) }
func (s *State) SetUserCursorMask(v bool) { s.wb(offUserCursorMask, v) }

func (s *State) readMask(offset int) (m [CursorSize]uint16) {
	for i := range m {
		m[i] = s.r16(offset + 2*i)
	}
	return
}

func (s *State) writeMask(offset int, m [CursorSize]uint16) {
	for i, v := range m {
		s.w16(offset+2*i, v)
	}
}

func (s *State) UserScreenMaskData() [CursorSize]uint16 { return s.readMask(offUserScreenMaskData) }
func (s *State) SetUserScreenMaskData(m [CursorSize]uint16) {
	s.writeMask(offUserScreenMaskData, m)
}

func (s *State) UserCursorMaskData() [CursorSize]uint16 { return s.readMask(offUserCursorMaskData) }
func (s *State) SetUserCursorMaskData(m [CursorSize]uint16) {
	s.writeMask(offUserCursorMaskData, m)
}

func (s *State) CallbackReturn() memory.Address {
	return memory.NewAddress(s.r16(offCallbackReturnSeg), s.r16(offCallbackReturnOff))
}

func (s *State) SetCallbackReturn(addr memory.Address) {
	s.w16(offCallbackReturnSeg, addr.Segment())
	s.w16(offCallbackReturnOff, addr.Offset())
}

func (s *State) UserCallback() memory.Address {
	return memory.NewAddress(s.r16(offUserCallbackSeg), s.r16(offUserCallbackOff))
}

func (s *State) SetUserCallback(addr memory.Address) {
	s.w16(offUserCallbackSeg, addr.Segment())
	s.w16(offUserCallbackOff, addr.Offset())
}

func (s *State) UserCallbackMask() uint16     { return s.r16(offUserCallbackMask) }
func (s *State) SetUserCallbackMask(v uint16) { s.w16(offUserCallbackMask, v) }

func (s *State) WheelCounter() int8     { return int8(s.r8(offWheelCounter)) }
func (s *State) SetWheelCounter(v int8) { s.w8(offWheelCounter, byte(v)) }
