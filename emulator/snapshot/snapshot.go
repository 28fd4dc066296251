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

// Package snapshot stores mouse driver state blocks in files.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/andreas-jonsson/vxtmouse/version"
	"github.com/spf13/afero"
)

var (
	ErrBadMagic     = errors.New("not a mouse driver snapshot")
	ErrIncompatible = errors.New("incompatible snapshot version")
)

var magic = [4]byte{'V', 'X', 'T', 'M'}

const maxStateSize = 0x10000

type header struct {
	Magic   [4]byte
	Version [3]byte
	_       byte
	Size    uint32
}

// Write stores state with a header carrying the current program version.
func Write(w io.Writer, state []byte) error {
	if len(state) > maxStateSize {
		return fmt.Errorf("state block too large: %d bytes", len(state))
	}

	h := header{Magic: magic, Size: uint32(len(state))}
	copy(h.Version[:], version.Current.Slice())
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	_, err := w.Write(state)
	return err
}

// Read returns the state block stored by Write. Snapshots from another
// major or minor version are rejected.
func Read(r io.Reader) ([]byte, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	if h.Magic != magic {
		return nil, ErrBadMagic
	}
	if ver := version.NewFromSlice(h.Version[:]); !ver.Compatible(version.Current) {
		return nil, fmt.Errorf("%w: %s", ErrIncompatible, ver)
	}
	if h.Size > maxStateSize {
		return nil, fmt.Errorf("state block too large: %d bytes", h.Size)
	}

	state := make([]byte, h.Size)
	if _, err := io.ReadFull(r, state); err != nil {
		return nil, fmt.Errorf("could not read state block: %w", err)
	}
	return state, nil
}

// Save writes the snapshot next to path and renames it into place.
func Save(fs afero.Fs, path string, state []byte) error {
	var buf bytes.Buffer
	if err := Write(&buf, state); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}

func Load(fs afero.Fs, path string) ([]byte, error) {
	fp, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return Read(fp)
}
