// Package fwcfg implements the firmware configuration side channel: named
// byte blobs guest firmware enumerates through a QEMU-compatible file
// directory and reads by selector.
package fwcfg

import (
	"encoding/binary"
	"sort"
	"sync"
)

// FileFirst is the first selector assigned to named files; lower selectors
// are reserved for fixed items.
const FileFirst uint16 = 0x0020

// maxFileName is the file directory's fixed name field size, including the
// NUL terminator.
const maxFileName = 56

// File is a named blob exposed to guest firmware.
type File struct {
	Name     string
	Selector uint16
	Data     []byte
}

// Table holds the registered files and hands out selectors.
type Table struct {
	mu           sync.Mutex
	files        map[uint16]*File
	filesByName  map[string]*File
	nextSelector uint16
}

// NewTable creates an empty firmware configuration table.
func NewTable() *Table {
	return &Table{
		files:        make(map[uint16]*File),
		filesByName:  make(map[string]*File),
		nextSelector: FileFirst,
	}
}

// AddFile registers data under name and returns the assigned selector.
// Registering an existing name replaces its data and keeps its selector.
// The table takes ownership of data; callers must not mutate it afterwards.
func (t *Table) AddFile(name string, data []byte) uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.filesByName[name]; ok {
		existing.Data = data
		return existing.Selector
	}

	f := &File{
		Name:     name,
		Selector: t.nextSelector,
		Data:     data,
	}
	t.nextSelector++
	t.files[f.Selector] = f
	t.filesByName[name] = f
	return f.Selector
}

// File returns the file registered under name, or nil.
func (t *Table) File(name string) *File {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filesByName[name]
}

// Bytes returns the data registered under name, or nil.
func (t *Table) Bytes(name string) []byte {
	if f := t.File(name); f != nil {
		return f.Data
	}
	return nil
}

// Len returns the number of registered files.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}

// FileDir builds the big-endian file directory blob firmware walks to map
// names to selectors: a uint32 count followed by 64-byte entries of
// (size uint32, selector uint16, reserved uint16, name [56]byte).
func (t *Table) FileDir() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	selectors := make([]uint16, 0, len(t.files))
	for sel := range t.files {
		selectors = append(selectors, sel)
	}
	sort.Slice(selectors, func(i, j int) bool { return selectors[i] < selectors[j] })

	dir := make([]byte, 4+len(selectors)*64)
	binary.BigEndian.PutUint32(dir[0:4], uint32(len(selectors)))

	offset := 4
	for _, sel := range selectors {
		f := t.files[sel]
		binary.BigEndian.PutUint32(dir[offset:], uint32(len(f.Data)))
		binary.BigEndian.PutUint16(dir[offset+4:], f.Selector)
		name := []byte(f.Name)
		if len(name) > maxFileName-1 {
			name = name[:maxFileName-1]
		}
		copy(dir[offset+8:offset+64], name)
		offset += 64
	}
	return dir
}
