// Package hal is the hardware abstraction boundary between virtio
// transports and the platform. It provides volatile access to memory-mapped
// register windows: every Read32/Write32 is a single, ordered 32-bit access
// that is never elided, cached, batched or reordered by the implementation.
// Hardware observes both the order and the count of register accesses, so
// this is a correctness requirement rather than an optimization.
//
// Byte accesses carry a weaker contract: Go has no 8-bit atomics, and
// widening them to word-sized read-modify-write would change the access
// width the device observes, so Read8/Write8 are single plain byte
// loads/stores without the ordering guarantee of the 32-bit accessors.
// Only device configuration space, which permits byte-granular access and
// is guarded by the config generation register, is accessed this way.
package hal

import (
	"encoding/binary"
	"fmt"
)

// Region is a window of device registers. Offsets are in bytes from the
// start of the window; 32-bit accesses must be 4-byte aligned. Accesses
// outside the window are a caller bug and panic.
type Region interface {
	// Read32 performs one 32-bit little-endian register read.
	Read32(off uint64) uint32

	// Write32 performs one 32-bit little-endian register write.
	Write32(off uint64, v uint32)

	// Read8 performs one byte read. Intended for device configuration
	// space, which permits byte-granular access. See the package
	// comment for the weaker ordering contract of byte accesses.
	Read8(off uint64) byte

	// Write8 performs one byte write, under the same contract as Read8.
	Write8(off uint64, v byte)
}

// View returns a Region whose offsets are relative to base within r. It is
// valid exactly as long as r is.
func View(r Region, base uint64) Region {
	return &view{r: r, base: base}
}

type view struct {
	r    Region
	base uint64
}

func (v *view) Read32(off uint64) uint32     { return v.r.Read32(v.base + off) }
func (v *view) Write32(off uint64, x uint32) { v.r.Write32(v.base+off, x) }
func (v *view) Read8(off uint64) byte        { return v.r.Read8(v.base + off) }
func (v *view) Write8(off uint64, x byte)    { v.r.Write8(v.base+off, x) }

// RAM is a Region backed by ordinary memory. It has no device behind it and
// is used by tests and software device models.
type RAM struct {
	buf []byte
}

// NewRAM returns a zero-filled RAM region of the given size.
func NewRAM(size int) *RAM {
	return &RAM{buf: make([]byte, size)}
}

// Bytes exposes the backing store for direct inspection.
func (r *RAM) Bytes() []byte { return r.buf }

func (r *RAM) Read32(off uint64) uint32 {
	checkAlign(off)
	return binary.LittleEndian.Uint32(r.buf[off:])
}

func (r *RAM) Write32(off uint64, v uint32) {
	checkAlign(off)
	binary.LittleEndian.PutUint32(r.buf[off:], v)
}

func (r *RAM) Read8(off uint64) byte { return r.buf[off] }

func (r *RAM) Write8(off uint64, v byte) { r.buf[off] = v }

func checkAlign(off uint64) {
	if off%4 != 0 {
		panic(fmt.Sprintf("hal: misaligned 32-bit register access at offset %#x", off))
	}
}
