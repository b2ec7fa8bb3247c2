//go:build linux

package hal

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MappedRegion is a Region backed by a shared mapping of a physical MMIO
// window, typically from /dev/mem or a UIO device node. 32-bit accesses go
// through sync/atomic so the compiler can neither elide nor reorder them.
type MappedRegion struct {
	mem []byte
}

// MapResource maps size bytes of the physical resource at base from the
// given device node (e.g. /dev/mem). base must be page aligned.
//
// The returned region is the caller's exclusive handle to that window: it
// must not be aliased by another owner and must stay mapped for the
// lifetime of any transport constructed on it. Close releases the mapping
// and invalidates every handle derived from the region.
func MapResource(path string, base, size uint64) (*MappedRegion, error) {
	if base%uint64(unix.Getpagesize()) != 0 {
		return nil, fmt.Errorf("hal: base address %#x is not page aligned", base)
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("hal: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	mem, err := unix.Mmap(fd, int64(base), int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("hal: mmap %s at %#x: %w", path, base, err)
	}
	return &MappedRegion{mem: mem}, nil
}

// Close unmaps the region.
func (r *MappedRegion) Close() error {
	if r.mem == nil {
		return nil
	}
	mem := r.mem
	r.mem = nil
	return unix.Munmap(mem)
}

// Size returns the size of the mapped window in bytes.
func (r *MappedRegion) Size() uint64 { return uint64(len(r.mem)) }

func (r *MappedRegion) Read32(off uint64) uint32 {
	checkAlign(off)
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&r.mem[off])))
}

func (r *MappedRegion) Write32(off uint64, v uint32) {
	checkAlign(off)
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&r.mem[off])), v)
}

// Read8 is a single plain byte load; byte accesses are not ordered
// against surrounding 32-bit accesses (see the package comment).
func (r *MappedRegion) Read8(off uint64) byte { return r.mem[off] }

// Write8 is a single plain byte store, under the same contract as Read8.
func (r *MappedRegion) Write8(off uint64, v byte) { r.mem[off] = v }
