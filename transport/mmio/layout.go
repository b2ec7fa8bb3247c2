package mmio

import (
	"fmt"
	"math"
)

const (
	// PageSize is the guest page size assumed by the legacy addressing
	// scheme. Legacy queue memory is located by page number, so the
	// descriptor table must start on a PageSize boundary.
	PageSize = 0x1000

	// descriptorSize is the size of one virtq descriptor table entry
	// (struct virtq_desc: 8-byte address, 4-byte length, two 2-byte
	// fields).
	descriptorSize = 16
)

func alignUp(n uint64) uint64 {
	return (n + PageSize - 1) &^ (PageSize - 1)
}

// LegacyLayout returns the byte offsets of the driver area and the device
// area from the start of the descriptor table under the legacy addressing
// scheme, for a queue of the given size. The driver area follows the
// descriptor table directly; the device area starts on the next page
// boundary after the driver area (which ends with the 3 trailing 16-bit
// fields: flags, idx and used_event).
func LegacyLayout(size uint32) (driverOffset, deviceOffset uint64) {
	driverOffset = descriptorSize * uint64(size)
	deviceOffset = alignUp(driverOffset + 2*(uint64(size)+3))
	return driverOffset, deviceOffset
}

// QueueSet programs the size and ring addresses of a queue using the
// addressing scheme of the transport's version.
//
// Legacy: the three addresses must already satisfy the legacy layout
// relations (driverAddr = descAddr + 16*size, deviceAddr = descAddr +
// alignUp(16*size + 2*(size+3))) and descAddr must be page aligned with a
// page number that fits the 32-bit register, because the device learns
// only that single page number. Violations mean the
// caller's queue allocator is broken and programming the device would
// corrupt it, so they panic instead of returning an error.
//
// Modern: the three addresses are written independently as low/high word
// pairs, with no alignment relation between them, and the queue is then
// marked ready.
func (t *Transport) QueueSet(queue, size uint32, descAddr, driverAddr, deviceAddr uint64) {
	switch t.version {
	case Legacy:
		driverOffset, deviceOffset := LegacyLayout(size)
		if driverAddr-descAddr != driverOffset {
			panic(fmt.Sprintf("virtio-mmio: legacy queue %d driver area at %#x, want desc %#x + %#x",
				queue, driverAddr, descAddr, driverOffset))
		}
		if deviceAddr-descAddr != deviceOffset {
			panic(fmt.Sprintf("virtio-mmio: legacy queue %d device area at %#x, want desc %#x + %#x",
				queue, deviceAddr, descAddr, deviceOffset))
		}
		pfn := descAddr / PageSize
		if pfn*PageSize != descAddr {
			panic(fmt.Sprintf("virtio-mmio: legacy queue %d descriptor table %#x is not page aligned", queue, descAddr))
		}
		// The page number register is 32 bits wide; a table this high up
		// cannot be represented and truncating would program page 0,
		// which the device treats as illegal.
		if pfn > math.MaxUint32 {
			panic(fmt.Sprintf("virtio-mmio: legacy queue %d descriptor table %#x: page number %#x exceeds 32 bits", queue, descAddr, pfn))
		}
		t.regs.Write32(VIRTIO_MMIO_QUEUE_SEL, queue)
		t.regs.Write32(VIRTIO_MMIO_QUEUE_NUM, size)
		t.regs.Write32(VIRTIO_MMIO_QUEUE_ALIGN, PageSize)
		t.regs.Write32(VIRTIO_MMIO_QUEUE_PFN, uint32(pfn))
	case Modern:
		t.regs.Write32(VIRTIO_MMIO_QUEUE_SEL, queue)
		t.regs.Write32(VIRTIO_MMIO_QUEUE_NUM, size)
		t.regs.Write32(VIRTIO_MMIO_QUEUE_DESC_LOW, uint32(descAddr))
		t.regs.Write32(VIRTIO_MMIO_QUEUE_DESC_HIGH, uint32(descAddr>>32))
		t.regs.Write32(VIRTIO_MMIO_QUEUE_AVAIL_LOW, uint32(driverAddr))
		t.regs.Write32(VIRTIO_MMIO_QUEUE_AVAIL_HIGH, uint32(driverAddr>>32))
		t.regs.Write32(VIRTIO_MMIO_QUEUE_USED_LOW, uint32(deviceAddr))
		t.regs.Write32(VIRTIO_MMIO_QUEUE_USED_HIGH, uint32(deviceAddr>>32))
		t.regs.Write32(VIRTIO_MMIO_QUEUE_READY, 1)
	}
}

// QueueUsed reports whether the given queue is already active: a nonzero
// page number under legacy, a nonzero ready bit under modern.
func (t *Transport) QueueUsed(queue uint32) bool {
	t.regs.Write32(VIRTIO_MMIO_QUEUE_SEL, queue)
	switch t.version {
	case Legacy:
		return t.regs.Read32(VIRTIO_MMIO_QUEUE_PFN) != 0
	default:
		return t.regs.Read32(VIRTIO_MMIO_QUEUE_READY) != 0
	}
}

// SetGuestPageSize tells a legacy device the driver's page size. It must
// be called once, before any queue is configured. Modern devices have no
// such register and the call is a no-op.
func (t *Transport) SetGuestPageSize(pageSize uint32) {
	if t.version == Legacy {
		t.regs.Write32(VIRTIO_MMIO_GUEST_PAGE_SIZE, pageSize)
	}
}
