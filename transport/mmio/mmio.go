// Package mmio implements the driver side of the VirtIO MMIO transport
// (virtio spec 4.2.2 MMIO Device Register Layout and 4.2.4 Legacy
// interface). It validates a memory-mapped register block, determines the
// protocol version, and exposes the virtio.Transport capability set on top
// of it for both the legacy page-based and the modern split-address
// schemes.
//
// The register block is a fixed layout of 32-bit registers. The offsets
// below are mandated by the specification; the gaps between them are
// reserved registers that exist only to keep subsequent offsets stable and
// must never be interpreted.
package mmio

// MagicValue is the content of the first register of every virtio MMIO
// device: "virt" in little-endian ASCII.
const MagicValue = 0x74726976

// Register offsets from the start of the MMIO window. Registers marked
// legacy-only exist in version 1 devices; registers marked modern-only
// exist in version 2 devices. The remaining offsets are shared.
const (
	VIRTIO_MMIO_MAGIC_VALUE         = 0x000 // R: always MagicValue
	VIRTIO_MMIO_VERSION             = 0x004 // R: 1 (legacy) or 2 (modern)
	VIRTIO_MMIO_DEVICE_ID           = 0x008 // R: virtio subsystem device ID
	VIRTIO_MMIO_VENDOR_ID           = 0x00c // R: virtio subsystem vendor ID
	VIRTIO_MMIO_DEVICE_FEATURES     = 0x010 // R: feature word selected by DEVICE_FEATURES_SEL
	VIRTIO_MMIO_DEVICE_FEATURES_SEL = 0x014 // W: device feature word selection
	VIRTIO_MMIO_DRIVER_FEATURES     = 0x020 // W: feature word selected by DRIVER_FEATURES_SEL
	VIRTIO_MMIO_DRIVER_FEATURES_SEL = 0x024 // W: driver feature word selection
	VIRTIO_MMIO_GUEST_PAGE_SIZE     = 0x028 // W: guest page size in bytes (legacy only)
	VIRTIO_MMIO_QUEUE_SEL           = 0x030 // W: virtual queue index
	VIRTIO_MMIO_QUEUE_NUM_MAX       = 0x034 // R: maximum size of the selected queue
	VIRTIO_MMIO_QUEUE_NUM           = 0x038 // W: size of the selected queue
	VIRTIO_MMIO_QUEUE_ALIGN         = 0x03c // W: used ring alignment (legacy only)
	VIRTIO_MMIO_QUEUE_PFN           = 0x040 // RW: queue page number (legacy only)
	VIRTIO_MMIO_QUEUE_READY         = 0x044 // RW: queue ready bit (modern only)
	VIRTIO_MMIO_QUEUE_NOTIFY        = 0x050 // W: queue notifier
	VIRTIO_MMIO_INTERRUPT_STATUS    = 0x060 // R: interrupt cause bits
	VIRTIO_MMIO_INTERRUPT_ACK       = 0x064 // W: interrupt acknowledge
	VIRTIO_MMIO_STATUS              = 0x070 // RW: device status; writing 0 resets
	VIRTIO_MMIO_QUEUE_DESC_LOW      = 0x080 // W: descriptor area address, low word (modern only)
	VIRTIO_MMIO_QUEUE_DESC_HIGH     = 0x084 // W: descriptor area address, high word (modern only)
	VIRTIO_MMIO_QUEUE_AVAIL_LOW     = 0x090 // W: driver area address, low word (modern only)
	VIRTIO_MMIO_QUEUE_AVAIL_HIGH    = 0x094 // W: driver area address, high word (modern only)
	VIRTIO_MMIO_QUEUE_USED_LOW      = 0x0a0 // W: device area address, low word (modern only)
	VIRTIO_MMIO_QUEUE_USED_HIGH     = 0x0a4 // W: device area address, high word (modern only)
	VIRTIO_MMIO_CONFIG_GENERATION   = 0x0fc // R: configuration atomicity value
	VIRTIO_MMIO_CONFIG              = 0x100 // RW: device-specific configuration space
)

// Version is the MMIO transport protocol version of a device. It is fixed
// at construction and selects the addressing scheme used for queue setup.
type Version uint32

const (
	// Legacy is the page-based addressing scheme of virtio spec 4.2.4.
	Legacy Version = 1

	// Modern is the split-address scheme of virtio spec 4.2.2.
	Modern Version = 2
)

func (v Version) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Modern:
		return "modern"
	default:
		return "unknown"
	}
}
