// Package virtio defines the device types, status flags, feature bits and
// the transport capability interface shared by VirtIO transports. Concrete
// transports live in subpackages (transport/mmio); device drivers are written
// against the Transport interface and never touch registers directly.
package virtio

import "github.com/fslongjin/virtio-drivers/hal"

// DeviceType identifies the class of a virtio device, as reported by the
// device ID register.
type DeviceType uint32

const (
	DeviceInvalid          DeviceType = 0
	DeviceNetwork          DeviceType = 1
	DeviceBlock            DeviceType = 2
	DeviceConsole          DeviceType = 3
	DeviceEntropySource    DeviceType = 4
	DeviceMemoryBallooning DeviceType = 5
	DeviceIOMemory         DeviceType = 6
	DeviceRpmsg            DeviceType = 7
	DeviceSCSIHost         DeviceType = 8
	Device9P               DeviceType = 9
	DeviceMac80211         DeviceType = 10
	DeviceRprocSerial      DeviceType = 11
	DeviceCAIF             DeviceType = 12
	DeviceMemoryBalloon    DeviceType = 13
	DeviceGPU              DeviceType = 16
	DeviceTimer            DeviceType = 17
	DeviceInput            DeviceType = 18
	DeviceSocket           DeviceType = 19
	DeviceCrypto           DeviceType = 20
	DeviceSignalDist       DeviceType = 21
	DevicePstore           DeviceType = 22
	DeviceIOMMU            DeviceType = 23
	DeviceMemory           DeviceType = 24
)

// DeviceTypeOf maps a raw device ID register value to a DeviceType. IDs
// 1-13 and 16-24 are defined by the virtio specification; everything else
// (including 0, which construction already rejects) is DeviceInvalid.
func DeviceTypeOf(id uint32) DeviceType {
	switch {
	case id >= 1 && id <= 13:
		return DeviceType(id)
	case id >= 16 && id <= 24:
		return DeviceType(id)
	default:
		return DeviceInvalid
	}
}

func (t DeviceType) String() string {
	switch t {
	case DeviceNetwork:
		return "network"
	case DeviceBlock:
		return "block"
	case DeviceConsole:
		return "console"
	case DeviceEntropySource:
		return "entropy"
	case DeviceMemoryBallooning:
		return "memory-ballooning"
	case DeviceIOMemory:
		return "io-memory"
	case DeviceRpmsg:
		return "rpmsg"
	case DeviceSCSIHost:
		return "scsi-host"
	case Device9P:
		return "9p"
	case DeviceMac80211:
		return "mac80211-wlan"
	case DeviceRprocSerial:
		return "rproc-serial"
	case DeviceCAIF:
		return "caif"
	case DeviceMemoryBalloon:
		return "memory-balloon"
	case DeviceGPU:
		return "gpu"
	case DeviceTimer:
		return "timer"
	case DeviceInput:
		return "input"
	case DeviceSocket:
		return "socket"
	case DeviceCrypto:
		return "crypto"
	case DeviceSignalDist:
		return "signal-distribution"
	case DevicePstore:
		return "pstore"
	case DeviceIOMMU:
		return "iommu"
	case DeviceMemory:
		return "memory"
	default:
		return "invalid"
	}
}

// Transport is the capability set a virtio transport offers to a device
// driver. All methods are synchronous, single-access register operations:
// each call corresponds to exactly one hardware side effect per register,
// in program order. Transports perform no internal locking; at most one
// logical driver thread may drive a transport at a time, and concurrent
// callers must serialize externally.
type Transport interface {
	// DeviceType returns the class of the attached device.
	DeviceType() DeviceType

	// VendorID returns the virtio subsystem vendor ID.
	VendorID() uint32

	// ReadDeviceFeatures returns the 64-bit feature set the device offers.
	ReadDeviceFeatures() uint64

	// WriteDriverFeatures tells the device which features the driver
	// understands and activates.
	WriteDriverFeatures(features uint64)

	// MaxQueueSize returns the maximum size of the currently selected
	// queue, or 0 if the queue is unavailable.
	MaxQueueSize() uint32

	// QueueSet programs the size and the three ring addresses of a queue.
	// The addresses are guest-physical. Legacy transports require the
	// layout relations of the legacy interface and panic on violations;
	// see the concrete transport for details.
	QueueSet(queue, size uint32, descAddr, driverAddr, deviceAddr uint64)

	// QueueUsed reports whether the given queue is already active.
	QueueUsed(queue uint32) bool

	// SetGuestPageSize tells a legacy device the driver's page size. It
	// must be called before any queue is configured. Modern transports
	// ignore it.
	SetGuestPageSize(pageSize uint32)

	// Notify rings the doorbell for a queue.
	Notify(queue uint32)

	// Status returns the current device status flags.
	Status() DeviceStatus

	// SetStatus writes the status flags verbatim. Writing the empty set
	// resets the device.
	SetStatus(status DeviceStatus)

	// AckInterrupt polls the interrupt status register. If any cause bits
	// are set it acknowledges exactly those bits and returns true;
	// otherwise it returns false without writing anything.
	AckInterrupt() bool

	// ConfigSpace returns the device-specific configuration space. The
	// transport does not interpret or bounds-check it; its size depends
	// on the device type. The handle is valid only as long as the
	// underlying register block is.
	ConfigSpace() hal.Region
}
