package mmio

import (
	virtio "github.com/fslongjin/virtio-drivers"
	"github.com/fslongjin/virtio-drivers/hal"
)

// Transport drives one virtio MMIO device. A single value serves both
// protocol versions: the register layout is a superset, and the queue
// setup and guest-page-size paths branch on the version tag fixed at
// construction.
//
// Transport performs no locking. Every method is a bounded sequence of
// volatile register accesses that completes synchronously; callers must
// serialize concurrent use of the same device.
type Transport struct {
	regs     hal.Region
	version  Version
	deviceID uint32
	vendorID uint32
}

var _ virtio.Transport = (*Transport)(nil)

// New validates the register block at regs and returns a transport for it.
// It checks, in order: the magic register holds MagicValue, the device ID
// register is nonzero, and the version register is 1 or 2. The checks are
// purely observational; no register is written.
//
// The sole precondition is that regs is a validly mapped virtio MMIO
// window, not aliased by another owner, and remains valid for the lifetime
// of the transport. Violating this is undefined behavior.
func New(regs hal.Region) (*Transport, error) {
	magic := regs.Read32(VIRTIO_MMIO_MAGIC_VALUE)
	if magic != MagicValue {
		return nil, &BadMagicError{Magic: magic}
	}
	deviceID := regs.Read32(VIRTIO_MMIO_DEVICE_ID)
	if deviceID == 0 {
		return nil, ErrZeroDeviceID
	}
	version := regs.Read32(VIRTIO_MMIO_VERSION)
	switch Version(version) {
	case Legacy, Modern:
	default:
		return nil, &UnsupportedVersionError{Version: version}
	}
	return &Transport{
		regs:     regs,
		version:  Version(version),
		deviceID: deviceID,
		vendorID: regs.Read32(VIRTIO_MMIO_VENDOR_ID),
	}, nil
}

// Version returns the protocol version the device negotiated at
// construction time.
func (t *Transport) Version() Version { return t.version }

// DeviceType returns the class of the attached device.
func (t *Transport) DeviceType() virtio.DeviceType {
	return virtio.DeviceTypeOf(t.deviceID)
}

// VendorID returns the virtio subsystem vendor ID.
func (t *Transport) VendorID() uint32 { return t.vendorID }

// ReadDeviceFeatures reads the 64-bit device feature set through the two
// 32-bit selector windows: selector 0 yields bits [0,32), selector 1 yields
// bits [32,64). Each selector write strictly precedes its data read.
func (t *Transport) ReadDeviceFeatures() uint64 {
	t.regs.Write32(VIRTIO_MMIO_DEVICE_FEATURES_SEL, 0)
	features := uint64(t.regs.Read32(VIRTIO_MMIO_DEVICE_FEATURES))
	t.regs.Write32(VIRTIO_MMIO_DEVICE_FEATURES_SEL, 1)
	features |= uint64(t.regs.Read32(VIRTIO_MMIO_DEVICE_FEATURES)) << 32
	return features
}

// WriteDriverFeatures writes the 64-bit driver feature set, low word then
// high word, through the driver feature selector.
func (t *Transport) WriteDriverFeatures(features uint64) {
	t.regs.Write32(VIRTIO_MMIO_DRIVER_FEATURES_SEL, 0)
	t.regs.Write32(VIRTIO_MMIO_DRIVER_FEATURES, uint32(features))
	t.regs.Write32(VIRTIO_MMIO_DRIVER_FEATURES_SEL, 1)
	t.regs.Write32(VIRTIO_MMIO_DRIVER_FEATURES, uint32(features>>32))
}

// MaxQueueSize returns the maximum size of the currently selected queue,
// or 0 if the queue is unavailable.
func (t *Transport) MaxQueueSize() uint32 {
	return t.regs.Read32(VIRTIO_MMIO_QUEUE_NUM_MAX)
}

// Notify rings the doorbell for the given queue.
func (t *Transport) Notify(queue uint32) {
	t.regs.Write32(VIRTIO_MMIO_QUEUE_NOTIFY, queue)
}

// Status returns the current device status flags.
func (t *Transport) Status() virtio.DeviceStatus {
	return virtio.DeviceStatus(t.regs.Read32(VIRTIO_MMIO_STATUS))
}

// SetStatus writes the status flags verbatim. Writing the empty set
// triggers a full device reset; the device clears all queue state as a
// side effect.
func (t *Transport) SetStatus(status virtio.DeviceStatus) {
	t.regs.Write32(VIRTIO_MMIO_STATUS, uint32(status))
}

// AckInterrupt polls the interrupt status register. If any cause bits are
// set it writes exactly those bits to the acknowledge register and returns
// true. If none are set it returns false and writes nothing, avoiding a
// spurious acknowledge.
func (t *Transport) AckInterrupt() bool {
	interrupt := t.regs.Read32(VIRTIO_MMIO_INTERRUPT_STATUS)
	if interrupt == 0 {
		return false
	}
	t.regs.Write32(VIRTIO_MMIO_INTERRUPT_ACK, interrupt)
	return true
}

// ConfigGeneration returns the configuration atomicity value. A driver
// reads it before and after a multi-register config read and retries if
// it changed in between.
func (t *Transport) ConfigGeneration() uint32 {
	return t.regs.Read32(VIRTIO_MMIO_CONFIG_GENERATION)
}

// ConfigSpace returns the device-specific configuration space beginning at
// offset 0x100. Its size depends on the device type, so the handle is not
// bounds-checked by the transport; it is valid only as long as the
// underlying register block is.
func (t *Transport) ConfigSpace() hal.Region {
	return hal.View(t.regs, VIRTIO_MMIO_CONFIG)
}
