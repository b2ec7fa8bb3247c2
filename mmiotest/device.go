// Package mmiotest provides a register-level fake of a virtio MMIO device.
// It implements hal.Region, so a transport constructed on it exercises the
// exact register protocol real hardware would see: selector-driven feature
// windows, queue address latching for both the legacy and the modern
// addressing scheme, status and reset semantics, and interrupt
// acknowledgment. Driver packages use it to test against a device without a
// hypervisor.
package mmiotest

import (
	"fmt"

	virtio "github.com/fslongjin/virtio-drivers"
	"github.com/fslongjin/virtio-drivers/hal"
	"github.com/fslongjin/virtio-drivers/transport/mmio"
)

var _ hal.Region = (*Device)(nil)

// Config describes the device a fake presents at construction.
type Config struct {
	DeviceID uint32
	VendorID uint32
	Version  uint32
	Features uint64 // device feature set offered to the driver
	QueueMax uint32 // maximum size reported for every queue
	Queues   int    // number of queues, default 1
	Config   []byte // device-specific configuration space contents

	// Magic overrides the magic register, for fault injection. The zero
	// value means mmio.MagicValue.
	Magic uint32

	// RejectFeatures makes the device refuse feature negotiation by
	// clearing FEATURES_OK from every status write.
	RejectFeatures bool
}

// Queue is the latched state of one fake queue.
type Queue struct {
	Size       uint32
	Align      uint32
	PFN        uint32
	Ready      uint32
	DescAddr   uint64
	DriverAddr uint64
	DeviceAddr uint64
}

func (q *Queue) reset() {
	*q = Queue{}
}

// Device is a fake virtio MMIO device. It is not safe for concurrent use,
// matching the single-owner discipline of the transport itself.
type Device struct {
	cfg Config

	deviceFeatures   [2]uint32
	deviceFeatureSel uint32
	driverFeatures   [2]uint32
	driverFeatureSel uint32

	guestPageSize    uint32
	queueSel         uint32
	status           uint32
	interruptStatus  uint32
	configGeneration uint32
	config           []byte
	queues           []Queue

	// Notifications records every value written to the notify register,
	// in order.
	Notifications []uint32

	// Reads records the offset of every register read, in order.
	Reads []uint64
}

// New returns a fake device presenting the given configuration.
func New(cfg Config) *Device {
	if cfg.Magic == 0 {
		cfg.Magic = mmio.MagicValue
	}
	if cfg.Queues == 0 {
		cfg.Queues = 1
	}
	d := &Device{
		cfg:    cfg,
		config: append([]byte(nil), cfg.Config...),
		queues: make([]Queue, cfg.Queues),
	}
	d.deviceFeatures[0] = uint32(cfg.Features)
	d.deviceFeatures[1] = uint32(cfg.Features >> 32)
	return d
}

// Queue returns a copy of the latched state of queue i.
func (d *Device) Queue(i int) Queue { return d.queues[i] }

// Status returns the device status as last written by the driver.
func (d *Device) Status() virtio.DeviceStatus { return virtio.DeviceStatus(d.status) }

// DriverFeatures returns the 64-bit driver feature set recomposed from the
// two latched feature words.
func (d *Device) DriverFeatures() uint64 {
	return uint64(d.driverFeatures[0]) | uint64(d.driverFeatures[1])<<32
}

// GuestPageSize returns the last value written to the legacy guest page
// size register, or 0 if it was never written.
func (d *Device) GuestPageSize() uint32 { return d.guestPageSize }

// InterruptStatus returns the pending interrupt cause bits.
func (d *Device) InterruptStatus() uint32 { return d.interruptStatus }

// InjectInterrupt sets interrupt cause bits, as the device would when
// raising an interrupt.
func (d *Device) InjectInterrupt(bits uint32) {
	d.interruptStatus |= bits
}

// BumpConfigGeneration increments the configuration atomicity value, as
// the device would after changing its config space.
func (d *Device) BumpConfigGeneration() {
	d.configGeneration++
}

func (d *Device) Read32(off uint64) uint32 {
	d.Reads = append(d.Reads, off)
	switch off {
	case mmio.VIRTIO_MMIO_MAGIC_VALUE:
		return d.cfg.Magic
	case mmio.VIRTIO_MMIO_VERSION:
		return d.cfg.Version
	case mmio.VIRTIO_MMIO_DEVICE_ID:
		return d.cfg.DeviceID
	case mmio.VIRTIO_MMIO_VENDOR_ID:
		return d.cfg.VendorID
	case mmio.VIRTIO_MMIO_DEVICE_FEATURES:
		if d.deviceFeatureSel < 2 {
			return d.deviceFeatures[d.deviceFeatureSel]
		}
		return 0
	case mmio.VIRTIO_MMIO_DRIVER_FEATURES:
		if d.driverFeatureSel < 2 {
			return d.driverFeatures[d.driverFeatureSel]
		}
		return 0
	case mmio.VIRTIO_MMIO_QUEUE_SEL:
		return d.queueSel
	case mmio.VIRTIO_MMIO_QUEUE_NUM_MAX:
		if d.currentQueue() != nil {
			return d.cfg.QueueMax
		}
		return 0
	case mmio.VIRTIO_MMIO_QUEUE_NUM:
		if q := d.currentQueue(); q != nil {
			return q.Size
		}
		return 0
	case mmio.VIRTIO_MMIO_QUEUE_PFN:
		if q := d.currentQueue(); q != nil {
			return q.PFN
		}
		return 0
	case mmio.VIRTIO_MMIO_QUEUE_READY:
		if q := d.currentQueue(); q != nil {
			return q.Ready
		}
		return 0
	case mmio.VIRTIO_MMIO_INTERRUPT_STATUS:
		return d.interruptStatus
	case mmio.VIRTIO_MMIO_STATUS:
		return d.status
	case mmio.VIRTIO_MMIO_CONFIG_GENERATION:
		return d.configGeneration
	default:
		if off >= mmio.VIRTIO_MMIO_CONFIG {
			return d.readConfig32(off - mmio.VIRTIO_MMIO_CONFIG)
		}
		return 0
	}
}

func (d *Device) Write32(off uint64, value uint32) {
	switch off {
	case mmio.VIRTIO_MMIO_DEVICE_FEATURES_SEL:
		d.deviceFeatureSel = value
	case mmio.VIRTIO_MMIO_DRIVER_FEATURES_SEL:
		d.driverFeatureSel = value
	case mmio.VIRTIO_MMIO_DRIVER_FEATURES:
		if d.driverFeatureSel < 2 {
			d.driverFeatures[d.driverFeatureSel] = value
		}
	case mmio.VIRTIO_MMIO_GUEST_PAGE_SIZE:
		d.guestPageSize = value
	case mmio.VIRTIO_MMIO_QUEUE_SEL:
		d.queueSel = value
	case mmio.VIRTIO_MMIO_QUEUE_NUM:
		if q := d.currentQueue(); q != nil {
			q.Size = value
		}
	case mmio.VIRTIO_MMIO_QUEUE_ALIGN:
		if q := d.currentQueue(); q != nil {
			q.Align = value
		}
	case mmio.VIRTIO_MMIO_QUEUE_PFN:
		if q := d.currentQueue(); q != nil {
			q.PFN = value
		}
	case mmio.VIRTIO_MMIO_QUEUE_READY:
		if q := d.currentQueue(); q != nil {
			if value&0x1 == 0 {
				q.reset()
			} else {
				q.Ready = 1
			}
		}
	case mmio.VIRTIO_MMIO_QUEUE_DESC_LOW:
		if q := d.currentQueue(); q != nil {
			q.DescAddr = setLow(q.DescAddr, value)
		}
	case mmio.VIRTIO_MMIO_QUEUE_DESC_HIGH:
		if q := d.currentQueue(); q != nil {
			q.DescAddr = setHigh(q.DescAddr, value)
		}
	case mmio.VIRTIO_MMIO_QUEUE_AVAIL_LOW:
		if q := d.currentQueue(); q != nil {
			q.DriverAddr = setLow(q.DriverAddr, value)
		}
	case mmio.VIRTIO_MMIO_QUEUE_AVAIL_HIGH:
		if q := d.currentQueue(); q != nil {
			q.DriverAddr = setHigh(q.DriverAddr, value)
		}
	case mmio.VIRTIO_MMIO_QUEUE_USED_LOW:
		if q := d.currentQueue(); q != nil {
			q.DeviceAddr = setLow(q.DeviceAddr, value)
		}
	case mmio.VIRTIO_MMIO_QUEUE_USED_HIGH:
		if q := d.currentQueue(); q != nil {
			q.DeviceAddr = setHigh(q.DeviceAddr, value)
		}
	case mmio.VIRTIO_MMIO_QUEUE_NOTIFY:
		d.Notifications = append(d.Notifications, value)
	case mmio.VIRTIO_MMIO_INTERRUPT_ACK:
		d.interruptStatus &^= value
	case mmio.VIRTIO_MMIO_STATUS:
		if value == 0 {
			d.reset()
			return
		}
		if d.cfg.RejectFeatures {
			value &^= uint32(virtio.StatusFeaturesOK)
		}
		d.status = value
	default:
		if off >= mmio.VIRTIO_MMIO_CONFIG {
			d.writeConfig32(off-mmio.VIRTIO_MMIO_CONFIG, value)
		}
	}
}

func (d *Device) Read8(off uint64) byte {
	if off < mmio.VIRTIO_MMIO_CONFIG {
		panic(fmt.Sprintf("mmiotest: byte read below config space at %#x", off))
	}
	rel := off - mmio.VIRTIO_MMIO_CONFIG
	if rel >= uint64(len(d.config)) {
		return 0
	}
	return d.config[rel]
}

func (d *Device) Write8(off uint64, v byte) {
	if off < mmio.VIRTIO_MMIO_CONFIG {
		panic(fmt.Sprintf("mmiotest: byte write below config space at %#x", off))
	}
	rel := off - mmio.VIRTIO_MMIO_CONFIG
	if rel < uint64(len(d.config)) {
		d.config[rel] = v
	}
}

func (d *Device) readConfig32(rel uint64) uint32 {
	var v uint32
	for i := uint64(0); i < 4; i++ {
		if rel+i < uint64(len(d.config)) {
			v |= uint32(d.config[rel+i]) << (8 * i)
		}
	}
	return v
}

func (d *Device) writeConfig32(rel uint64, value uint32) {
	for i := uint64(0); i < 4; i++ {
		if rel+i < uint64(len(d.config)) {
			d.config[rel+i] = byte(value >> (8 * i))
		}
	}
}

func (d *Device) reset() {
	d.deviceFeatureSel = 0
	d.driverFeatureSel = 0
	d.driverFeatures = [2]uint32{}
	d.guestPageSize = 0
	d.queueSel = 0
	d.status = 0
	d.interruptStatus = 0
	for i := range d.queues {
		d.queues[i].reset()
	}
}

func (d *Device) currentQueue() *Queue {
	if int(d.queueSel) >= len(d.queues) {
		return nil
	}
	return &d.queues[d.queueSel]
}

func setLow(addr uint64, v uint32) uint64 {
	return (addr &^ 0xffffffff) | uint64(v)
}

func setHigh(addr uint64, v uint32) uint64 {
	return (addr &^ (uint64(0xffffffff) << 32)) | (uint64(v) << 32)
}
