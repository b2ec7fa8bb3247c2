package probe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fslongjin/virtio-drivers/hal"
	"github.com/fslongjin/virtio-drivers/transport/mmio"
)

// OpenFunc maps one candidate MMIO window and returns a register region
// for it. Scan closes the region again (if it implements io.Closer) when
// the window turns out not to hold a device.
type OpenFunc func(base, size uint64) (hal.Region, error)

// Device is one discovered virtio device. The transport stays valid
// until Close releases the register window the OpenFunc mapped for it.
type Device struct {
	Region    Region
	Transport *mmio.Transport

	regs hal.Region
}

// Close releases the mapped register window, invalidating the transport
// and every handle derived from it. Regions that need no cleanup make
// this a no-op.
func (d *Device) Close() error {
	if closer, ok := d.regs.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Scan probes each region in turn. Regions that fail to map abort the scan;
// regions that map but hold no virtio device (wrong magic, placeholder with
// device ID 0, unsupported version) are logged and skipped, matching how a
// kernel walks its virtio_mmio.device= list.
func Scan(open OpenFunc, regions []Region) ([]Device, error) {
	var found []Device
	for _, rc := range regions {
		regs, err := open(rc.Base, rc.Size)
		if err != nil {
			return nil, fmt.Errorf("probe: map region %#x: %w", rc.Base, err)
		}

		t, err := mmio.New(regs)
		if err != nil {
			var badMagic *mmio.BadMagicError
			switch {
			case errors.Is(err, mmio.ErrZeroDeviceID):
				slog.Debug("probe: placeholder region, no device bound",
					"base", fmt.Sprintf("%#x", rc.Base))
			case errors.As(err, &badMagic):
				slog.Warn("probe: region is not a virtio device",
					"base", fmt.Sprintf("%#x", rc.Base),
					"magic", fmt.Sprintf("%#x", badMagic.Magic))
			default:
				slog.Warn("probe: skipping region",
					"base", fmt.Sprintf("%#x", rc.Base), "err", err)
			}
			if closer, ok := regs.(io.Closer); ok {
				_ = closer.Close()
			}
			continue
		}

		slog.Info("probe: found virtio device",
			"base", fmt.Sprintf("%#x", rc.Base),
			"irq", rc.IRQ,
			"type", t.DeviceType().String(),
			"version", t.Version().String(),
			"vendor", fmt.Sprintf("%#x", t.VendorID()))
		found = append(found, Device{Region: rc, Transport: t, regs: regs})
	}
	return found, nil
}
