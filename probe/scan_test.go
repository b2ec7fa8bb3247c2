package probe

import (
	"fmt"
	"testing"

	virtio "github.com/fslongjin/virtio-drivers"
	"github.com/fslongjin/virtio-drivers/hal"
	"github.com/fslongjin/virtio-drivers/mmiotest"
)

// closableRegion tracks whether Scan released a region it skipped.
type closableRegion struct {
	hal.Region
	closed bool
}

func (r *closableRegion) Close() error {
	r.closed = true
	return nil
}

func TestScan(t *testing.T) {
	block := &closableRegion{Region: mmiotest.New(mmiotest.Config{DeviceID: 2, VendorID: 0x1af4, Version: 2, QueueMax: 256})}
	console := mmiotest.New(mmiotest.Config{DeviceID: 3, VendorID: 0x1af4, Version: 1, QueueMax: 64})
	junk := &closableRegion{Region: mmiotest.New(mmiotest.Config{Magic: 0x12345678, DeviceID: 1, Version: 2})}
	empty := &closableRegion{Region: mmiotest.New(mmiotest.Config{DeviceID: 0, Version: 2})}

	windows := map[uint64]hal.Region{
		0x10001000: block,
		0x10002000: junk,
		0x10003000: empty,
		0x10004000: console,
	}
	open := func(base, size uint64) (hal.Region, error) {
		r, ok := windows[base]
		if !ok {
			return nil, fmt.Errorf("no window at %#x", base)
		}
		return r, nil
	}

	regions := []Region{
		{Base: 0x10001000, Size: 0x200, IRQ: 40},
		{Base: 0x10002000, Size: 0x200, IRQ: 41},
		{Base: 0x10003000, Size: 0x200, IRQ: 42},
		{Base: 0x10004000, Size: 0x200, IRQ: 43},
	}

	found, err := Scan(open, regions)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d devices, want 2", len(found))
	}

	if got := found[0].Transport.DeviceType(); got != virtio.DeviceBlock {
		t.Errorf("device 0 type = %v, want block", got)
	}
	if found[0].Region.IRQ != 40 {
		t.Errorf("device 0 irq = %d, want 40", found[0].Region.IRQ)
	}
	if got := found[1].Transport.DeviceType(); got != virtio.DeviceConsole {
		t.Errorf("device 1 type = %v, want console", got)
	}

	if !junk.closed {
		t.Error("region with bad magic was not closed")
	}
	if !empty.closed {
		t.Error("placeholder region was not closed")
	}

	// Discovered devices keep their mapping until the caller releases it.
	if block.closed {
		t.Error("discovered device region was closed during the scan")
	}
	if err := found[0].Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !block.closed {
		t.Error("Close did not release the device region")
	}
	// Regions without cleanup make Close a no-op.
	if err := found[1].Close(); err != nil {
		t.Fatalf("Close of a plain region failed: %v", err)
	}
}

func TestScanMapFailure(t *testing.T) {
	open := func(base, size uint64) (hal.Region, error) {
		return nil, fmt.Errorf("permission denied")
	}
	if _, err := Scan(open, []Region{{Base: 0x1000, Size: 0x200}}); err == nil {
		t.Fatal("Scan succeeded despite map failure")
	}
}
