package mmio_test

import (
	"strings"
	"testing"

	"github.com/fslongjin/virtio-drivers/mmiotest"
	"github.com/fslongjin/virtio-drivers/transport/mmio"
)

func TestLegacyLayout(t *testing.T) {
	cases := []struct {
		size           uint32
		driver, device uint64
	}{
		{size: 4, driver: 64, device: 0x1000},
		{size: 8, driver: 128, device: 0x1000},
		{size: 256, driver: 0x1000, device: 0x2000},
		{size: 512, driver: 0x2000, device: 0x3000},
	}
	for _, tc := range cases {
		driver, device := mmio.LegacyLayout(tc.size)
		if driver != tc.driver || device != tc.device {
			t.Errorf("LegacyLayout(%d) = (%#x, %#x), want (%#x, %#x)",
				tc.size, driver, device, tc.driver, tc.device)
		}
	}
}

func mustPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", contains)
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, contains) {
			t.Fatalf("panic = %v, want message containing %q", r, contains)
		}
	}()
	fn()
}

func TestLegacyQueueSet(t *testing.T) {
	newLegacy := func(t *testing.T) (*mmiotest.Device, *mmio.Transport) {
		dev := mmiotest.New(mmiotest.Config{
			DeviceID: 2,
			Version:  1,
			QueueMax: 256,
			Queues:   2,
		})
		return dev, mustNew(t, dev)
	}

	t.Run("ProgramsPageNumber", func(t *testing.T) {
		dev, tr := newLegacy(t)
		desc := uint64(0x10000)
		tr.SetGuestPageSize(mmio.PageSize)
		tr.QueueSet(1, 256, desc, desc+0x1000, desc+0x2000)

		q := dev.Queue(1)
		if q.Size != 256 {
			t.Errorf("queue size = %d, want 256", q.Size)
		}
		if q.Align != mmio.PageSize {
			t.Errorf("queue align = %#x, want %#x", q.Align, mmio.PageSize)
		}
		if q.PFN != 0x10 {
			t.Errorf("queue pfn = %#x, want 0x10", q.PFN)
		}
		if dev.GuestPageSize() != mmio.PageSize {
			t.Errorf("guest page size = %#x, want %#x", dev.GuestPageSize(), mmio.PageSize)
		}

		if !tr.QueueUsed(1) {
			t.Error("QueueUsed(1) = false after setup")
		}
		if tr.QueueUsed(0) {
			t.Error("QueueUsed(0) = true for untouched queue")
		}
	})

	t.Run("BadDriverArea", func(t *testing.T) {
		_, tr := newLegacy(t)
		mustPanic(t, "driver area", func() {
			tr.QueueSet(0, 256, 0x10000, 0x10000+0x1004, 0x10000+0x2000)
		})
	})

	t.Run("BadDeviceArea", func(t *testing.T) {
		_, tr := newLegacy(t)
		mustPanic(t, "device area", func() {
			tr.QueueSet(0, 256, 0x10000, 0x10000+0x1000, 0x10000+0x3000)
		})
	})

	t.Run("DescriptorTableBeyondPageNumberRange", func(t *testing.T) {
		_, tr := newLegacy(t)
		// Page aligned and with valid layout relations, but the page
		// number does not fit the 32-bit register.
		desc := uint64(1) << 44
		mustPanic(t, "exceeds 32 bits", func() {
			tr.QueueSet(0, 256, desc, desc+0x1000, desc+0x2000)
		})
	})

	t.Run("UnalignedDescriptorTable", func(t *testing.T) {
		_, tr := newLegacy(t)
		desc := uint64(0x10010)
		mustPanic(t, "not page aligned", func() {
			tr.QueueSet(0, 256, desc, desc+0x1000, desc+0x2000)
		})
	})
}

func TestModernQueueSet(t *testing.T) {
	dev := mmiotest.New(mmiotest.Config{
		DeviceID: 2,
		Version:  2,
		QueueMax: 256,
		Queues:   2,
	})
	tr := mustNew(t, dev)

	// Modern addressing has no relation or alignment constraints between
	// the three areas, and addresses may exceed 32 bits.
	desc := uint64(0x1_2345_6000)
	driver := uint64(0x9_0000_0010)
	device := uint64(0x0000_4321)
	tr.QueueSet(1, 128, desc, driver, device)

	q := dev.Queue(1)
	if q.Size != 128 {
		t.Errorf("queue size = %d, want 128", q.Size)
	}
	if q.DescAddr != desc || q.DriverAddr != driver || q.DeviceAddr != device {
		t.Errorf("queue addresses = (%#x, %#x, %#x), want (%#x, %#x, %#x)",
			q.DescAddr, q.DriverAddr, q.DeviceAddr, desc, driver, device)
	}
	if q.Ready != 1 {
		t.Errorf("queue ready = %d, want 1", q.Ready)
	}

	if !tr.QueueUsed(1) {
		t.Error("QueueUsed(1) = false after setup")
	}
	if tr.QueueUsed(0) {
		t.Error("QueueUsed(0) = true for untouched queue")
	}
}

func TestSetGuestPageSize(t *testing.T) {
	t.Run("LegacyWritesRegister", func(t *testing.T) {
		dev := mmiotest.New(mmiotest.Config{DeviceID: 2, Version: 1})
		tr := mustNew(t, dev)
		tr.SetGuestPageSize(0x1000)
		if dev.GuestPageSize() != 0x1000 {
			t.Errorf("guest page size = %#x, want 0x1000", dev.GuestPageSize())
		}
	})

	t.Run("ModernIsNoop", func(t *testing.T) {
		dev := mmiotest.New(mmiotest.Config{DeviceID: 2, Version: 2})
		tr := mustNew(t, dev)
		tr.SetGuestPageSize(0x1000)
		if dev.GuestPageSize() != 0 {
			t.Errorf("modern transport wrote the legacy page size register: %#x", dev.GuestPageSize())
		}
	})
}
