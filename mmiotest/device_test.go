package mmiotest

import (
	"testing"

	"github.com/fslongjin/virtio-drivers/transport/mmio"
)

func TestResetClearsState(t *testing.T) {
	d := New(Config{DeviceID: 2, Version: 2, QueueMax: 64, Queues: 2})

	d.Write32(mmio.VIRTIO_MMIO_DRIVER_FEATURES_SEL, 0)
	d.Write32(mmio.VIRTIO_MMIO_DRIVER_FEATURES, 0xff)
	d.Write32(mmio.VIRTIO_MMIO_QUEUE_SEL, 1)
	d.Write32(mmio.VIRTIO_MMIO_QUEUE_NUM, 32)
	d.Write32(mmio.VIRTIO_MMIO_QUEUE_READY, 1)
	d.Write32(mmio.VIRTIO_MMIO_STATUS, 3)
	d.InjectInterrupt(1)

	d.Write32(mmio.VIRTIO_MMIO_STATUS, 0)

	if d.DriverFeatures() != 0 {
		t.Errorf("driver features = %#x after reset, want 0", d.DriverFeatures())
	}
	if d.Status() != 0 {
		t.Errorf("status = %v after reset, want 0", d.Status())
	}
	if d.InterruptStatus() != 0 {
		t.Errorf("interrupt status = %#x after reset, want 0", d.InterruptStatus())
	}
	if q := d.Queue(1); q != (Queue{}) {
		t.Errorf("queue 1 = %+v after reset, want zero state", q)
	}
}

func TestInterruptAckClearsOnlyAckedBits(t *testing.T) {
	d := New(Config{DeviceID: 2, Version: 2})
	d.InjectInterrupt(0b11)
	d.Write32(mmio.VIRTIO_MMIO_INTERRUPT_ACK, 0b01)
	if got := d.Read32(mmio.VIRTIO_MMIO_INTERRUPT_STATUS); got != 0b10 {
		t.Errorf("interrupt status = %#b, want 0b10", got)
	}
}

func TestQueueReadyZeroResetsQueue(t *testing.T) {
	d := New(Config{DeviceID: 2, Version: 2, QueueMax: 64})
	d.Write32(mmio.VIRTIO_MMIO_QUEUE_NUM, 32)
	d.Write32(mmio.VIRTIO_MMIO_QUEUE_DESC_LOW, 0x4000)
	d.Write32(mmio.VIRTIO_MMIO_QUEUE_READY, 1)
	if q := d.Queue(0); q.Ready != 1 || q.Size != 32 {
		t.Fatalf("queue = %+v, want ready with size 32", q)
	}

	d.Write32(mmio.VIRTIO_MMIO_QUEUE_READY, 0)
	if q := d.Queue(0); q != (Queue{}) {
		t.Errorf("queue = %+v after ready=0, want zero state", q)
	}
}
