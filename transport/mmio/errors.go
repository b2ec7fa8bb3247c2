package mmio

import (
	"errors"
	"fmt"
)

// ErrZeroDeviceID is returned by New when the device ID register reads 0,
// meaning the region holds a placeholder with no device bound to it.
var ErrZeroDeviceID = errors.New("virtio-mmio: device ID is zero")

// BadMagicError is returned by New when the first register does not hold
// MagicValue, meaning the region is not a virtio MMIO device at all.
type BadMagicError struct {
	Magic uint32
}

func (e *BadMagicError) Error() string {
	return fmt.Sprintf("virtio-mmio: invalid magic value %#010x (expected %#010x)", e.Magic, uint32(MagicValue))
}

// UnsupportedVersionError is returned by New when the version register is
// neither 1 (legacy) nor 2 (modern).
type UnsupportedVersionError struct {
	Version uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("virtio-mmio: unsupported version %d", e.Version)
}
