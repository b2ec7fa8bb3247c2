package virtio

import "strings"

// DeviceStatus is the device status register bit-set. The driver builds it
// up one flag at a time during initialization (see 3.1 Device
// Initialization); writing the empty set resets the device.
type DeviceStatus uint32

const (
	// StatusAcknowledge indicates the guest has found the device.
	StatusAcknowledge DeviceStatus = 1

	// StatusDriver indicates the guest knows how to drive the device.
	StatusDriver DeviceStatus = 2

	// StatusDriverOK indicates the driver is set up and ready.
	StatusDriverOK DeviceStatus = 4

	// StatusFeaturesOK indicates feature negotiation is complete. The
	// driver must re-read the status afterwards to confirm the device
	// accepted the negotiated set.
	StatusFeaturesOK DeviceStatus = 8

	// StatusDeviceNeedsReset is set by the device when it has experienced
	// an unrecoverable error.
	StatusDeviceNeedsReset DeviceStatus = 64

	// StatusFailed indicates the guest has given up on the device.
	StatusFailed DeviceStatus = 128
)

// Has reports whether all bits of flag are set.
func (s DeviceStatus) Has(flag DeviceStatus) bool {
	return s&flag == flag
}

func (s DeviceStatus) String() string {
	if s == 0 {
		return "reset"
	}
	var parts []string
	for _, f := range []struct {
		bit  DeviceStatus
		name string
	}{
		{StatusAcknowledge, "ACKNOWLEDGE"},
		{StatusDriver, "DRIVER"},
		{StatusDriverOK, "DRIVER_OK"},
		{StatusFeaturesOK, "FEATURES_OK"},
		{StatusDeviceNeedsReset, "DEVICE_NEEDS_RESET"},
		{StatusFailed, "FAILED"},
	} {
		if s.Has(f.bit) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}
