package virtio

// Device-independent feature bits (virtio spec 6, Reserved Feature Bits).
// Bits below 24 and above 41 are device-type specific.
const (
	// FeatureRingIndirectDesc indicates that the driver can use
	// descriptors with the VIRTQ_DESC_F_INDIRECT flag set.
	FeatureRingIndirectDesc = uint64(1) << 28

	// FeatureRingEventIdx enables the used_event and avail_event fields.
	FeatureRingEventIdx = uint64(1) << 29

	// FeatureVersion1 indicates compliance with the virtio 1.x
	// specification; legacy devices never offer it.
	FeatureVersion1 = uint64(1) << 32

	// FeatureAccessPlatform indicates device memory access may be limited
	// or translated, e.g. behind an IOMMU.
	FeatureAccessPlatform = uint64(1) << 33

	// FeatureRingPacked indicates support for the packed virtqueue layout.
	FeatureRingPacked = uint64(1) << 34

	// FeatureInOrder indicates the device uses buffers in the order they
	// were made available.
	FeatureInOrder = uint64(1) << 35

	// FeatureOrderPlatform indicates memory ordering between driver and
	// device follows the platform's rules rather than SMP assumptions.
	FeatureOrderPlatform = uint64(1) << 36

	// FeatureSRIOV indicates the device supports Single Root I/O
	// Virtualization.
	FeatureSRIOV = uint64(1) << 37

	// FeatureNotificationData indicates the driver passes extra data in
	// its device notifications.
	FeatureNotificationData = uint64(1) << 38
)

// Interrupt status register cause bits.
const (
	// InterruptVRing: the device has used at least one buffer.
	InterruptVRing = uint32(1) << 0

	// InterruptConfig: the configuration of the device has changed.
	InterruptConfig = uint32(1) << 1
)
