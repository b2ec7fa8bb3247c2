package virtio

import "fmt"

// Negotiate performs the initialization handshake up to and including
// feature negotiation: reset, ACKNOWLEDGE, DRIVER, then offer the
// intersection of the device's features and supported, and confirm
// FEATURES_OK. It returns the negotiated feature set.
//
// On rejection the device is marked FAILED and an error is returned. The
// caller finishes bring-up by configuring queues and then setting
// DRIVER_OK on top of the returned status flags.
func Negotiate(t Transport, supported uint64) (uint64, error) {
	t.SetStatus(0)
	t.SetStatus(StatusAcknowledge)
	t.SetStatus(StatusAcknowledge | StatusDriver)

	features := t.ReadDeviceFeatures() & supported
	t.WriteDriverFeatures(features)

	status := StatusAcknowledge | StatusDriver | StatusFeaturesOK
	t.SetStatus(status)
	if !t.Status().Has(StatusFeaturesOK) {
		t.SetStatus(status | StatusFailed)
		return 0, fmt.Errorf("virtio: device rejected driver features %#x", features)
	}
	return features, nil
}
