// Package probe discovers virtio MMIO devices. Regions to inspect come
// either from a YAML manifest or from kernel-style virtio_mmio.device=
// parameters; Scan maps each region, validates it, and returns a transport
// for every region holding a real device.
package probe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRegionSize is the usual size of a virtio MMIO register window:
// the register block plus config space.
const DefaultRegionSize = 0x200

// Region describes one candidate MMIO window.
type Region struct {
	Base uint64 `yaml:"base"`
	Size uint64 `yaml:"size,omitempty"`
	IRQ  uint32 `yaml:"irq"`
	ID   int    `yaml:"id,omitempty"`
}

// Manifest is an on-disk list of MMIO regions to probe.
type Manifest struct {
	Version int      `yaml:"version"`
	Regions []Region `yaml:"regions"`
}

func (m *Manifest) normalize() {
	if m.Version == 0 {
		m.Version = 1
	}
	for i := range m.Regions {
		if m.Regions[i].Size == 0 {
			m.Regions[i].Size = DefaultRegionSize
		}
	}
}

// LoadManifest reads and parses a region manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	m.normalize()
	return m, nil
}
