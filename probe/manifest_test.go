package probe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	data := `regions:
  - base: 0x10001000
    irq: 42
  - base: 0x10002000
    size: 0x400
    irq: 43
    id: 2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Version != 1 {
		t.Errorf("Version = %d, want 1 (default)", m.Version)
	}
	if len(m.Regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(m.Regions))
	}

	want0 := Region{Base: 0x10001000, Size: DefaultRegionSize, IRQ: 42}
	if m.Regions[0] != want0 {
		t.Errorf("region 0 = %+v, want %+v", m.Regions[0], want0)
	}
	want1 := Region{Base: 0x10002000, Size: 0x400, IRQ: 43, ID: 2}
	if m.Regions[1] != want1 {
		t.Errorf("region 1 = %+v, want %+v", m.Regions[1], want1)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadManifest of a missing file succeeded")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("regions: {not: a list}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("LoadManifest of malformed YAML succeeded")
	}
}
