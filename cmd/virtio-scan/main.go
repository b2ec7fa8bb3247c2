//go:build linux

// Command virtio-scan maps candidate MMIO windows and reports the virtio
// devices found in them. Regions come from a YAML manifest (-manifest) or
// from virtio_mmio.device= style arguments.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fslongjin/virtio-drivers/hal"
	"github.com/fslongjin/virtio-drivers/probe"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "virtio-scan: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	manifestPath := flag.String("manifest", "", "YAML manifest listing MMIO regions to probe")
	memPath := flag.String("mem", "/dev/mem", "Device node to map physical regions from")
	features := flag.Bool("features", false, "Also report device features and queue sizes")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [<size>@<base>:<irq> ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Probe MMIO regions for virtio devices.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s -manifest devices.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s 4k@0x10001000:42\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	var regions []probe.Region
	if *manifestPath != "" {
		manifest, err := probe.LoadManifest(*manifestPath)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		regions = manifest.Regions
	}
	for _, arg := range flag.Args() {
		r, err := probe.ParseDeviceParam(arg)
		if err != nil {
			return err
		}
		if r.Size == 0 {
			r.Size = probe.DefaultRegionSize
		}
		regions = append(regions, r)
	}
	if len(regions) == 0 {
		flag.Usage()
		return fmt.Errorf("no regions to probe")
	}

	open := func(base, size uint64) (hal.Region, error) {
		return hal.MapResource(*memPath, base, size)
	}
	devices, err := probe.Scan(open, regions)
	if err != nil {
		return err
	}

	for _, d := range devices {
		t := d.Transport
		fmt.Printf("%#010x  irq %-3d  %-10s  %s  vendor %#x\n",
			d.Region.Base, d.Region.IRQ, t.DeviceType(), t.Version(), t.VendorID())
		if *features {
			fmt.Printf("            features %#016x  max queue size %d\n",
				t.ReadDeviceFeatures(), t.MaxQueueSize())
		}
	}
	if len(devices) == 0 {
		slog.Info("no virtio devices found", "regions", len(regions))
	}
	return nil
}
