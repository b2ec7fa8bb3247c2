package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDeviceParam parses the value of a virtio_mmio.device= kernel
// parameter: <size>@<base>:<irq>[:<id>], where size is a byte count with
// an optional k/K or m/M suffix and base is a hexadecimal address. The
// "virtio_mmio.device=" prefix is accepted and stripped if present.
func ParseDeviceParam(s string) (Region, error) {
	s = strings.TrimPrefix(s, "virtio_mmio.device=")

	sizePart, rest, ok := strings.Cut(s, "@")
	if !ok {
		return Region{}, fmt.Errorf("probe: device parameter %q: missing '@'", s)
	}
	basePart, irqPart, ok := strings.Cut(rest, ":")
	if !ok {
		return Region{}, fmt.Errorf("probe: device parameter %q: missing ':<irq>'", s)
	}

	size, err := parseSize(sizePart)
	if err != nil {
		return Region{}, fmt.Errorf("probe: device parameter %q: %w", s, err)
	}

	base, err := strconv.ParseUint(basePart, 0, 64)
	if err != nil {
		return Region{}, fmt.Errorf("probe: device parameter %q: bad base address: %w", s, err)
	}

	r := Region{Base: base, Size: size}
	irqField := irqPart
	if irqStr, idStr, hasID := strings.Cut(irqPart, ":"); hasID {
		irqField = irqStr
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return Region{}, fmt.Errorf("probe: device parameter %q: bad platform device id: %w", s, err)
		}
		r.ID = id
	}
	irq, err := strconv.ParseUint(irqField, 10, 32)
	if err != nil {
		return Region{}, fmt.Errorf("probe: device parameter %q: bad irq: %w", s, err)
	}
	r.IRQ = uint32(irq)
	return r, nil
}

// FormatDeviceParam renders a region in the virtio_mmio.device= value
// syntax, e.g. "4k@0x10001000:42".
func FormatDeviceParam(r Region) string {
	size := r.Size
	if size == 0 {
		size = DefaultRegionSize
	}
	param := fmt.Sprintf("%s@0x%x:%d", formatSize(size), r.Base, r.IRQ)
	if r.ID != 0 {
		param += fmt.Sprintf(":%d", r.ID)
	}
	return param
}

func parseSize(s string) (uint64, error) {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "k"), strings.HasSuffix(s, "K"):
		mult = 1 << 10
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "m"), strings.HasSuffix(s, "M"):
		mult = 1 << 20
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad size: %w", err)
	}
	return n * mult, nil
}

func formatSize(n uint64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dm", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dk", n>>10)
	default:
		return strconv.FormatUint(n, 10)
	}
}
