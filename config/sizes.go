package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize converts a size literal ("64KB", "1MB", "256KiB", or a raw byte
// count) into bytes. All multipliers are binary: 1KB == 1KiB == 1024 bytes,
// matching how write sizes are quoted for SMB.
func ParseSize(s string) (int64, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if t == "" {
		return 0, fmt.Errorf("empty size literal")
	}

	mult := int64(1)
	switch {
	case strings.HasSuffix(t, "KIB"), strings.HasSuffix(t, "KB"):
		mult = 1024
	case strings.HasSuffix(t, "MIB"), strings.HasSuffix(t, "MB"):
		mult = 1024 * 1024
	case strings.HasSuffix(t, "GIB"), strings.HasSuffix(t, "GB"):
		mult = 1024 * 1024 * 1024
	}
	if mult > 1 {
		t = strings.TrimSuffix(t, "IB")
		t = strings.TrimSuffix(t, "B")
		t = strings.TrimSpace(t[:len(t)-1])
	} else {
		t = strings.TrimSpace(strings.TrimSuffix(t, "B"))
	}

	n, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size literal %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("size must not be negative, got %q", s)
	}
	return n * mult, nil
}

// FormatSize renders a byte count with binary units, e.g. 65536 -> "64 KiB".
func FormatSize(n int64) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.IBytes(uint64(n))
}
