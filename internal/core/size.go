package core

import (
	"fmt"
	"math"
)

// sizeUnits is the binary-prefix ladder walked by FormatSize.
var sizeUnits = []string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "Zi"}

// FormatSize renders a byte count as a human-readable binary-prefix string,
// e.g. 1536 -> "1.5KiB". Values past the Zi step are reported in Yi.
func FormatSize(num float64) string {
	for _, unit := range sizeUnits {
		if math.Abs(num) < 1024.0 {
			return fmt.Sprintf("%3.1f%sB", num, unit)
		}
		num /= 1024.0
	}
	return fmt.Sprintf("%.1fYiB", num)
}
