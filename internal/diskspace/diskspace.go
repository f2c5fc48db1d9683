// Package diskspace checks available space on the volume holding the
// public downloads area before a batch export writes to it.
package diskspace

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// DefaultSafetyMargin leaves headroom on the destination volume so an export
// never fills the disk to the last byte.
const DefaultSafetyMargin = 1.1

// InsufficientSpaceError indicates there is not enough space on the
// destination volume for the requested file.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// IsInsufficientSpaceError reports whether err is an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	_, ok := err.(*InsufficientSpaceError)
	return ok
}

// VolumeChecker probes free space on the volume containing a fixed path.
type VolumeChecker struct {
	path   string
	margin float64
}

// NewVolumeChecker creates a checker for the volume containing path.
// margin multiplies the required size (e.g. 1.1 for a 10% buffer);
// values below 1 fall back to DefaultSafetyMargin.
func NewVolumeChecker(path string, margin float64) *VolumeChecker {
	if margin < 1 {
		margin = DefaultSafetyMargin
	}
	return &VolumeChecker{path: path, margin: margin}
}

// Check returns an InsufficientSpaceError when the volume cannot hold
// requiredBytes plus the safety margin.
func (c *VolumeChecker) Check(requiredBytes int64) error {
	usage, err := disk.Usage(c.path)
	if err != nil {
		// If the volume cannot be probed (network mounts, odd filesystems),
		// let the operation proceed and fail naturally on write.
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * c.margin)
	available := int64(usage.Free)

	if available < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           c.path,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: available,
		}
	}
	return nil
}

// HasSufficientSpace reports whether the volume can hold requiredBytes.
func (c *VolumeChecker) HasSufficientSpace(requiredBytes int64) bool {
	return c.Check(requiredBytes) == nil
}
