//go:build linux

package fs

import (
	"errors"

	"golang.org/x/sys/unix"
)

func datasync(fd uintptr, f File) error {
	err := unix.Fdatasync(int(fd)) //nolint:gosec
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTSUP) {
		return f.Sync()
	}
	return err
}
