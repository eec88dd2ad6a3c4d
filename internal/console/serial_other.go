//go:build !linux

package console

import (
	"errors"
	"os"
)

// OpenSerial is not available on non-Linux platforms.
func OpenSerial(path string) (*os.File, error) {
	return nil, errors.New("console: serial not supported on this platform (requires Linux)")
}
