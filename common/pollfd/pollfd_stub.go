//go:build !unix && !windows

package pollfd

import (
	E "github.com/sagernet/sing-pollable/common/exceptions"
)

// Pollfd is the record unit handed to the polling syscall on supported
// platforms.
type Pollfd struct {
	Fd      int32
	Events  int16
	Revents int16
}

func ForRead(fd int) Pollfd {
	return Pollfd{Fd: int32(fd)}
}

func Readable(record *Pollfd) bool {
	return false
}

func Poll(records []Pollfd, timeoutMs int) (int, error) {
	return 0, E.New("descriptor polling not supported on this platform")
}
