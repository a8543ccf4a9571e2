//go:build unix

package pollfd

import (
	E "github.com/sagernet/sing-pollable/common/exceptions"
	"golang.org/x/sys/unix"
)

// Pollfd is the record unit handed to the polling syscall: a descriptor, the
// requested interest and the observed result flags.
type Pollfd = unix.PollFd

func ForRead(fd int) Pollfd {
	return Pollfd{Fd: int32(fd), Events: unix.POLLIN | unix.POLLERR}
}

func Readable(record *Pollfd) bool {
	return record.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0
}

// Poll blocks until a record becomes ready or timeoutMs expires. A negative
// timeout waits forever. Interrupted calls are retried.
func Poll(records []Pollfd, timeoutMs int) (int, error) {
	for {
		n, err := unix.Poll(records, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, E.Cause(err, "poll descriptors")
		}
		return n, nil
	}
}
