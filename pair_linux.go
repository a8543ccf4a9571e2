//go:build linux

package pollable

import (
	E "github.com/sagernet/sing-pollable/common/exceptions"
	"golang.org/x/sys/unix"
)

// The write end stays blocking: dropping a wake byte on EAGAIN would leave a
// queued item no poller wakes up for.
func newWakePair() (readFd int, writeFd int, err error) {
	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, -1, E.Cause(err, "create wake pipe")
	}
	err = unix.SetNonblock(pair[0], true)
	if err != nil {
		unix.Close(pair[0])
		unix.Close(pair[1])
		return -1, -1, E.Cause(err, "configure wake pipe")
	}
	return pair[0], pair[1], nil
}
