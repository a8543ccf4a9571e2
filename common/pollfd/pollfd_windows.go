package pollfd

import (
	E "github.com/sagernet/sing-pollable/common/exceptions"
	"golang.org/x/sys/windows"
)

const (
	pollRDNorm = 0x0100
	pollRDBand = 0x0200
	pollIn     = pollRDNorm | pollRDBand
	pollErr    = 0x0001
	pollHup    = 0x0002
	pollNval   = 0x0004
)

// Pollfd is the record unit handed to WSAPoll: a socket handle, the requested
// interest and the observed result flags.
type Pollfd struct {
	Fd      windows.Handle
	Events  int16
	Revents int16
}

// ForRead requests readability only. WSAPoll rejects error flags in the
// interest mask, they are implied and reported through Revents.
func ForRead(fd windows.Handle) Pollfd {
	return Pollfd{Fd: fd, Events: pollIn}
}

func Readable(record *Pollfd) bool {
	return record.Revents&(pollIn|pollErr|pollHup|pollNval) != 0
}

// Poll blocks until a record becomes ready or timeoutMs expires. A negative
// timeout waits forever.
func Poll(records []Pollfd, timeoutMs int) (int, error) {
	var first *Pollfd
	if len(records) > 0 {
		first = &records[0]
	}
	n, err := wsaPoll(first, uint32(len(records)), int32(timeoutMs))
	if err != nil {
		return 0, E.Cause(err, "poll descriptors")
	}
	return int(n), nil
}
