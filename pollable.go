package pollable

import (
	"io"

	"github.com/sagernet/sing-pollable/common/pollfd"
)

// Pollable is a transport whose readiness can be observed in a poll record
// set: it produces a readiness record and toggles the blocking mode of its
// descriptor.
type Pollable interface {
	Pollfd() pollfd.Pollfd
	SetNonblock(nonblock bool) error
}

// Stream is a byte stream that can share a poll record set with any other
// Pollable transport.
type Stream interface {
	io.Reader
	io.Writer
	Pollable
}
