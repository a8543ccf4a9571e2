//go:build linux || darwin

package pollable

import (
	"io"
	"net"

	"github.com/sagernet/sing-pollable/common"
	E "github.com/sagernet/sing-pollable/common/exceptions"
	"github.com/sagernet/sing-pollable/common/pollfd"
	"golang.org/x/sys/unix"
)

var (
	_ Pollable = Descriptor(0)
	_ Stream   = (*UnixStream)(nil)
	_ Stream   = (*LayeredStream)(nil)
)

// Descriptor is a raw platform descriptor placed in a poll record set as is.
type Descriptor int

func (d Descriptor) Pollfd() pollfd.Pollfd {
	return pollfd.ForRead(int(d))
}

func (d Descriptor) SetNonblock(nonblock bool) error {
	return unix.SetNonblock(int(d), nonblock)
}

// UnixStream is a connected domain socket stream.
type UnixStream struct {
	*net.UnixConn
	rawFd int
}

func NewUnixStream(conn *net.UnixConn) (*UnixStream, error) {
	rawFd, err := common.GetFileDescriptor(conn)
	if err != nil {
		return nil, E.Cause(err, "get stream descriptor")
	}
	return &UnixStream{UnixConn: conn, rawFd: int(rawFd)}, nil
}

func (s *UnixStream) Pollfd() pollfd.Pollfd {
	return pollfd.ForRead(s.rawFd)
}

func (s *UnixStream) SetNonblock(nonblock bool) error {
	return unix.SetNonblock(s.rawFd, nonblock)
}

// LayeredStream carries reads and writes through a security or framing layer
// while readiness and blocking mode stay on the transport owning the
// descriptor.
type LayeredStream struct {
	io.ReadWriter
	transport net.Conn
	rawFd     int
}

func NewLayeredStream(layer io.ReadWriter, transport net.Conn) (*LayeredStream, error) {
	rawFd, err := common.TryFileDescriptor(transport)
	if err != nil {
		return nil, E.Cause(err, "get transport descriptor")
	}
	return &LayeredStream{ReadWriter: layer, transport: transport, rawFd: int(rawFd)}, nil
}

func (s *LayeredStream) Pollfd() pollfd.Pollfd {
	return pollfd.ForRead(s.rawFd)
}

func (s *LayeredStream) SetNonblock(nonblock bool) error {
	return unix.SetNonblock(s.rawFd, nonblock)
}

func (s *LayeredStream) Close() error {
	return s.transport.Close()
}
