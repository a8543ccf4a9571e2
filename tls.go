//go:build linux || darwin

package pollable

import (
	"crypto/tls"
	"syscall"

	"github.com/sagernet/sing-pollable/common"
	E "github.com/sagernet/sing-pollable/common/exceptions"
	"github.com/sagernet/sing-pollable/common/pollfd"
	"golang.org/x/sys/unix"
)

var _ Stream = (*TLSStream)(nil)

// TLSStream is a TLS session whose readiness and blocking mode belong to the
// transport under it, never the TLS layer. Records already buffered inside
// the session do not show up on the descriptor: callers finish the handshake
// before polling and drain whole records on wake.
type TLSStream struct {
	*tls.Conn
	rawFd int
}

func NewTLSStream(conn *tls.Conn) (*TLSStream, error) {
	transport, isSyscallConn := conn.NetConn().(syscall.Conn)
	if !isSyscallConn {
		return nil, E.New("tls transport does not expose a descriptor")
	}
	rawFd, err := common.GetFileDescriptor(transport)
	if err != nil {
		return nil, E.Cause(err, "get transport descriptor")
	}
	return &TLSStream{Conn: conn, rawFd: int(rawFd)}, nil
}

func (s *TLSStream) Pollfd() pollfd.Pollfd {
	return pollfd.ForRead(s.rawFd)
}

func (s *TLSStream) SetNonblock(nonblock bool) error {
	return unix.SetNonblock(s.rawFd, nonblock)
}
