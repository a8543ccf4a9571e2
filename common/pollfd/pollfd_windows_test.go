package pollfd_test

import (
	"net"
	"syscall"
	"testing"

	"github.com/sagernet/sing-pollable/common/pollfd"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func socketHandle(t *testing.T, conn net.Conn) windows.Handle {
	syscallConn, ok := conn.(syscall.Conn)
	require.True(t, ok)
	rawConn, err := syscallConn.SyscallConn()
	require.NoError(t, err)
	var fd uintptr
	err = rawConn.Control(func(f uintptr) { fd = f })
	require.NoError(t, err)
	return windows.Handle(fd)
}

func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			accepted <- conn
		}
	}()

	clientConn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	serverConn := <-accepted
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})
	return serverConn, clientConn
}

func TestPollSocketTimeout(t *testing.T) {
	t.Parallel()

	_, clientConn := tcpPair(t)

	records := []pollfd.Pollfd{pollfd.ForRead(socketHandle(t, clientConn))}
	n, err := pollfd.Poll(records, 0)
	require.NoError(t, err)
	require.Zero(t, n)
	require.False(t, pollfd.Readable(&records[0]))
}

func TestPollSocketReadable(t *testing.T) {
	t.Parallel()

	serverConn, clientConn := tcpPair(t)

	_, err := serverConn.Write([]byte{0})
	require.NoError(t, err)

	records := []pollfd.Pollfd{pollfd.ForRead(socketHandle(t, clientConn))}
	n, err := pollfd.Poll(records, 5000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, pollfd.Readable(&records[0]))
}
