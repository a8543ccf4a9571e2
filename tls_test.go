//go:build linux || darwin

package pollable_test

import (
	"crypto/tls"
	"net"
	"syscall"
	"testing"

	pollable "github.com/sagernet/sing-pollable"
	"github.com/sagernet/sing-pollable/common"
	"github.com/sagernet/sing-pollable/common/pollfd"
	commonTLS "github.com/sagernet/sing-pollable/common/tls"

	"github.com/stretchr/testify/require"
)

func TestTLSStream(t *testing.T) {
	t.Parallel()

	certificate, err := commonTLS.GenerateCertificate("localhost")
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	tlsListener := commonTLS.NewListener(listener, &tls.Config{Certificates: []tls.Certificate{*certificate}})

	serverErrors := make(chan error, 1)
	go func() {
		conn, acceptErr := tlsListener.Accept()
		if acceptErr != nil {
			serverErrors <- acceptErr
			return
		}
		defer conn.Close()
		serverConn := conn.(*tls.Conn)
		if handshakeErr := serverConn.Handshake(); handshakeErr != nil {
			serverErrors <- handshakeErr
			return
		}
		if _, writeErr := serverConn.Write([]byte("hello")); writeErr != nil {
			serverErrors <- writeErr
			return
		}
		buffer := make([]byte, 16)
		if _, readErr := serverConn.Read(buffer); readErr != nil {
			serverErrors <- readErr
			return
		}
		serverErrors <- nil
	}()

	transport, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer transport.Close()

	clientConn := tls.Client(transport, &tls.Config{ServerName: "localhost", InsecureSkipVerify: true})
	require.NoError(t, clientConn.Handshake())

	stream, err := pollable.NewTLSStream(clientConn)
	require.NoError(t, err)

	rawFd, err := common.GetFileDescriptor(transport.(syscall.Conn))
	require.NoError(t, err)
	require.Equal(t, int32(rawFd), stream.Pollfd().Fd)

	records := []pollfd.Pollfd{stream.Pollfd()}
	require.NoError(t, pollfd.WaitRead(records))
	require.True(t, pollfd.Readable(&records[0]))

	buffer := make([]byte, 16)
	length, err := stream.Read(buffer)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buffer[:length]))

	_, err = stream.Write([]byte("bye"))
	require.NoError(t, err)
	require.NoError(t, <-serverErrors)
}

func TestTLSStreamNoDescriptor(t *testing.T) {
	t.Parallel()

	left, right := net.Pipe()
	defer common.Close(left, right)

	clientConn := tls.Client(left, &tls.Config{InsecureSkipVerify: true})
	_, err := pollable.NewTLSStream(clientConn)
	require.Error(t, err)
}
