//go:build linux || darwin

package pollfd_test

import (
	"testing"
	"time"

	"github.com/sagernet/sing-pollable/common/pollfd"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketpair(t *testing.T) (int, int) {
	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	return pair[0], pair[1]
}

func TestForRead(t *testing.T) {
	t.Parallel()

	record := pollfd.ForRead(42)
	require.Equal(t, int32(42), record.Fd)
	require.Equal(t, int16(unix.POLLIN|unix.POLLERR), record.Events)
	require.Zero(t, record.Revents)
}

func TestPollTimeout(t *testing.T) {
	t.Parallel()

	readFd, writeFd := socketpair(t)
	defer unix.Close(readFd)
	defer unix.Close(writeFd)

	records := []pollfd.Pollfd{pollfd.ForRead(readFd)}
	n, err := pollfd.Poll(records, 0)
	require.NoError(t, err)
	require.Zero(t, n)
	require.False(t, pollfd.Readable(&records[0]))
}

func TestPollReadable(t *testing.T) {
	t.Parallel()

	readFd, writeFd := socketpair(t)
	defer unix.Close(readFd)
	defer unix.Close(writeFd)

	_, err := unix.Write(writeFd, []byte{0})
	require.NoError(t, err)

	records := []pollfd.Pollfd{pollfd.ForRead(readFd)}
	n, err := pollfd.Poll(records, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, pollfd.Readable(&records[0]))
}

func TestPollMixedSet(t *testing.T) {
	t.Parallel()

	idleRead, idleWrite := socketpair(t)
	defer unix.Close(idleRead)
	defer unix.Close(idleWrite)
	busyRead, busyWrite := socketpair(t)
	defer unix.Close(busyRead)
	defer unix.Close(busyWrite)

	_, err := unix.Write(busyWrite, []byte{0})
	require.NoError(t, err)

	records := []pollfd.Pollfd{pollfd.ForRead(idleRead), pollfd.ForRead(busyRead)}
	n, err := pollfd.Poll(records, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, pollfd.Readable(&records[0]))
	require.True(t, pollfd.Readable(&records[1]))
}

func TestWaitRead(t *testing.T) {
	t.Parallel()

	readFd, writeFd := socketpair(t)
	defer unix.Close(readFd)
	defer unix.Close(writeFd)

	go func() {
		time.Sleep(50 * time.Millisecond)
		unix.Write(writeFd, []byte{0})
	}()

	records := []pollfd.Pollfd{pollfd.ForRead(readFd)}
	err := pollfd.WaitRead(records)
	require.NoError(t, err)
	require.True(t, pollfd.Readable(&records[0]))
}

func TestReadableOnPeerClose(t *testing.T) {
	t.Parallel()

	readFd, writeFd := socketpair(t)
	defer unix.Close(readFd)

	require.NoError(t, unix.Close(writeFd))

	records := []pollfd.Pollfd{pollfd.ForRead(readFd)}
	n, err := pollfd.Poll(records, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, pollfd.Readable(&records[0]))
}
