package common

import (
	"os"
	"syscall"
)

func TryFileDescriptor(conn any) (uintptr, error) {
	if syscallConn, isSyscallConn := conn.(syscall.Conn); isSyscallConn {
		return GetFileDescriptor(syscallConn)
	}
	return 0, os.ErrInvalid
}

func GetFileDescriptor(conn syscall.Conn) (uintptr, error) {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var rawFd uintptr
	err = rawConn.Control(func(fd uintptr) {
		rawFd = fd
	})
	return rawFd, err
}
