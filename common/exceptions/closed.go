package exceptions

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

var closedErrors = []error{
	io.EOF,
	io.ErrClosedPipe,
	net.ErrClosed,
	os.ErrClosed,
	syscall.EPIPE,
	syscall.ECONNRESET,
}

func IsClosed(err error) bool {
	for _, closedError := range closedErrors {
		if errors.Is(err, closedError) {
			return true
		}
	}
	return false
}
