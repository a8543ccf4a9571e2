package tls

import (
	"crypto/tls"
	"net"
)

// Listener wraps accepted connections in server side TLS sessions.
type Listener struct {
	net.Listener
	config *tls.Config
}

func NewListener(inner net.Listener, config *tls.Config) net.Listener {
	l := new(Listener)
	l.Listener = inner
	l.config = config
	return l
}

func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return tls.Server(conn, l.config), nil
}
