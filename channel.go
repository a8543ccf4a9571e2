//go:build linux || darwin

package pollable

import (
	"os"
	"sync"

	"github.com/eapache/queue/v2"
	"github.com/sagernet/sing-pollable/common"
	E "github.com/sagernet/sing-pollable/common/exceptions"
	"github.com/sagernet/sing-pollable/common/pollfd"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock reports a momentarily empty queue, not a failure.
	// Callers loop on it.
	ErrWouldBlock = E.New("pollable: would block")

	// ErrDisconnected reports a channel with no live counterpart.
	ErrDisconnected = E.New("pollable: disconnected")
)

var wakeByte = []byte{'x'}

// channel couples the item queue with the wake pipe: one byte is written
// before every enqueue completes, at most one byte is drained after every
// dequeue. The pipe backlog never falls below the queue backlog, so the read
// end is readable whenever items are pending.
type channel[T any] struct {
	access   sync.Mutex
	backlog  *queue.Queue[T]
	senders  int
	receiver bool
}

// NewChannel creates a multi producer, single consumer FIFO whose receiver
// can wait in a poll record set alongside socket descriptors. The queue is
// paired with a local socket pair serving as the wake pipe.
func NewChannel[T any]() (*Sender[T], *Receiver[T], error) {
	readFd, writeFd, err := newWakePair()
	if err != nil {
		return nil, nil, err
	}
	c := &channel[T]{
		backlog:  queue.New[T](),
		senders:  1,
		receiver: true,
	}
	return &Sender[T]{channel: c, writeFd: writeFd}, &Receiver[T]{channel: c, readFd: readFd}, nil
}

// Sender is the producer half of a pollable channel. A handle must not be
// shared across goroutines, concurrent producers each hold their own Clone.
// Operations on a closed handle report os.ErrClosed.
type Sender[T any] struct {
	channel *channel[T]
	writeFd int
	closed  bool
}

// Send wakes the receiver, then queues item. The wake write comes first: if
// it fails the item is not queued, so no queued item ever lacks a wake byte.
func (s *Sender[T]) Send(item T) error {
	c := s.channel
	c.access.Lock()
	if s.closed {
		c.access.Unlock()
		return os.ErrClosed
	}
	c.access.Unlock()
	for {
		_, err := unix.Write(s.writeFd, wakeByte)
		if err == nil {
			break
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EPIPE {
			return ErrDisconnected
		}
		return E.Cause(err, "write wake byte")
	}
	c.access.Lock()
	defer c.access.Unlock()
	if !c.receiver {
		return ErrDisconnected
	}
	c.backlog.Add(item)
	return nil
}

// Clone duplicates the write descriptor so the new handle has an independent
// lifetime over the same channel.
func (s *Sender[T]) Clone() (*Sender[T], error) {
	c := s.channel
	c.access.Lock()
	defer c.access.Unlock()
	if s.closed {
		return nil, os.ErrClosed
	}
	newFd, err := unix.Dup(s.writeFd)
	if err != nil {
		return nil, E.Cause(err, "duplicate write descriptor")
	}
	unix.CloseOnExec(newFd)
	c.senders++
	return &Sender[T]{channel: c, writeFd: newFd}, nil
}

func (s *Sender[T]) Close() error {
	c := s.channel
	c.access.Lock()
	if s.closed {
		c.access.Unlock()
		return nil
	}
	s.closed = true
	c.senders--
	c.access.Unlock()
	return unix.Close(s.writeFd)
}

// Receiver is the consumer half of a pollable channel. It satisfies Pollable
// through the pipe read end. Single consumer, not clonable. Operations on a
// closed handle report os.ErrClosed.
type Receiver[T any] struct {
	channel *channel[T]
	readFd  int
	closed  bool
}

var _ Pollable = (*Receiver[any])(nil)

// TryReceive pops the oldest queued item without blocking. It returns
// ErrWouldBlock while the queue is momentarily empty and ErrDisconnected once
// every sender is closed and the queue is drained.
func (r *Receiver[T]) TryReceive() (T, error) {
	c := r.channel
	c.access.Lock()
	if r.closed {
		c.access.Unlock()
		return common.DefaultValue[T](), os.ErrClosed
	}
	if c.backlog.Length() > 0 {
		item := c.backlog.Remove()
		c.access.Unlock()
		r.drainWakeByte()
		return item, nil
	}
	disconnected := c.senders == 0
	c.access.Unlock()
	if disconnected {
		return common.DefaultValue[T](), ErrDisconnected
	}
	return common.DefaultValue[T](), ErrWouldBlock
}

// Drain errors are not returned, the item was already delivered and a stray
// byte only costs one spurious wake-up. EAGAIN is silent, anything else gets
// a diagnostic since it means the pipe was touched from outside.
func (r *Receiver[T]) drainWakeByte() {
	var wake [1]byte
	for {
		_, err := unix.Read(r.readFd, wake[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil && err != unix.EAGAIN {
			logrus.Warn("pollable: drain wake byte: ", err)
		}
		return
	}
}

func (r *Receiver[T]) Pollfd() pollfd.Pollfd {
	return pollfd.ForRead(r.readFd)
}

func (r *Receiver[T]) SetNonblock(nonblock bool) error {
	return unix.SetNonblock(r.readFd, nonblock)
}

func (r *Receiver[T]) Close() error {
	c := r.channel
	c.access.Lock()
	if r.closed {
		c.access.Unlock()
		return nil
	}
	r.closed = true
	c.receiver = false
	c.backlog = queue.New[T]()
	c.access.Unlock()
	return unix.Close(r.readFd)
}
