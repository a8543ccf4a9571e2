//go:build linux || darwin

package main

import (
	"errors"
	"net"
	"os"
	"sync"

	pollable "github.com/sagernet/sing-pollable"
	E "github.com/sagernet/sing-pollable/common/exceptions"
	_ "github.com/sagernet/sing-pollable/common/log"
	"github.com/sagernet/sing-pollable/common/pollfd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

type flags struct {
	Senders  int
	Messages int
	Verbose  bool
}

func main() {
	f := new(flags)

	command := &cobra.Command{
		Use:     "pollable-chk",
		Short:   "exercise a pollable channel next to a socket in a single poll record set",
		Version: pollable.VersionStr,
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd, f)
		},
	}

	command.Flags().IntVarP(&f.Senders, "senders", "s", 4, "Set the number of cloned senders.")
	command.Flags().IntVarP(&f.Messages, "messages", "m", 250, "Set the message count per sender.")
	command.Flags().BoolVarP(&f.Verbose, "verbose", "v", false, "Set verbose mode.")
	command.AddCommand(tlsCommand())

	err := command.Execute()
	if err != nil {
		logrus.Fatal(err)
	}
}

func run(cmd *cobra.Command, f *flags) {
	if f.Verbose {
		logrus.SetLevel(logrus.TraceLevel)
	}
	err := check(f.Senders, f.Messages)
	if err != nil {
		logrus.Fatal(err)
	}
}

// message carries its origin so the consumer can verify per producer order.
type message struct {
	producer int
	index    int
}

func check(senders int, messages int) error {
	if senders < 1 {
		senders = 1
	}
	sender, receiver, err := pollable.NewChannel[message]()
	if err != nil {
		return err
	}
	defer receiver.Close()

	local, peer, err := connPair()
	if err != nil {
		return err
	}
	defer peer.Close()

	stream, err := pollable.NewUnixStream(local)
	if err != nil {
		return err
	}
	defer stream.Close()

	go func() {
		buffer := make([]byte, 64)
		length, readErr := peer.Read(buffer)
		if readErr != nil {
			if !E.IsClosed(readErr) {
				logrus.Error("echo peer: ", readErr)
			}
			return
		}
		_, writeErr := peer.Write(buffer[:length])
		if writeErr != nil {
			logrus.Error("echo peer: ", writeErr)
		}
	}()

	producers := make([]*pollable.Sender[message], 0, senders)
	producers = append(producers, sender)
	for i := 1; i < senders; i++ {
		clone, cloneErr := sender.Clone()
		if cloneErr != nil {
			return cloneErr
		}
		producers = append(producers, clone)
	}
	var group sync.WaitGroup
	for index, producer := range producers {
		group.Add(1)
		go func(index int, producer *pollable.Sender[message]) {
			defer group.Done()
			defer producer.Close()
			for i := 0; i < messages; i++ {
				sendErr := producer.Send(message{producer: index, index: i})
				if sendErr != nil {
					logrus.Error("send: ", sendErr)
					return
				}
			}
		}(index, producer)
	}

	_, err = stream.Write([]byte("pollable"))
	if err != nil {
		return err
	}

	received := 0
	nextIndex := make([]int, senders)
	channelDone := false
	echoDone := false
	records := make([]pollfd.Pollfd, 0, 2)
	echoBuffer := make([]byte, 64)
	for !channelDone || !echoDone {
		records = records[:0]
		channelIndex := -1
		echoIndex := -1
		if !channelDone {
			channelIndex = len(records)
			records = append(records, receiver.Pollfd())
		}
		if !echoDone {
			echoIndex = len(records)
			records = append(records, stream.Pollfd())
		}
		err = pollfd.WaitRead(records)
		if err != nil {
			return err
		}
		if channelIndex >= 0 && pollfd.Readable(&records[channelIndex]) {
			for {
				m, receiveErr := receiver.TryReceive()
				if receiveErr == nil {
					if m.index != nextIndex[m.producer] {
						return E.New("producer ", m.producer, " out of order: got message ", m.index, ", expected ", nextIndex[m.producer])
					}
					nextIndex[m.producer]++
					logrus.Trace("received producer ", m.producer, " message ", m.index)
					received++
					continue
				}
				if errors.Is(receiveErr, pollable.ErrDisconnected) {
					channelDone = true
				} else if !errors.Is(receiveErr, pollable.ErrWouldBlock) {
					return receiveErr
				}
				break
			}
		}
		if echoIndex >= 0 && pollfd.Readable(&records[echoIndex]) {
			length, readErr := stream.Read(echoBuffer)
			if readErr != nil {
				return readErr
			}
			logrus.Info("echo reply: ", string(echoBuffer[:length]))
			echoDone = true
		}
	}
	group.Wait()

	logrus.Info("received ", received, " of ", senders*messages, " messages")
	if received != senders*messages {
		return E.New("missing messages: got ", received, ", expected ", senders*messages)
	}
	return nil
}

func connPair() (*net.UnixConn, *net.UnixConn, error) {
	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, E.Cause(err, "create socket pair")
	}
	localFile := os.NewFile(uintptr(pair[0]), "echo-local")
	peerFile := os.NewFile(uintptr(pair[1]), "echo-peer")
	defer localFile.Close()
	defer peerFile.Close()
	localConn, err := net.FileConn(localFile)
	if err != nil {
		return nil, nil, err
	}
	peerConn, err := net.FileConn(peerFile)
	if err != nil {
		localConn.Close()
		return nil, nil, err
	}
	return localConn.(*net.UnixConn), peerConn.(*net.UnixConn), nil
}
