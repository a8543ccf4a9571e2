//go:build linux || darwin

package main

import (
	cTLS "crypto/tls"
	"encoding/binary"
	"encoding/json"
	"io"
	"io/ioutil"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/refraction-networking/utls"
	pollable "github.com/sagernet/sing-pollable"
	E "github.com/sagernet/sing-pollable/common/exceptions"
	"github.com/sagernet/sing-pollable/common/log"
	"github.com/sagernet/sing-pollable/common/pollfd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/dns/dnsmessage"
)

var dotLogger = log.NewLogger("dot")

type tlsFlags struct {
	Server      string `json:"server"`
	ServerPort  uint16 `json:"server_port"`
	ServerName  string `json:"server_name"`
	Domain      string `json:"domain"`
	Fingerprint string `json:"fingerprint"`
	Insecure    bool   `json:"insecure"`
	Timeout     int    `json:"timeout"`
	Verbose     bool   `json:"verbose"`
	ConfigFile  string
}

func tlsCommand() *cobra.Command {
	f := new(tlsFlags)

	command := &cobra.Command{
		Use:   "tls",
		Short: "resolve a domain over DNS over TLS, waiting for the reply in a poll record set",
		Run: func(cmd *cobra.Command, args []string) {
			runTLS(cmd, f)
		},
	}

	command.Flags().StringVarP(&f.Server, "server", "s", "", "Set the resolver's hostname or IP, 1.1.1.1 when unset.")
	command.Flags().Uint16VarP(&f.ServerPort, "server-port", "p", 0, "Set the resolver's port number, 853 when unset.")
	command.Flags().StringVarP(&f.ServerName, "server-name", "n", "", "Set the TLS server name, the resolver address when unset.")
	command.Flags().StringVarP(&f.Domain, "domain", "d", "", "Set the domain to resolve, google.com when unset.")
	command.Flags().StringVarP(&f.Fingerprint, "fingerprint", "f", "", "Mimic a browser client hello (chrome, firefox, ios, random).")
	command.Flags().BoolVarP(&f.Insecure, "insecure", "i", false, "Skip certificate verification.")
	command.Flags().IntVarP(&f.Timeout, "timeout", "t", 0, "Set the reply wait timeout in milliseconds, 5000 when unset.")
	command.Flags().BoolVarP(&f.Verbose, "verbose", "v", false, "Set verbose mode.")
	command.Flags().StringVarP(&f.ConfigFile, "config", "c", "", "Use a configuration file.")
	return command
}

func runTLS(cmd *cobra.Command, f *tlsFlags) {
	err := probe(f)
	if err != nil {
		logrus.StandardLogger().Log(logrus.FatalLevel, err, "\n\n")
		cmd.Help()
		os.Exit(1)
	}
}

func probe(f *tlsFlags) error {
	if f.ConfigFile != "" {
		configFile, err := ioutil.ReadFile(f.ConfigFile)
		if err != nil {
			return E.Cause(err, "read config file")
		}
		flagsNew := new(tlsFlags)
		err = json.Unmarshal(configFile, flagsNew)
		if err != nil {
			return E.Cause(err, "decode config file")
		}
		if flagsNew.Server != "" && f.Server == "" {
			f.Server = flagsNew.Server
		}
		if flagsNew.ServerPort != 0 && f.ServerPort == 0 {
			f.ServerPort = flagsNew.ServerPort
		}
		if flagsNew.ServerName != "" && f.ServerName == "" {
			f.ServerName = flagsNew.ServerName
		}
		if flagsNew.Domain != "" && f.Domain == "" {
			f.Domain = flagsNew.Domain
		}
		if flagsNew.Fingerprint != "" && f.Fingerprint == "" {
			f.Fingerprint = flagsNew.Fingerprint
		}
		if flagsNew.Timeout != 0 && f.Timeout == 0 {
			f.Timeout = flagsNew.Timeout
		}
		if flagsNew.Insecure {
			f.Insecure = true
		}
		if flagsNew.Verbose {
			f.Verbose = true
		}
	}
	if f.Verbose {
		logrus.SetLevel(logrus.TraceLevel)
	}
	if f.Server == "" {
		f.Server = "1.1.1.1"
	}
	if f.ServerPort == 0 {
		f.ServerPort = 853
	}
	if f.Domain == "" {
		f.Domain = "google.com"
	}
	if f.Timeout == 0 {
		f.Timeout = 5000
	}
	sni := f.ServerName
	if sni == "" {
		sni = f.Server
	}

	transport, err := net.Dial("tcp", net.JoinHostPort(f.Server, strconv.Itoa(int(f.ServerPort))))
	if err != nil {
		return E.Cause(err, "connect to resolver")
	}
	defer transport.Close()

	var stream pollable.Stream
	if f.Fingerprint != "" {
		helloID, helloErr := clientHelloID(f.Fingerprint)
		if helloErr != nil {
			return helloErr
		}
		tlsConn := tls.UClient(transport, &tls.Config{
			ServerName:         sni,
			InsecureSkipVerify: f.Insecure,
		}, helloID)
		if handshakeErr := tlsConn.Handshake(); handshakeErr != nil {
			return E.Cause(handshakeErr, "utls handshake")
		}
		layered, layerErr := pollable.NewLayeredStream(tlsConn, transport)
		if layerErr != nil {
			return layerErr
		}
		stream = layered
	} else {
		tlsConn := cTLS.Client(transport, &cTLS.Config{
			ServerName:         sni,
			InsecureSkipVerify: f.Insecure,
		})
		if handshakeErr := tlsConn.Handshake(); handshakeErr != nil {
			return E.Cause(handshakeErr, "tls handshake")
		}
		tlsStream, streamErr := pollable.NewTLSStream(tlsConn)
		if streamErr != nil {
			return streamErr
		}
		stream = tlsStream
	}
	dotLogger.Trace("handshake done, resolving ", f.Domain)

	name := f.Domain
	if !strings.HasSuffix(name, ".") {
		name += "."
	}
	message := &dnsmessage.Message{}
	message.Header.ID = 1
	message.Header.RecursionDesired = true
	message.Questions = append(message.Questions, dnsmessage.Question{
		Name:  dnsmessage.MustNewName(name),
		Type:  dnsmessage.TypeA,
		Class: dnsmessage.ClassINET,
	})
	packet, err := message.Pack()
	if err != nil {
		return E.Cause(err, "pack query")
	}

	err = binary.Write(stream, binary.BigEndian, uint16(len(packet)))
	if err != nil {
		return E.Cause(err, "write query length")
	}
	_, err = stream.Write(packet)
	if err != nil {
		return E.Cause(err, "write query")
	}

	records := []pollfd.Pollfd{stream.Pollfd()}
	n, err := pollfd.Poll(records, f.Timeout)
	if err != nil {
		return err
	}
	if n == 0 {
		return E.New("no reply after ", f.Timeout, "ms")
	}

	var replyLen uint16
	err = binary.Read(stream, binary.BigEndian, &replyLen)
	if err != nil {
		return E.Cause(err, "read reply length")
	}
	replyBuf := make([]byte, replyLen)
	_, err = io.ReadFull(stream, replyBuf)
	if err != nil {
		return E.Cause(err, "read reply")
	}
	err = message.Unpack(replyBuf)
	if err != nil {
		return E.Cause(err, "unpack reply")
	}
	for _, answer := range message.Answers {
		if a, isA := answer.Body.(*dnsmessage.AResource); isA {
			dotLogger.Info(f.Domain, " has address ", netip.AddrFrom4(a.A))
		}
	}
	return nil
}

func clientHelloID(name string) (tls.ClientHelloID, error) {
	switch name {
	case "chrome":
		return tls.HelloChrome_Auto, nil
	case "firefox":
		return tls.HelloFirefox_Auto, nil
	case "ios":
		return tls.HelloIOS_Auto, nil
	case "random":
		return tls.HelloRandomized, nil
	default:
		return tls.ClientHelloID{}, E.New("unknown fingerprint ", name)
	}
}
