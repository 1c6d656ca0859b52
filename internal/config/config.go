// Package config resolves process configuration for the chat commands from
// flags, environment variables and an optional config file, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/omochice/toy-chat-clients/internal/listener"
	"github.com/omochice/toy-chat-clients/internal/writer"
)

const (
	TransportTCP       = "tcp"
	TransportWebSocket = "ws"
)

const (
	DefaultReadPort  = 5000
	DefaultWritePort = 5050
	DefaultOutput    = "chat.txt"
)

// Reader configures chat-reader.
type Reader struct {
	Host         string
	Port         int
	Output       string
	Transport    string
	FreeAttempts int
	RetryDelay   time.Duration
	Timestamps   bool
}

// DefaultReader returns the reader defaults.
func DefaultReader() Reader {
	return Reader{
		Port:         DefaultReadPort,
		Output:       DefaultOutput,
		Transport:    TransportTCP,
		FreeAttempts: listener.DefaultFreeAttempts,
		RetryDelay:   listener.DefaultRetryDelay,
		Timestamps:   true,
	}
}

// Address returns the dial target.
func (r Reader) Address() string {
	return address(r.Transport, r.Host, r.Port)
}

// RetryPolicy returns the backoff policy.
func (r Reader) RetryPolicy() listener.RetryPolicy {
	return listener.RetryPolicy{FreeAttempts: r.FreeAttempts, Delay: r.RetryDelay}
}

// Validate checks the reader configuration.
func (r Reader) Validate() error {
	var errs []error
	errs = append(errs, validateEndpoint(r.Transport, r.Host, r.Port))
	if r.Output == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if r.FreeAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry free attempts must not be negative, got %d", r.FreeAttempts))
	}
	if r.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry delay must not be negative, got %s", r.RetryDelay))
	}
	return errors.Join(errs...)
}

// Writer configures chat-writer.
type Writer struct {
	Host      string
	Port      int
	Nickname  string
	Token     string
	Message   string
	Transport string
}

// DefaultWriter returns the writer defaults.
func DefaultWriter() Writer {
	return Writer{
		Port:      DefaultWritePort,
		Transport: TransportTCP,
	}
}

// Address returns the dial target.
func (w Writer) Address() string {
	return address(w.Transport, w.Host, w.Port)
}

// Credential returns the identity to hand to the writer.
func (w Writer) Credential() writer.Credential {
	return writer.Credential{Nickname: w.Nickname, Token: w.Token}
}

// Validate checks the writer configuration. Missing credentials are
// reported as writer.ErrNoCredential.
func (w Writer) Validate() error {
	var errs []error
	errs = append(errs, validateEndpoint(w.Transport, w.Host, w.Port))
	if w.Message == "" {
		errs = append(errs, errors.New("message is required"))
	}
	errs = append(errs, w.Credential().Validate())
	return errors.Join(errs...)
}

// Server configures the development chat-server.
type Server struct {
	Host      string
	ReadPort  int
	WritePort int
}

// DefaultServer returns the server defaults.
func DefaultServer() Server {
	return Server{
		ReadPort:  DefaultReadPort,
		WritePort: DefaultWritePort,
	}
}

// ReadAddress returns the broadcast listen address.
func (s Server) ReadAddress() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.ReadPort))
}

// WriteAddress returns the handshake listen address.
func (s Server) WriteAddress() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.WritePort))
}

// Validate checks the server configuration. Port 0 picks a free port.
func (s Server) Validate() error {
	var errs []error
	for name, port := range map[string]int{"read port": s.ReadPort, "write port": s.WritePort} {
		if port < 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	return errors.Join(errs...)
}

func address(transport, host string, port int) string {
	hostPort := net.JoinHostPort(host, strconv.Itoa(port))
	if transport == TransportWebSocket {
		return "ws://" + hostPort + "/"
	}
	return hostPort
}

func validateEndpoint(transport, host string, port int) error {
	var errs []error
	if host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", port))
	}
	if transport != TransportTCP && transport != TransportWebSocket {
		errs = append(errs, fmt.Errorf("unknown transport %q (want %q or %q)", transport, TransportTCP, TransportWebSocket))
	}
	return errors.Join(errs...)
}
