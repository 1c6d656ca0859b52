package tcp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Handler serves one accepted connection. The connection is closed when
// the handler returns.
type Handler func(conn net.Conn)

// Server accepts TCP connections and hands each to a Handler.
type Server struct {
	address  string
	handler  Handler
	logger   zerolog.Logger
	listener net.Listener
	conns    map[net.Conn]struct{}
	mu       sync.Mutex
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New creates a TCP server that dispatches to handler.
func New(address string, handler Handler, logger zerolog.Logger) *Server {
	return &Server{
		address: address,
		handler: handler,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
		quit:    make(chan struct{}),
	}
}

// Listen binds the listening socket without accepting connections yet.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("TCP server started")
	return nil
}

// Start listens if needed and accepts connections until Stop is called.
func (s *Server) Start() error {
	s.mu.Lock()
	listening := s.listener != nil
	s.mu.Unlock()

	if !listening {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.Serve()
}

// Serve runs the accept loop on a listener bound by Listen.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn().Err(err).Msg("failed to accept TCP connection")
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return nil
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// Stop closes the listener and every open connection, then waits for the
// handlers to return.
func (s *Server) Stop() {
	s.mu.Lock()
	select {
	case <-s.quit:
		s.mu.Unlock()
		return
	default:
		close(s.quit)
	}
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	s.handler(conn)
}
