// Package server implements a development chat server speaking the same
// line protocol as the public chat: a read port that broadcasts every
// message and a write port for registration, authorisation and submission.
// Both ports accept plain TCP and WebSocket clients.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/omochice/toy-chat-clients/internal/chat"
	"github.com/omochice/toy-chat-clients/internal/transport/tcp"
	"github.com/omochice/toy-chat-clients/pkg/protocol"
)

// Server prompts.
const (
	Greeting       = "Hello %username%! Enter your personal hash or leave it empty to create new account.\n"
	NicknamePrompt = "Enter preferred nickname below:\n"
	MessagePrompt  = "Welcome to chat! Post your message below. End it with an empty line.\n"
)

const (
	defaultDetectWindow = 200 * time.Millisecond
	subscriberBuffer    = 64
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDetectWindow sets how long a new connection may stay silent before it
// is treated as a plain TCP client.
func WithDetectWindow(window time.Duration) Option {
	return func(s *Server) {
		s.detectWindow = window
	}
}

// Server runs the read and write ports.
type Server struct {
	read         *tcp.Server
	write        *tcp.Server
	hub          *chat.Hub
	accounts     *Accounts
	logger       zerolog.Logger
	detectWindow time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
}

// New creates a Server listening on readAddress and writeAddress.
func New(readAddress, writeAddress string, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		hub:          chat.NewHub(),
		accounts:     NewAccounts(),
		logger:       zerolog.Nop(),
		detectWindow: defaultDetectWindow,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.read = tcp.New(readAddress, s.serveSubscriber, s.logger.With().Str("port", "read").Logger())
	s.write = tcp.New(writeAddress, s.serveWriter, s.logger.With().Str("port", "write").Logger())
	return s
}

// Listen binds both ports.
func (s *Server) Listen() error {
	if err := s.read.Listen(); err != nil {
		return err
	}
	if err := s.write.Listen(); err != nil {
		s.read.Stop()
		return err
	}
	return nil
}

// Start listens and serves both ports until Stop is called.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve runs both accept loops on ports bound by Listen.
func (s *Server) Serve() error {
	var g errgroup.Group
	g.Go(s.read.Serve)
	g.Go(s.write.Serve)
	return g.Wait()
}

// Stop closes both ports and every client connection.
func (s *Server) Stop() {
	s.cancel()
	s.hub.CloseAll()
	s.read.Stop()
	s.write.Stop()
}

// ReadAddr returns the broadcast port address.
func (s *Server) ReadAddr() string {
	return s.read.Addr()
}

// WriteAddr returns the handshake port address.
func (s *Server) WriteAddr() string {
	return s.write.Addr()
}

// SubscriberCount returns the number of connected read-port clients.
func (s *Server) SubscriberCount() int {
	return s.hub.ClientCount()
}

// Accounts returns the account registry.
func (s *Server) Accounts() *Accounts {
	return s.accounts
}

// Broadcast sends one line to every subscriber.
func (s *Server) Broadcast(text string) int {
	return s.hub.Broadcast(protocol.Line(protocol.Sanitize(text)))
}

// DropSubscribers closes every read-port connection, as a server restart
// would.
func (s *Server) DropSubscribers() {
	s.hub.CloseAll()
}

func (s *Server) serveSubscriber(raw net.Conn) {
	conn, proto, err := accept(raw, s.detectWindow)
	if err != nil {
		s.logger.Debug().Err(err).Str("remote", raw.RemoteAddr().String()).Msg("failed to accept subscriber")
		return
	}
	defer conn.Close()

	client := chat.NewClient(conn, subscriberBuffer)
	s.hub.Register(client)
	s.logger.Info().Str("remote", conn.RemoteAddr()).Stringer("protocol", proto).Msg("subscriber connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(client)
	}()

	// Subscribers never speak; reading only detects the hang-up.
	for {
		if _, err := conn.ReadLine(s.ctx); err != nil {
			break
		}
	}

	s.hub.Unregister(client)
	<-done
	s.logger.Info().Str("remote", conn.RemoteAddr()).Msg("subscriber disconnected")
}

func (s *Server) writeLoop(client *chat.Client) {
	for data := range client.Outgoing {
		if err := client.Conn.Write(s.ctx, data); err != nil {
			s.logger.Debug().Err(err).Msg("failed to write to subscriber")
			client.Conn.Close()
			for range client.Outgoing {
			}
			return
		}
	}
}

func (s *Server) serveWriter(raw net.Conn) {
	conn, _, err := accept(raw, s.detectWindow)
	if err != nil {
		s.logger.Debug().Err(err).Str("remote", raw.RemoteAddr().String()).Msg("failed to accept writer")
		return
	}
	defer conn.Close()

	if err := s.handshake(s.ctx, conn); err != nil {
		s.logger.Debug().Err(err).Str("remote", conn.RemoteAddr()).Msg("writer session ended")
	}
}

// handshake runs one write-port session.
func (s *Server) handshake(ctx context.Context, conn chat.Conn) error {
	if err := conn.Write(ctx, []byte(Greeting)); err != nil {
		return err
	}
	line, err := conn.ReadLine(ctx)
	if err != nil {
		return err
	}

	token := protocol.Trim(line)
	if token == "" {
		return s.register(ctx, conn)
	}

	account, ok := s.accounts.Lookup(token)
	if !ok {
		s.logger.Info().Msg("unknown token")
		return conn.Write(ctx, protocol.EncodeNull())
	}

	data, err := protocol.EncodeAccount(account)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, data); err != nil {
		return err
	}
	if err := conn.Write(ctx, []byte(MessagePrompt)); err != nil {
		return err
	}
	return s.relay(ctx, conn, account)
}

func (s *Server) register(ctx context.Context, conn chat.Conn) error {
	if err := conn.Write(ctx, []byte(NicknamePrompt)); err != nil {
		return err
	}
	line, err := conn.ReadLine(ctx)
	if err != nil {
		return err
	}

	account := s.accounts.Register(protocol.Trim(line))
	s.logger.Info().Str("nickname", account.Nickname).Msg("account registered")

	data, err := protocol.EncodeAccount(account)
	if err != nil {
		return err
	}
	return conn.Write(ctx, data)
}

// relay broadcasts submitted lines until the client hangs up. An empty line
// ends a submission.
func (s *Server) relay(ctx context.Context, conn chat.Conn, account protocol.Account) error {
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return err
		}

		text := protocol.Trim(line)
		if text == "" {
			continue
		}
		delivered := s.hub.Broadcast(protocol.Line(fmt.Sprintf("%s: %s", account.Nickname, text)))
		s.logger.Info().Str("nickname", account.Nickname).Int("delivered", delivered).Msg("message relayed")
	}
}
