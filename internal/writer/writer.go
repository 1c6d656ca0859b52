// Package writer implements the handshake client: register or authorise,
// submit one message, hang up.
//
// Every exchange is strictly half-duplex: each write is preceded by exactly
// one read on the same connection, and registration and authorisation use
// two connections that never overlap. No step is retried.
package writer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omochice/toy-chat-clients/internal/chat"
	"github.com/omochice/toy-chat-clients/pkg/protocol"
)

// ErrUnknownToken is returned by Authorise when the server answers null.
var ErrUnknownToken = errors.New("unknown token")

// Outcome is the terminal state of Run.
type Outcome int

const (
	// OutcomeFatal means a transport or protocol fault aborted the handshake.
	OutcomeFatal Outcome = iota
	// OutcomeDone means the message was submitted.
	OutcomeDone
	// OutcomeRejected means the token is unknown; nothing was submitted.
	OutcomeRejected
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeFatal:
		return "FATAL"
	case OutcomeDone:
		return "DONE"
	case OutcomeRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Result describes how Run ended.
type Result struct {
	Outcome Outcome
	// Account is the registered or authorised account, when known.
	Account protocol.Account
	// Registered is set when a new account was created during this run.
	Registered bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// Writer performs handshakes against one address.
type Writer struct {
	address string
	dialer  chat.Dialer
	logger  zerolog.Logger
}

// New creates a Writer.
func New(address string, dialer chat.Dialer, opts ...Option) *Writer {
	w := &Writer{
		address: address,
		dialer:  dialer,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run registers when cred has no token, authorises, and submits message.
// An unknown token yields OutcomeRejected with a nil error.
func (w *Writer) Run(ctx context.Context, cred Credential, message string) (Result, error) {
	if err := cred.Validate(); err != nil {
		return Result{Outcome: OutcomeFatal}, err
	}

	logger := w.logger.With().Str("run_id", uuid.NewString()).Logger()
	result := Result{}
	token := cred.Token

	if cred.NeedsRegistration() {
		logger.Info().Msg("Auth token not given. Executing user registration...")

		account, err := w.register(ctx, cred.Nickname, logger)
		if err != nil {
			return Result{Outcome: OutcomeFatal}, err
		}
		result.Account = account
		result.Registered = true
		token = account.Hash

		logger.Info().Str("token", token).Msg("Registered successfully")
	}

	logger.Info().Msg("Executing user authorisation...")
	session, err := w.authorise(ctx, token, logger)
	if errors.Is(err, ErrUnknownToken) {
		logger.Info().Msg("Unknown token. Check it or re-register.")
		result.Outcome = OutcomeRejected
		return result, nil
	}
	if err != nil {
		return Result{Outcome: OutcomeFatal}, err
	}
	defer session.Close()

	logger.Info().Msg("Successfully authorised")
	if !result.Registered {
		result.Account = session.Account()
	}

	logger.Info().Msg("Sending message...")
	if err := session.Submit(ctx, message); err != nil {
		return Result{Outcome: OutcomeFatal}, err
	}
	logger.Info().Msg("Message sent successfully")

	result.Outcome = OutcomeDone
	return result, nil
}

// Register creates an account for nickname on its own connection and
// returns the server-issued record.
func (w *Writer) Register(ctx context.Context, nickname string) (protocol.Account, error) {
	return w.register(ctx, nickname, w.logger)
}

// Authorise opens a new connection and presents token. On success the
// connection stays open inside the returned Session. An unknown token closes
// the connection and returns ErrUnknownToken.
func (w *Writer) Authorise(ctx context.Context, token string) (*Session, error) {
	return w.authorise(ctx, token, w.logger)
}

func (w *Writer) register(ctx context.Context, nickname string, logger zerolog.Logger) (protocol.Account, error) {
	conn, err := w.dialer.Dial(ctx, w.address)
	if err != nil {
		return protocol.Account{}, fmt.Errorf("failed to register: %w", err)
	}
	defer conn.Close()

	t := newTurns(conn, logger.With().Str("phase", "register").Logger())

	if _, err := t.read(ctx, "greeting"); err != nil {
		return protocol.Account{}, err
	}
	if err := t.write(ctx, protocol.Line("")); err != nil {
		return protocol.Account{}, err
	}
	if _, err := t.read(ctx, "nickname prompt"); err != nil {
		return protocol.Account{}, err
	}
	if err := t.write(ctx, protocol.Line(protocol.Sanitize(nickname))); err != nil {
		return protocol.Account{}, err
	}
	line, err := t.read(ctx, "credentials")
	if err != nil {
		return protocol.Account{}, err
	}

	account, err := protocol.DecodeRegistration(line)
	if err != nil {
		return protocol.Account{}, fmt.Errorf("failed to register: %w", err)
	}
	return account, nil
}

func (w *Writer) authorise(ctx context.Context, token string, logger zerolog.Logger) (*Session, error) {
	conn, err := w.dialer.Dial(ctx, w.address)
	if err != nil {
		return nil, fmt.Errorf("failed to authorise: %w", err)
	}

	t := newTurns(conn, logger.With().Str("phase", "authorise").Logger())
	account, err := authoriseOn(ctx, t, token)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Session{conn: conn, turns: t, account: *account}, nil
}

func authoriseOn(ctx context.Context, t turns, token string) (*protocol.Account, error) {
	if _, err := t.read(ctx, "greeting"); err != nil {
		return nil, err
	}
	if err := t.write(ctx, protocol.Line(protocol.Sanitize(token))); err != nil {
		return nil, err
	}
	line, err := t.read(ctx, "authorisation response")
	if err != nil {
		return nil, err
	}

	account, err := protocol.DecodeAccount(line)
	if err != nil {
		return nil, fmt.Errorf("failed to authorise: %w", err)
	}
	if account == nil {
		return nil, ErrUnknownToken
	}
	return account, nil
}

// Session is an authorised connection ready for one submission.
type Session struct {
	conn    chat.Conn
	turns   turns
	account protocol.Account
}

// Account returns the record the server sent on authorisation.
func (s *Session) Account() protocol.Account {
	return s.account
}

// Submit waits for the prompt and sends message terminated by an empty line.
func (s *Session) Submit(ctx context.Context, message string) error {
	if _, err := s.turns.read(ctx, "message prompt"); err != nil {
		return err
	}
	return s.turns.write(ctx, protocol.Submission(message))
}

// Close releases the connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// turns performs logged reads and writes on one connection.
type turns struct {
	conn   chat.Conn
	logger zerolog.Logger
}

func newTurns(conn chat.Conn, logger zerolog.Logger) turns {
	return turns{conn: conn, logger: logger}
}

// read returns the next line; a stream that ends first is io.ErrUnexpectedEOF.
func (t turns) read(ctx context.Context, what string) ([]byte, error) {
	line, err := t.conn.ReadLine(ctx)
	if errors.Is(err, io.EOF) || (err == nil && len(line) == 0) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", what, err)
	}
	t.logger.Debug().Str("received", protocol.Trim(line)).Msg("Received")
	return line, nil
}

func (t turns) write(ctx context.Context, data []byte) error {
	if err := t.conn.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}
	t.logger.Debug().Str("sent", protocol.Trim(data)).Msg("Sent")
	return nil
}
