// Package listener keeps a never-ending subscription to the chat broadcast
// stream and persists every line it receives.
//
// The reconnect loop moves through four states:
//
//	Disconnected -> Connecting -> Connected -> (stream fails) -> BackingOff -> Disconnected
//	                    \-> (dial fails) -> BackingOff
//
// Connectivity faults (see Classify) are retried forever following a
// RetryPolicy. Every other fault, including storage failures, ends Run.
package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omochice/toy-chat-clients/internal/chat"
	"github.com/omochice/toy-chat-clients/internal/sink"
)

// State is a reconnect loop state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateBackingOff
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateBackingOff:
		return "BACKING_OFF"
	default:
		return "UNKNOWN"
	}
}

// Sink receives lifecycle notices and data lines. Each call must be durable
// when it returns.
type Sink interface {
	Append(text string) error
	AppendStamped(text string) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Listener.
type Option func(*Listener)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(l *Listener) {
		l.policy = policy
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Listener) {
		l.logger = logger
	}
}

// WithSleep replaces the backoff timer.
func WithSleep(sleep SleepFunc) Option {
	return func(l *Listener) {
		l.sleep = sleep
	}
}

// WithStateHook registers a callback invoked on every state change.
func WithStateHook(hook func(oldState, newState State)) Option {
	return func(l *Listener) {
		l.onStateChange = hook
	}
}

// Listener runs the reconnect loop against one address.
type Listener struct {
	address string
	dialer  chat.Dialer
	sink    Sink
	policy  RetryPolicy
	logger  zerolog.Logger
	sleep   SleepFunc

	onStateChange func(oldState, newState State)

	attempt int
	state   State
}

// New creates a Listener. Nothing is dialed until Run.
func New(address string, dialer chat.Dialer, sink Sink, opts ...Option) *Listener {
	l := &Listener{
		address: address,
		dialer:  dialer,
		sink:    sink,
		policy:  DefaultRetryPolicy(),
		logger:  zerolog.Nop(),
		sleep:   sleepContext,
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run reconnects until ctx is done or a fatal fault occurs. It returns
// ctx.Err() on cancellation and the fault otherwise; it never returns nil.
func (l *Listener) Run(ctx context.Context) error {
	for {
		l.attempt++
		l.setState(StateConnecting)

		err := l.session(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		l.setState(StateBackingOff)
		if fault := Classify(err); fault != FaultConnectivity {
			l.logger.Error().Err(err).Stringer("fault", fault).Msg("listener stopped")
			return err
		}

		delay := l.policy.DelayFor(l.attempt)
		l.logger.Warn().Err(err).Int("attempt", l.attempt).Dur("delay", delay).Msg("no connection")

		if err := l.notify(RetryNotice(delay)); err != nil {
			return err
		}
		if err := l.sleep(ctx, delay); err != nil {
			return err
		}
		l.setState(StateDisconnected)
	}
}

// session dials once and copies lines to the sink until the stream fails.
func (l *Listener) session(ctx context.Context) error {
	conn, err := l.dialer.Dial(ctx, l.address)
	if err != nil {
		return err
	}
	defer conn.Close()

	l.attempt = 0
	l.setState(StateConnected)

	logger := l.logger.With().Str("conn_id", uuid.NewString()).Str("remote", conn.RemoteAddr()).Logger()
	logger.Info().Msg("connection established")

	if err := l.notify(NoticeEstablished); err != nil {
		return err
	}

	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return io.EOF
		}

		logger.Debug().Int("bytes", len(line)).Msg("line received")
		if err := l.sink.AppendStamped(string(line)); err != nil {
			return storageFault(err)
		}
	}
}

func (l *Listener) notify(notice string) error {
	if err := l.sink.Append(notice); err != nil {
		return storageFault(err)
	}
	return nil
}

func (l *Listener) setState(state State) {
	if l.state == state {
		return
	}
	old := l.state
	l.state = state
	l.logger.Debug().Stringer("from", old).Stringer("to", state).Msg("state change")
	if l.onStateChange != nil {
		l.onStateChange(old, state)
	}
}

// storageFault makes sure sink errors classify as fatal whatever they wrap.
func storageFault(err error) error {
	if errors.Is(err, sink.ErrSink) {
		return err
	}
	return fmt.Errorf("%w: %w", sink.ErrSink, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
