package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/a2developers/website/backend/go-services/pkg/logger"
	"github.com/a2developers/website/backend/go-services/pkg/metrics"
	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	ErrNotConnected      = errors.New("database not connected")
	ErrConnectInProgress = errors.New("connect already in progress")
	ErrClosed            = errors.New("supervisor closed")
)

// Dialer opens a fresh, verified client.
type Dialer func(ctx context.Context) (Client, error)

// ConnectHook runs after every successful connect (index creation etc).
// A hook error is logged; it does not fail the connection.
type ConnectHook func(ctx context.Context, c Client) error

// Policy bounds automatic reconnects: delays start at BaseDelay, double up to
// MaxDelay, and retries stop after MaxAttempts consecutive failures.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func DefaultPolicy() Policy {
	return Policy{BaseDelay: 5 * time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 5}
}

// Supervisor owns the only reference to the database client. Run keeps it
// connected; request handlers go through Client and never hold it across
// reconnects.
type Supervisor struct {
	dial           Dialer
	policy         Policy
	healthInterval time.Duration
	pingTimeout    time.Duration
	hooks          []ConnectHook

	mu         sync.RWMutex
	client     Client
	state      State
	connecting bool
	attempts   int
	exhausted  bool
	closed     bool
	lastErr    error
	backoff    *backoff.ExponentialBackOff

	wake chan struct{}
}

type Option func(*Supervisor)

func WithHealthInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.healthInterval = d
		}
	}
}

func WithPingTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.pingTimeout = d
		}
	}
}

func WithConnectHook(h ConnectHook) Option {
	return func(s *Supervisor) { s.hooks = append(s.hooks, h) }
}

func NewSupervisor(dial Dialer, policy Policy, opts ...Option) *Supervisor {
	def := DefaultPolicy()
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = def.BaseDelay
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = policy.BaseDelay
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}

	s := &Supervisor{
		dial:           dial,
		policy:         policy,
		healthInterval: 10 * time.Second,
		pingTimeout:    2 * time.Second,
		state:          StateDisconnected,
		wake:           make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}

	s.backoff = backoff.NewExponentialBackOff()
	s.backoff.InitialInterval = policy.BaseDelay
	s.backoff.MaxInterval = policy.MaxDelay
	s.backoff.Multiplier = 2
	s.backoff.RandomizationFactor = 0
	s.backoff.Reset()

	metrics.MongoConnectionState.Set(float64(StateDisconnected))
	return s
}

func (s *Supervisor) setStateLocked(st State) {
	s.state = st
	metrics.MongoConnectionState.Set(float64(st))
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{State: s.state, Attempts: s.attempts, RetriesExhausted: s.exhausted, LastError: s.lastErr}
}

// Client returns the live client, or ErrNotConnected unless the state is connected.
func (s *Supervisor) Client() (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateConnected || s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}

// Connect performs a single connect attempt. Only one attempt runs at a time;
// a concurrent call gets ErrConnectInProgress.
func (s *Supervisor) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.connecting:
		s.mu.Unlock()
		return ErrConnectInProgress
	case s.state == StateConnected:
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	client, err := s.dial(ctx)
	if err == nil {
		s.runHooks(ctx, client)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connecting = false

	if s.closed {
		if err == nil {
			go disconnect(client, s.pingTimeout)
		}
		s.setStateLocked(StateDisconnected)
		return ErrClosed
	}
	if err != nil {
		s.attempts++
		s.lastErr = err
		metrics.MongoConnectAttempts.WithLabelValues("failure").Inc()
		if s.attempts >= s.policy.MaxAttempts {
			s.exhausted = true
			s.setStateLocked(StateDisconnected)
		} else {
			s.setStateLocked(StateConnecting)
		}
		return fmt.Errorf("connect attempt %d/%d: %w", s.attempts, s.policy.MaxAttempts, err)
	}

	metrics.MongoConnectAttempts.WithLabelValues("success").Inc()
	s.client = client
	s.attempts = 0
	s.exhausted = false
	s.lastErr = nil
	s.backoff.Reset()
	s.setStateLocked(StateConnected)
	return nil
}

func (s *Supervisor) runHooks(ctx context.Context, c Client) {
	for _, h := range s.hooks {
		if err := h(ctx, c); err != nil {
			logger.Warnf("mongo connect hook failed: %v", err)
		}
	}
}

// Reconnect re-arms automatic retries after they were exhausted.
func (s *Supervisor) Reconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.attempts = 0
	s.exhausted = false
	s.backoff.Reset()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run keeps the connection alive until ctx is done, then closes it.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()

	for {
		if s.shouldConnect() {
			err := s.Connect(ctx)
			switch {
			case err == nil:
				logger.Infof("connected to MongoDB")
			case errors.Is(err, ErrConnectInProgress):
			case errors.Is(err, ErrClosed):
				return
			case ctx.Err() != nil:
				_ = s.Close(context.Background())
				return
			default:
				st := s.Status()
				if st.RetriesExhausted {
					logger.Errorf("could not connect to MongoDB after %d attempts, automatic retries stopped: %v", s.policy.MaxAttempts, err)
					break
				}
				delay := s.nextDelay()
				logger.Warnf("%v; retrying in %s", err, delay)
				if !s.sleep(ctx, delay) {
					_ = s.Close(context.Background())
					return
				}
				continue
			}
		}

		select {
		case <-ctx.Done():
			_ = s.Close(context.Background())
			return
		case <-s.wake:
		case <-ticker.C:
			s.checkHealth(ctx)
		}
	}
}

func (s *Supervisor) shouldConnect() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && !s.exhausted && !s.connecting && s.state != StateConnected
}

func (s *Supervisor) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backoff.NextBackOff()
}

// sleep waits for d; false means ctx ended.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.wake:
		return true
	case <-t.C:
		return true
	}
}

func (s *Supervisor) checkHealth(ctx context.Context) {
	c, err := s.Client()
	if err != nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	perr := c.Ping(pctx, readpref.Primary())
	if perr == nil || ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.client != c {
		s.mu.Unlock()
		return
	}
	s.client = nil
	s.lastErr = perr
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	logger.Warnf("lost MongoDB connection: %v", perr)
	go disconnect(c, s.pingTimeout)
}

// Close disconnects the client and stops further connect attempts.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed && s.client == nil {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	c := s.client
	s.client = nil
	if c != nil {
		s.setStateLocked(StateDisconnecting)
	}
	s.mu.Unlock()

	var err error
	if c != nil {
		err = c.Disconnect(ctx)
	}

	s.mu.Lock()
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()
	return err
}

func disconnect(c Client, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Disconnect(ctx); err != nil {
		logger.Debugf("mongo disconnect: %v", err)
	}
}
