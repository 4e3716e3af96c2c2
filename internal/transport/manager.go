package transport

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/screenctl/internal/protocol/session"
)

var (
	ErrEndpointRequired = errors.New("transport: endpoint required")
	ErrAlreadyOpened    = errors.New("transport: manager already opened")
)

// ManagerConfig configures one lifecycle manager.
type ManagerConfig struct {
	Endpoint string
	// Handshake is sent as a single binary message immediately after each
	// successful dial, before any queued frames.
	Handshake []byte
	Dial      DialFunc
	Session   session.Config

	// OnState and OnMessage are invoked from the manager's connection
	// goroutine, never concurrently with each other.
	OnState   func(connected bool)
	OnMessage func(data []byte)
}

// Manager keeps at most one live Conn to the broker, queues outbound frames
// while disconnected, and retries after every close until stopped.
type Manager struct {
	cfg ManagerConfig
	rng *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    Conn
	queue   [][]byte
	opened  bool
	stopped bool
	timer   *time.Timer
	attempt int
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if cfg.Dial == nil {
		cfg.Dial = DialWebSocket
	}
	cfg.Session = cfg.Session.WithDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Open starts the first connection attempt. It may be called once.
func (m *Manager) Open() error {
	m.mu.Lock()
	if m.opened {
		m.mu.Unlock()
		return ErrAlreadyOpened
	}
	m.opened = true
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return nil
	}
	go m.run()
	return nil
}

// Send writes the frame immediately on a live connection, otherwise appends
// it to the outbound queue for the next flush. A frame whose write fails is
// re-queued; transport failure surfaces through OnState, not here.
func (m *Manager) Send(data []byte) {
	m.mu.Lock()
	conn := m.conn
	if conn == nil {
		m.queue = append(m.queue, data)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if err := m.write(conn, KindText, data); err != nil {
		log.Warn().Err(err).Msg("transport.Manager send failed, frame re-queued")
		m.mu.Lock()
		m.queue = append(m.queue, data)
		m.mu.Unlock()
		_ = conn.Close()
	}
}

// Stop terminates the manager: no further reconnects, any live connection is
// closed, in-flight I/O is cancelled. Idempotent. Send still queues after
// Stop but nothing is ever flushed.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	m.cancel()
	if conn != nil {
		_ = conn.Close()
	}
}

// Connected reports whether a live connection is currently attached.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// QueueLen reports the number of frames awaiting a live connection.
func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Manager) run() {
	attemptID := uuid.NewString()[:8]

	dialCtx, cancel := context.WithTimeout(m.ctx, m.cfg.Session.ConnectTimeout)
	conn, err := m.cfg.Dial(dialCtx, m.cfg.Endpoint)
	cancel()
	if err != nil {
		log.Warn().Str("attempt", attemptID).Str("endpoint", m.cfg.Endpoint).Err(err).
			Msg("transport.Manager dial failed")
		m.scheduleRetry()
		return
	}

	if len(m.cfg.Handshake) > 0 {
		hsCtx, cancel := context.WithTimeout(m.ctx, m.cfg.Session.HandshakeTimeout)
		err = conn.Write(hsCtx, KindBinary, m.cfg.Handshake)
		cancel()
		if err != nil {
			log.Warn().Str("attempt", attemptID).Err(err).
				Msg("transport.Manager handshake write failed")
			_ = conn.Close()
			m.scheduleRetry()
			return
		}
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.attempt = 0
	backlog := len(m.queue)
	m.mu.Unlock()

	log.Info().Str("attempt", attemptID).Str("endpoint", m.cfg.Endpoint).
		Int("queued", backlog).Msg("transport.Manager connected")
	m.notifyState(true)

	// Drain the backlog before exposing the connection to Send. Frames sent
	// while the drain runs keep queueing behind it, so send order survives a
	// reconnect.
	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			_ = conn.Close()
			m.notifyState(false)
			return
		}
		if len(m.queue) == 0 {
			m.conn = conn
			m.mu.Unlock()
			break
		}
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()

		for i, data := range batch {
			if err := m.write(conn, KindText, data); err != nil {
				log.Warn().Str("attempt", attemptID).Err(err).
					Msg("transport.Manager queue flush failed")
				m.mu.Lock()
				m.queue = append(batch[i:], m.queue...)
				m.mu.Unlock()
				_ = conn.Close()
				m.notifyState(false)
				m.scheduleRetry()
				return
			}
		}
	}

	for {
		kind, data, err := conn.Read(m.ctx)
		if err != nil {
			log.Info().Str("attempt", attemptID).Err(err).
				Msg("transport.Manager connection closed")
			break
		}
		if kind != KindText {
			log.Debug().Str("attempt", attemptID).Int("bytes", len(data)).
				Msg("transport.Manager ignoring binary frame")
			continue
		}
		if m.cfg.OnMessage != nil {
			m.cfg.OnMessage(data)
		}
	}

	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
	_ = conn.Close()

	m.notifyState(false)
	m.scheduleRetry()
}

// scheduleRetry arms exactly one reconnect timer. Clean closes and transport
// errors take the same path.
func (m *Manager) scheduleRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.timer != nil {
		return
	}
	m.attempt++
	delay := m.cfg.Session.Retry.DelayFor(m.attempt, m.rng)
	m.timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		m.timer = nil
		stopped := m.stopped
		m.mu.Unlock()
		if stopped {
			return
		}
		m.run()
	})
}

func (m *Manager) write(conn Conn, kind Kind, data []byte) error {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.Session.WriteTimeout)
	defer cancel()
	return conn.Write(ctx, kind, data)
}

func (m *Manager) notifyState(connected bool) {
	if m.cfg.OnState != nil {
		m.cfg.OnState(connected)
	}
}
