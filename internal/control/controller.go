package control

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/danmuck/screenctl/internal/geometry"
	"github.com/danmuck/screenctl/internal/protocol/frame"
	"github.com/danmuck/screenctl/internal/protocol/session"
	"github.com/danmuck/screenctl/internal/transport"
)

// ActionDeviceControl is the action selector this client answers to.
const ActionDeviceControl = "device-control"

var supportedActions = []string{ActionDeviceControl}

var (
	ErrEndpointRequired = errors.New("control: endpoint required")
	ErrDeviceIDRequired = errors.New("control: device id required")
	ErrUnknownAction    = errors.New("control: unrecognized action")
	ErrNoSession        = errors.New("control: no active session")
	ErrClientStopped    = errors.New("control: client stopped")
)

// Config carries the construction parameters for one device-control client.
type Config struct {
	Endpoint string
	DeviceID string
	Action   string
	Session  session.Config

	// Dial overrides the transport dialer. Zero means websocket.
	Dial transport.DialFunc
}

func DefaultConfig() Config {
	return Config{
		Action:  ActionDeviceControl,
		Session: session.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrEndpointRequired
	}
	if strings.TrimSpace(c.DeviceID) == "" {
		return ErrDeviceIDRequired
	}
	if !lo.Contains(supportedActions, c.Action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, c.Action)
	}
	return nil
}

// InputHandler is the capability seam for components that feed pointer and
// button input toward a device.
type InputHandler interface {
	PressButton(ctx context.Context, name string) error
	Click(ctx context.Context, pos geometry.Position) error
	Scroll(ctx context.Context, from, to geometry.Position) error
}

// Controller is the device-control command façade. It owns the transport
// manager and correlator for one device identity, gates automation requests
// behind a running session, and translates pointer coordinates through the
// current screen descriptor.
type Controller struct {
	cfg  Config
	mgr  *transport.Manager
	corr *Correlator

	mu          sync.Mutex
	screen      *geometry.ScreenInfo
	screenWidth int
	sessionUp   bool

	onConnection func(connected bool)
}

var _ InputHandler = (*Controller)(nil)

func NewController(cfg Config) (*Controller, error) {
	cfg.Session = cfg.Session.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	handshake, err := frame.Handshake{
		Code:     frame.ChannelCodeControl,
		DeviceID: cfg.DeviceID,
	}.Encode()
	if err != nil {
		return nil, err
	}

	c := &Controller{cfg: cfg}
	mgr, err := transport.NewManager(transport.ManagerConfig{
		Endpoint:  cfg.Endpoint,
		Handshake: handshake,
		Dial:      cfg.Dial,
		Session:   cfg.Session,
		OnState:   c.handleState,
		OnMessage: func(data []byte) { c.corr.Dispatch(data) },
	})
	if err != nil {
		return nil, err
	}
	c.mgr = mgr
	c.corr = NewCorrelator(mgr)
	return c, nil
}

// OnConnection registers the connectivity-transition subscriber. Must be set
// before Run.
func (c *Controller) OnConnection(fn func(connected bool)) {
	c.onConnection = fn
}

// OnStatus registers the unsolicited session-status subscriber. Must be set
// before Run.
func (c *Controller) OnStatus(fn func(session.Status)) {
	c.corr.OnStatus(fn)
}

// Run starts connecting to the broker.
func (c *Controller) Run() error {
	return c.mgr.Open()
}

// Stop halts the transport/reconnect cycle and fails every outstanding call.
// Idempotent.
func (c *Controller) Stop() {
	c.mgr.Stop()
	c.corr.FailAll(ErrClientStopped)
}

// RunSession asks the broker to start the device-automation session. The
// session gate opens only when the ack reports StatusStarted.
func (c *Controller) RunSession(ctx context.Context) (session.SessionAck, error) {
	req := session.Request{
		ID:   c.corr.NextID(),
		Type: session.TypeRunSession,
		Data: session.RunSessionArgs{DeviceID: c.cfg.DeviceID},
	}
	resp, err := c.corr.Call(ctx, req)
	if err != nil {
		return session.SessionAck{}, err
	}
	ack := session.DecodeSessionAck(resp.Data)
	if ack.Status == session.StatusStarted {
		c.mu.Lock()
		c.sessionUp = true
		c.mu.Unlock()
	} else {
		log.Warn().Str("status", ack.Status).Str("message", ack.Message).
			Msg("control.Controller session did not start")
	}
	return ack, nil
}

// RequestDevice forwards one opaque automation method invocation. It fails
// with ErrNoSession before a successful RunSession; no frame is sent.
func (c *Controller) RequestDevice(ctx context.Context, method string, args any) (session.Response, error) {
	if !c.SessionActive() {
		return session.Response{}, ErrNoSession
	}
	req := session.Request{
		ID:   c.corr.NextID(),
		Type: session.TypeDeviceRequest,
		Data: session.DeviceCall{Method: method, Args: args},
	}
	return c.corr.Call(ctx, req)
}

type pressButtonArgs struct {
	Name string `json:"name"`
}

type pointArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type scrollArgs struct {
	From pointArgs `json:"from"`
	To   pointArgs `json:"to"`
}

// PressButton pushes one named hardware button.
func (c *Controller) PressButton(ctx context.Context, name string) error {
	_, err := c.RequestDevice(ctx, session.MethodPressButton, pressButtonArgs{Name: name})
	return err
}

// Click taps the device at the physical pixel the position maps onto. A
// missing screen descriptor or a stale position is a silent no-op; input
// races against rotation changes are tolerated, not reported.
func (c *Controller) Click(ctx context.Context, pos geometry.Position) error {
	p, ok, err := c.resolvePoint(ctx, pos)
	if err != nil || !ok {
		return err
	}
	_, err = c.RequestDevice(ctx, session.MethodClick, pointArgs{X: p.X, Y: p.Y})
	return err
}

// Scroll drags from one position to another. No-ops silently unless both
// positions resolve against the current screen descriptor.
func (c *Controller) Scroll(ctx context.Context, from, to geometry.Position) error {
	fp, ok, err := c.resolvePoint(ctx, from)
	if err != nil || !ok {
		return err
	}
	tp, ok, err := c.resolvePoint(ctx, to)
	if err != nil || !ok {
		return err
	}
	_, err = c.RequestDevice(ctx, session.MethodScroll, scrollArgs{
		From: pointArgs{X: fp.X, Y: fp.Y},
		To:   pointArgs{X: tp.X, Y: tp.Y},
	})
	return err
}

// SetScreenInfo replaces the screen descriptor as a whole.
func (c *Controller) SetScreenInfo(info geometry.ScreenInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.screen = &info
}

// ScreenInfo returns the current screen descriptor, if one has been set.
func (c *Controller) ScreenInfo() (geometry.ScreenInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen == nil {
		return geometry.ScreenInfo{}, false
	}
	return *c.screen, true
}

// SessionActive reports whether a session has started successfully.
func (c *Controller) SessionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionUp
}

// Connected reports transport connectivity.
func (c *Controller) Connected() bool {
	return c.mgr.Connected()
}

// PendingCalls reports the number of outstanding requests.
func (c *Controller) PendingCalls() int {
	return c.corr.Pending()
}

func (c *Controller) resolvePoint(ctx context.Context, pos geometry.Position) (geometry.Point, bool, error) {
	c.mu.Lock()
	screen := c.screen
	c.mu.Unlock()
	if screen == nil {
		return geometry.Point{}, false, nil
	}
	width, err := c.logicalScreenWidth(ctx)
	if err != nil {
		return geometry.Point{}, false, err
	}
	p, ok := geometry.Transform(*screen, pos, width)
	return p, ok, nil
}

// logicalScreenWidth fetches the device's logical width once and memoizes it
// for the client's lifetime.
func (c *Controller) logicalScreenWidth(ctx context.Context) (int, error) {
	c.mu.Lock()
	width := c.screenWidth
	c.mu.Unlock()
	if width > 0 {
		return width, nil
	}
	resp, err := c.RequestDevice(ctx, session.MethodScreenWidth, nil)
	if err != nil {
		return 0, err
	}
	width, err = session.DecodeScreenWidth(resp.Data)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.screenWidth = width
	c.mu.Unlock()
	return width, nil
}

func (c *Controller) handleState(connected bool) {
	log.Info().Bool("connected", connected).Str("device", c.cfg.DeviceID).
		Msg("control.Controller connectivity changed")
	if c.onConnection != nil {
		c.onConnection(connected)
	}
}
