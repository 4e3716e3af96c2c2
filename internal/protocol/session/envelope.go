package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	TypeRunSession    = "session.run"
	TypeDeviceRequest = "device.request"
	TypeSessionStatus = "session.status"

	MethodPressButton = "pressButton"
	MethodClick       = "click"
	MethodScroll      = "scroll"
	MethodScreenWidth = "screenWidth"

	// StatusStarted is the ack status reporting a live automation session.
	StatusStarted = "started"
)

var (
	ErrInvalidRequest = errors.New("session: invalid request")
	ErrInvalidFrame   = errors.New("session: invalid frame")
)

// Request is one outbound command frame. The id is assigned by the caller
// before encoding and is the correlation key for the response.
type Request struct {
	ID   uint32 `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (r Request) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("%w: missing id", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidRequest)
	}
	return nil
}

// Encode serializes the request to a JSON text frame.
func (r Request) Encode() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return sonic.Marshal(r)
}

// Message is one inbound frame. An id of zero marks an unsolicited frame;
// request ids always start above zero.
type Message struct {
	ID   uint32          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the resolved counterpart of a pending request.
type Response struct {
	ID   uint32
	Type string
	Data json.RawMessage
}

// DecodeMessage parses an inbound text frame.
func DecodeMessage(raw []byte) (Message, error) {
	var msg Message
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if strings.TrimSpace(msg.Type) == "" && msg.ID == 0 {
		return Message{}, fmt.Errorf("%w: missing type", ErrInvalidFrame)
	}
	return msg, nil
}

// RunSessionArgs is the session.run request payload.
type RunSessionArgs struct {
	DeviceID string `json:"udid"`
}

// SessionAck is the session.run response payload.
type SessionAck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DecodeSessionAck parses a session.run response body. A body that does not
// parse is reported as a non-started ack, not an error.
func DecodeSessionAck(data json.RawMessage) SessionAck {
	var ack SessionAck
	if len(data) == 0 {
		return ack
	}
	_ = sonic.Unmarshal(data, &ack)
	return ack
}

// Status is an unsolicited session-status notification.
type Status struct {
	State   string `json:"state"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeStatus parses a session.status frame body.
func DecodeStatus(data json.RawMessage) (Status, error) {
	var st Status
	if err := sonic.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("%w: bad status body: %v", ErrInvalidFrame, err)
	}
	return st, nil
}

// DeviceCall wraps one opaque automation method invocation.
type DeviceCall struct {
	Method string `json:"method"`
	Args   any    `json:"args,omitempty"`
}

// ScreenWidthResult is the screenWidth device-query response payload.
type ScreenWidthResult struct {
	Width int `json:"width"`
}

// DecodeScreenWidth parses a screenWidth query response body.
func DecodeScreenWidth(data json.RawMessage) (int, error) {
	var out ScreenWidthResult
	if err := sonic.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("%w: bad screen width body: %v", ErrInvalidFrame, err)
	}
	if out.Width <= 0 {
		return 0, fmt.Errorf("%w: non-positive screen width %d", ErrInvalidFrame, out.Width)
	}
	return out.Width, nil
}
