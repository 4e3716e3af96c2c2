// Package frame builds the fixed-layout channel-selection payload sent once
// at connection open: a 4-byte ASCII channel code, a 4-byte little-endian
// length, and the raw UTF-8 device identifier.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderLen covers the channel code plus the length field.
	HeaderLen = 8

	// MaxDeviceIDBytes bounds handshake decode memory use.
	MaxDeviceIDBytes = 64 * 1024

	// ChannelCodeControl selects the device-control command channel.
	ChannelCodeControl = "CTRL"
)

var (
	ErrBadChannelCode   = errors.New("frame: channel code must be 4 ascii bytes")
	ErrDeviceIDRequired = errors.New("frame: device id required")
	ErrDeviceIDTooLarge = errors.New("frame: device id too large")
	ErrShortPayload     = errors.New("frame: short handshake payload")
	ErrLengthMismatch   = errors.New("frame: device id length mismatch")
)

// Handshake selects which device's logical channel to open.
type Handshake struct {
	Code     string
	DeviceID string
}

func (h Handshake) Validate() error {
	if len(h.Code) != 4 {
		return fmt.Errorf("%w: got %d bytes", ErrBadChannelCode, len(h.Code))
	}
	for i := 0; i < len(h.Code); i++ {
		if h.Code[i] > 0x7f {
			return ErrBadChannelCode
		}
	}
	if h.DeviceID == "" {
		return ErrDeviceIDRequired
	}
	if len(h.DeviceID) > MaxDeviceIDBytes {
		return ErrDeviceIDTooLarge
	}
	return nil
}

// Encode serializes the handshake. Total length is HeaderLen plus the
// device-id byte length.
func (h Handshake) Encode() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	id := []byte(h.DeviceID)
	buf := make([]byte, HeaderLen+len(id))
	copy(buf[0:4], h.Code)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(id)))
	copy(buf[8:], id)
	return buf, nil
}

// Decode parses an encoded handshake payload.
func Decode(b []byte) (Handshake, error) {
	if len(b) < HeaderLen {
		return Handshake{}, ErrShortPayload
	}
	idLen := binary.LittleEndian.Uint32(b[4:8])
	if idLen > MaxDeviceIDBytes {
		return Handshake{}, ErrDeviceIDTooLarge
	}
	if uint32(len(b)-HeaderLen) != idLen {
		return Handshake{}, fmt.Errorf("%w: header=%d payload=%d", ErrLengthMismatch, idLen, len(b)-HeaderLen)
	}
	h := Handshake{
		Code:     string(b[0:4]),
		DeviceID: string(b[HeaderLen:]),
	}
	if err := h.Validate(); err != nil {
		return Handshake{}, err
	}
	return h, nil
}
