package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/danmuck/screenctl/internal/testutil/testlog"
)

func TestEncodeLayout(t *testing.T) {
	testlog.Start(t)
	payload, err := Handshake{Code: ChannelCodeControl, DeviceID: "abcd"}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(payload) != 12 {
		t.Fatalf("unexpected payload length: %d", len(payload))
	}
	if !bytes.Equal(payload[0:4], []byte(ChannelCodeControl)) {
		t.Fatalf("unexpected channel code bytes: %q", payload[0:4])
	}
	if got := binary.LittleEndian.Uint32(payload[4:8]); got != 4 {
		t.Fatalf("unexpected length field: %d", got)
	}
	if string(payload[8:]) != "abcd" {
		t.Fatalf("unexpected device id bytes: %q", payload[8:])
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := Handshake{Code: ChannelCodeControl, DeviceID: "emulator-5554"}
	payload, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != in {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	if _, err := (Handshake{Code: "TOOLONG", DeviceID: "x"}).Encode(); !errors.Is(err, ErrBadChannelCode) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := (Handshake{Code: "CT", DeviceID: "x"}).Encode(); !errors.Is(err, ErrBadChannelCode) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := (Handshake{Code: ChannelCodeControl}).Encode(); !errors.Is(err, ErrDeviceIDRequired) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	testlog.Start(t)
	if _, err := Decode([]byte("shrt")); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := Handshake{Code: ChannelCodeControl, DeviceID: "abcd"}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(payload[:len(payload)-1]); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("unexpected error: %v", err)
	}

	binary.LittleEndian.PutUint32(payload[4:8], MaxDeviceIDBytes+1)
	if _, err := Decode(payload); !errors.Is(err, ErrDeviceIDTooLarge) {
		t.Fatalf("unexpected error: %v", err)
	}
}
