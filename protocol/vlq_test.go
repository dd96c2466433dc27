package protocol

import (
	"bytes"
	"testing"
)

func TestVLQEncoding(t *testing.T) {
	testCases := []struct {
		value   int32
		encoded []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7F}},
		{95, []byte{0x5F}},
		{96, []byte{0x80, 0x60}},
		{-32, []byte{0x60}},
		{-33, []byte{0xFF, 0x5F}},
		{65535, []byte{0x83, 0xFF, 0x7F}},
	}

	for _, tc := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, tc.value)
		if !bytes.Equal(output.Result(), tc.encoded) {
			t.Errorf("EncodeVLQInt(%d): expected %v, got %v", tc.value, tc.encoded, output.Result())
		}

		data := append([]byte(nil), tc.encoded...)
		got, err := DecodeVLQInt(&data)
		if err != nil || got != tc.value {
			t.Errorf("DecodeVLQInt(%v): expected %d, got %d (err=%v)", tc.encoded, tc.value, got, err)
		}
		if len(data) != 0 {
			t.Errorf("DecodeVLQInt(%v) left %d bytes", tc.encoded, len(data))
		}
	}
}

func TestVLQUintRange(t *testing.T) {
	for _, expected := range []uint32{0, 127, 128, 65535, 1000000, 0x7FFFFFFF, 0xFFFFFFFF} {
		output := NewScratchOutput()
		EncodeVLQUint(output, expected)
		if len(output.Result()) > maxVLQBytes {
			t.Errorf("Value %d encoded in %d bytes", expected, len(output.Result()))
		}

		data := output.Result()
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d", expected, decoded)
		}
	}
}

func TestVLQErrors(t *testing.T) {
	var empty []byte
	if _, err := DecodeVLQInt(&empty); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for empty input, got %v", err)
	}

	truncated := []byte{0x83, 0xFF}
	if _, err := DecodeVLQInt(&truncated); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for truncated input, got %v", err)
	}

	overlong := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	if _, err := DecodeVLQInt(&overlong); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ for overlong input, got %v", err)
	}
}

func TestEncodeDecodeArgs(t *testing.T) {
	data := EncodeArgs(4, 1, 65535)
	args, err := DecodeArgs(&data, 3)
	if err != nil {
		t.Fatalf("DecodeArgs failed: %v", err)
	}
	if args[0] != 4 || args[1] != 1 || args[2] != 65535 {
		t.Errorf("Unexpected args %v", args)
	}

	short := EncodeArgs(1)
	if _, err := DecodeArgs(&short, 2); err == nil {
		t.Error("Expected error decoding more args than encoded")
	}
}
