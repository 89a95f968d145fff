package netx

import (
	"encoding/json"
	"fmt"

	"p2racer/internal/protocol"
)

// Wire format: one JSON-encoded NetMessage per websocket text frame. The size
// guard keeps a hostile peer from forcing huge allocations.

const maxFrameBytes = 1 << 20

func Encode(msg protocol.NetMessage) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if len(b) > maxFrameBytes {
		return nil, fmt.Errorf("frame too large: %d bytes", len(b))
	}
	return b, nil
}

func Decode(frame []byte) (protocol.NetMessage, error) {
	var msg protocol.NetMessage
	if len(frame) > maxFrameBytes {
		return msg, fmt.Errorf("frame too large: %d bytes", len(frame))
	}
	err := json.Unmarshal(frame, &msg)
	return msg, err
}
