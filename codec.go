package main

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// binaryInputTag marks a compact input frame: [0x01, flags]
const binaryInputTag = 0x01

const (
	inputLeft = 1 << iota
	inputRight
	inputUp
	inputShoot
)

// EncodeJSON marshals an outgoing envelope as a text frame
func EncodeJSON(env Envelope) ([]byte, error) {
	if env.T == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	return json.Marshal(env)
}

// EncodeMsgpack marshals an outgoing envelope as a binary frame
func EncodeMsgpack(env Envelope) ([]byte, error) {
	if env.T == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	return msgpack.Marshal(env)
}

// DecodeEnvelope parses an incoming text frame
func DecodeEnvelope(b []byte) (InEnvelope, error) {
	if len(b) == 0 {
		return InEnvelope{}, fmt.Errorf("decode: empty frame")
	}
	var env InEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return InEnvelope{}, err
	}
	return env, nil
}

// DecodePayload unmarshals the payload of an incoming envelope
func DecodePayload[T any](env InEnvelope) (T, error) {
	var out T
	if len(env.D) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.D, &out)
	return out, err
}

// DecodeBinaryInput parses a compact input frame
func DecodeBinaryInput(msg []byte) (PlayerInput, bool) {
	if len(msg) != 2 || msg[0] != binaryInputTag {
		return PlayerInput{}, false
	}
	flags := msg[1]
	return PlayerInput{
		Left:  flags&inputLeft != 0,
		Right: flags&inputRight != 0,
		Up:    flags&inputUp != 0,
		Shoot: flags&inputShoot != 0,
	}, true
}
