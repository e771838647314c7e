package object

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// Message is one decoded header message. Body is nil for message types the
// reader does not interpret.
type Message struct {
	Type  message.Type
	Flags uint8
	Body  any
}

// Header is an object header with its messages in file order, continuation
// blocks included.
type Header struct {
	Addr     uint64
	Version  uint8
	Messages []Message
}

// Get returns the body of the first message of type T.
func Get[T any](h *Header) (T, bool) {
	for _, m := range h.Messages {
		if v, ok := m.Body.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// All returns the bodies of every message of type T.
func All[T any](h *Header) []T {
	var out []T
	for _, m := range h.Messages {
		if v, ok := m.Body.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether the header carries a message of type t, decoded or
// not.
func (h *Header) Has(t message.Type) bool {
	for _, m := range h.Messages {
		if m.Type == t {
			return true
		}
	}
	return false
}

// maxBlocks bounds the continuation chain of one header.
const maxBlocks = 1 << 12

// block is a run of messages still to be decoded.
type block struct {
	addr uint64
	size uint64
}

// Read decodes the object header at addr.
func Read(r *binary.Reader, addr uint64) (*Header, error) {
	prefix, err := r.ReadUpTo(addr, 4)
	if err != nil {
		return nil, fmt.Errorf("object header at 0x%x: %w", addr, err)
	}
	h := &Header{Addr: addr}
	if len(prefix) == 4 && string(prefix) == "OHDR" {
		h.Version = 2
		err = readV2(r, h)
	} else {
		h.Version = 1
		err = readV1(r, h)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at 0x%x: %w", addr, err)
	}
	return h, nil
}

// add appends a decoded message and queues continuation blocks.
func (h *Header) add(t message.Type, flags uint8, body *binary.Decoder, queue *[]block) error {
	v, err := message.Decode(t, flags, body)
	if err != nil {
		return err
	}
	if c, ok := v.(*message.Continuation); ok {
		*queue = append(*queue, block{c.Addr, c.Length})
	}
	h.Messages = append(h.Messages, Message{Type: t, Flags: flags, Body: v})
	return nil
}
