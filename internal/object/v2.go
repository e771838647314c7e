package object

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// Version 2 header flags.
const (
	flagChunkSize  = 0x03
	flagTrackOrder = 0x04
	flagPhaseAttr  = 0x10
	flagTimes      = 0x20
)

// v2MaxPrefix is the longest possible prefix: signature, version, flags,
// four timestamps, attribute phase limits and an 8-byte chunk size.
const v2MaxPrefix = 4 + 1 + 1 + 16 + 4 + 8

func readV2(r *binary.Reader, h *Header) error {
	raw, err := r.ReadUpTo(h.Addr, v2MaxPrefix)
	if err != nil {
		return err
	}
	d := r.Decoder(raw)
	d.Expect("OHDR")
	if v := d.U8(); v != 2 {
		return fmt.Errorf("unsupported object header version %d", v)
	}
	flags := d.U8()
	if flags&flagTimes != 0 {
		d.Skip(16)
	}
	if flags&flagPhaseAttr != 0 {
		d.Skip(4)
	}
	size := d.Uint(1 << (flags & flagChunkSize))
	if err := d.Err(); err != nil {
		return err
	}

	// the first chunk is checksummed together with its prefix
	prefix := d.Pos()
	chunk, err := r.ReadAt(h.Addr, prefix+int(size)+4)
	if err != nil {
		return err
	}
	if err := binary.VerifyLookup3(chunk); err != nil {
		return err
	}

	queue := []block{}
	if err := h.readMessages(r.Decoder(chunk[prefix:len(chunk)-4]), flags, &queue); err != nil {
		return err
	}

	for n := 0; len(queue) > 0; n++ {
		if n >= maxBlocks {
			return fmt.Errorf("more than %d header blocks", maxBlocks)
		}
		b := queue[0]
		queue = queue[1:]
		raw, err := r.ReadAt(b.addr, int(b.size))
		if err != nil {
			return fmt.Errorf("continuation block at 0x%x: %w", b.addr, err)
		}
		if err := binary.VerifyLookup3(raw); err != nil {
			return fmt.Errorf("continuation block at 0x%x: %w", b.addr, err)
		}
		d := r.Decoder(raw[:len(raw)-4])
		d.Expect("OCHK")
		if err := d.Err(); err != nil {
			return err
		}
		if err := h.readMessages(d, flags, &queue); err != nil {
			return err
		}
	}
	return nil
}

func (h *Header) readMessages(d *binary.Decoder, flags uint8, queue *[]block) error {
	hdr := 4
	if flags&flagTrackOrder != 0 {
		hdr = 6
	}
	// anything shorter than a message header at the end is a gap
	for d.Len() >= hdr {
		t := message.Type(d.U8())
		length := int(d.U16())
		mflags := d.U8()
		if flags&flagTrackOrder != 0 {
			d.U16()
		}
		body := d.Sub(length)
		if err := d.Err(); err != nil {
			return err
		}
		if err := h.add(t, mflags, body, queue); err != nil {
			return err
		}
	}
	return nil
}
