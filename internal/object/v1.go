package object

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// v1PrefixSize covers version, message count, reference count, header size
// and the padding that aligns the first message.
const v1PrefixSize = 16

func readV1(r *binary.Reader, h *Header) error {
	d, err := r.Block(h.Addr, v1PrefixSize)
	if err != nil {
		return err
	}
	if v := d.U8(); v != 1 {
		return fmt.Errorf("unsupported object header version %d", v)
	}
	d.Skip(1)
	count := int(d.U16())
	d.U32() // reference count
	size := d.U32()

	queue := []block{{h.Addr + v1PrefixSize, uint64(size)}}
	seen := 0
	for n := 0; len(queue) > 0 && seen < count; n++ {
		if n >= maxBlocks {
			return fmt.Errorf("more than %d header blocks", maxBlocks)
		}
		b := queue[0]
		queue = queue[1:]
		d, err := r.Block(b.addr, int(b.size))
		if err != nil {
			return fmt.Errorf("message block at 0x%x: %w", b.addr, err)
		}
		// v1 messages are 8-byte aligned, a header is 8 bytes
		for d.Len() >= 8 && seen < count {
			t := message.Type(d.U16())
			length := int(d.U16())
			flags := d.U8()
			d.Skip(3)
			body := d.Sub(length)
			if err := d.Err(); err != nil {
				return err
			}
			if err := h.add(t, flags, body, &queue); err != nil {
				return err
			}
			seen++
		}
	}
	return nil
}
