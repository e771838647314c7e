package layout

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Array index clients.
const (
	clientChunk         = 0
	clientFilteredChunk = 1
)

// sealed reads n bytes at addr and verifies their trailing checksum.
func sealed(r *binary.Reader, addr uint64, n int) (*binary.Decoder, error) {
	b, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, err
	}
	if err := binary.VerifyLookup3(b); err != nil {
		return nil, err
	}
	return r.Decoder(b), nil
}

// arrayPrefix reads the signature, version and client of an array
// structure.
func arrayPrefix(d *binary.Decoder, sig string) uint8 {
	d.Expect(sig)
	if v := d.U8(); v != 0 {
		d.Fail("unsupported %s version %d", sig, v)
	}
	client := d.U8()
	if client != clientChunk && client != clientFilteredChunk {
		d.Fail("%s client %d does not index chunks", sig, client)
	}
	return client
}

// decodeEntries decodes n chunk entries of elemSize bytes each, numbering
// them from first.
func decodeEntries(d *binary.Decoder, client uint8, elemSize, n int, first uint64) []entry {
	out := make([]entry, 0, n)
	width := elemSize - d.OffsetSize() - 4
	for i := range n {
		e := entry{index: first + uint64(i), addr: d.Addr()}
		if client == clientFilteredChunk {
			e.size = d.Uint(width)
			e.mask = d.U32()
		}
		out = append(out, e)
	}
	return out
}

// readFixedArray reads the entries of the fixed array whose header is at
// addr. Large data blocks are split into pages, each with its own
// checksum; pages never written are skipped.
func readFixedArray(r *binary.Reader, addr uint64) ([]entry, error) {
	o := r.OffsetSize()
	d, err := sealed(r, addr, 4+4+r.LengthSize()+o+4)
	if err != nil {
		return nil, fmt.Errorf("fixed array header at 0x%x: %w", addr, err)
	}
	client := arrayPrefix(d, "FAHD")
	elemSize := int(d.U8())
	pageBits := d.U8()
	n := d.Length()
	dblock := d.Addr()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("fixed array header at 0x%x: %w", addr, err)
	}
	if dblock == binary.Undefined || n == 0 {
		return nil, nil
	}
	if pageBits >= 32 {
		return nil, fmt.Errorf("fixed array header at 0x%x: %d page bits", addr, pageBits)
	}

	prefix := 4 + 2 + o
	pageLen := uint64(1) << pageBits
	if n <= pageLen {
		d, err := sealed(r, dblock, prefix+int(n)*elemSize+4)
		if err != nil {
			return nil, fmt.Errorf("fixed array data block at 0x%x: %w", dblock, err)
		}
		arrayPrefix(d, "FADB")
		d.Addr()
		entries := decodeEntries(d, client, elemSize, int(n), 0)
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("fixed array data block at 0x%x: %w", dblock, err)
		}
		return entries, nil
	}

	pages := (n + pageLen - 1) / pageLen
	mapLen := int((pages + 7) / 8)
	d, err = sealed(r, dblock, prefix+mapLen+4)
	if err != nil {
		return nil, fmt.Errorf("fixed array data block at 0x%x: %w", dblock, err)
	}
	arrayPrefix(d, "FADB")
	d.Addr()
	bitmap := d.Bytes(mapLen)
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("fixed array data block at 0x%x: %w", dblock, err)
	}

	var entries []entry
	at := dblock + uint64(prefix+mapLen+4)
	for p := uint64(0); p < pages; p++ {
		count := min(pageLen, n-p*pageLen)
		size := int(count)*elemSize + 4
		// the first page's bit is the most significant
		if bitmap[p/8]&(0x80>>(p%8)) != 0 {
			d, err := sealed(r, at, size)
			if err != nil {
				return nil, fmt.Errorf("fixed array page %d: %w", p, err)
			}
			entries = append(entries, decodeEntries(d, client, elemSize, int(count), p*pageLen)...)
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("fixed array page %d: %w", p, err)
			}
		}
		at += uint64(pageLen)*uint64(elemSize) + 4
	}
	return entries, nil
}

// log2 of a power of two.
func log2(v uint64) int { return bits.Len64(v) - 1 }

// readExtensibleArray reads the entries of the extensible array whose
// header is at addr. Elements live in the index block and in data blocks it
// points at directly; arrays grown far enough to need super blocks are not
// supported.
func readExtensibleArray(r *binary.Reader, addr uint64) ([]entry, error) {
	o, l := r.OffsetSize(), r.LengthSize()
	d, err := sealed(r, addr, 4+2+6+6*l+o+4)
	if err != nil {
		return nil, fmt.Errorf("extensible array header at 0x%x: %w", addr, err)
	}
	client := arrayPrefix(d, "EAHD")
	elemSize := int(d.U8())
	maxBits := int(d.U8())
	indexElems := int(d.U8())
	minElems := uint64(d.U8())
	minPointers := uint64(d.U8())
	pageBits := d.U8()
	d.Length() // super blocks
	d.Length() // super block bytes
	d.Length() // data blocks
	d.Length() // data block bytes
	total := d.Length()
	d.Length() // elements realized
	iblock := d.Addr()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("extensible array header at 0x%x: %w", addr, err)
	}
	if iblock == binary.Undefined || total == 0 {
		return nil, nil
	}
	if minElems == 0 || minPointers == 0 || bits.OnesCount64(minElems) != 1 || bits.OnesCount64(minPointers) != 1 {
		return nil, fmt.Errorf("extensible array header at 0x%x: block sizes %d and %d are not powers of two", addr, minElems, minPointers)
	}

	direct := 2 * log2(minPointers)
	dblocks := int(2 * (minPointers - 1))
	sblocks := 1 + maxBits - log2(minElems) - direct
	if sblocks < 0 {
		sblocks = 0
	}
	d, err = sealed(r, iblock, 4+2+o+indexElems*elemSize+(dblocks+sblocks)*o+4)
	if err != nil {
		return nil, fmt.Errorf("extensible array index block at 0x%x: %w", iblock, err)
	}
	arrayPrefix(d, "EAIB")
	d.Addr()
	entries := decodeEntries(d, client, elemSize, indexElems, 0)
	dblockAddrs := make([]uint64, dblocks)
	for i := range dblockAddrs {
		dblockAddrs[i] = d.Addr()
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("extensible array index block at 0x%x: %w", iblock, err)
	}
	if uint64(len(entries)) > total {
		entries = entries[:total]
	}

	next := uint64(indexElems)
	k := 0
	for sb := 0; sb < direct && next < total; sb++ {
		blocks := 1 << (sb / 2)
		size := (uint64(1) << ((sb + 1) / 2)) * minElems
		for j := 0; j < blocks && next < total; j++ {
			at := dblockAddrs[k]
			k++
			if at != binary.Undefined {
				if size > uint64(1)<<pageBits {
					return nil, fmt.Errorf("extensible array data block at 0x%x is paged", at)
				}
				got, err := readDataBlock(r, at, client, elemSize, maxBits, int(size), next, next-uint64(indexElems))
				if err != nil {
					return nil, err
				}
				entries = append(entries, got[:min(size, total-next)]...)
			}
			next += size
		}
	}
	if next < total {
		return nil, fmt.Errorf("extensible array at 0x%x: %d elements need super blocks", addr, total)
	}
	return entries, nil
}

// readDataBlock reads a data block of n elements, the first numbered first.
// Blocks record their offset among the elements past the index block.
func readDataBlock(r *binary.Reader, addr uint64, client uint8, elemSize, maxBits, n int, first, blockOff uint64) ([]entry, error) {
	offWidth := (maxBits + 7) / 8
	d, err := sealed(r, addr, 4+2+r.OffsetSize()+offWidth+n*elemSize+4)
	if err != nil {
		return nil, fmt.Errorf("extensible array data block at 0x%x: %w", addr, err)
	}
	arrayPrefix(d, "EADB")
	d.Addr()
	if off := d.Uint(offWidth); off != blockOff {
		d.Fail("block offset %d, want %d", off, blockOff)
	}
	entries := decodeEntries(d, client, elemSize, n, first)
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("extensible array data block at 0x%x: %w", addr, err)
	}
	return entries, nil
}
