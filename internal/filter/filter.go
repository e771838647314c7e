package filter

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/message"
)

// Func undoes one filter, given the filter's client data.
type Func func(in []byte, params []uint32) ([]byte, error)

var funcs = map[uint16]Func{
	message.FilterDeflate:    Inflate,
	message.FilterShuffle:    Unshuffle,
	message.FilterFletcher32: VerifyFletcher32,
	message.FilterLZ4:        DecodeLZ4,
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
	message.FilterLZ4:         "lz4",
}

// Name returns the usual name of filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

type stage struct {
	id     uint16
	fn     Func
	params []uint32
}

// Pipeline undoes the filters of one dataset.
type Pipeline struct {
	stages []stage
}

// New prepares the filters of p, which may be nil. Optional filters that
// are not implemented are skipped when decoding; any other unknown filter
// is an error.
func New(p *message.FilterPipeline) (*Pipeline, error) {
	out := &Pipeline{}
	if p == nil {
		return out, nil
	}
	for _, f := range p.Filters {
		fn, ok := funcs[f.ID]
		if !ok && !f.Optional() {
			return nil, fmt.Errorf("%s (id %d) is not supported", Name(f.ID), f.ID)
		}
		out.stages = append(out.stages, stage{id: f.ID, fn: fn, params: f.Params})
	}
	return out, nil
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int { return len(p.stages) }

// Decode undoes the filters not masked out by mask.
func (p *Pipeline) Decode(b []byte, mask uint32) ([]byte, error) {
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if s.fn == nil || mask&(1<<uint(i)) != 0 {
			continue
		}
		var err error
		if b, err = s.fn(b, s.params); err != nil {
			return nil, fmt.Errorf("%s: %w", Name(s.id), err)
		}
	}
	return b, nil
}
