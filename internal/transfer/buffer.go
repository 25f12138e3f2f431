package transfer

import "fmt"

// Segment is one write-ready piece of the destination byte range.
type Segment struct {
	Offset int64
	Data   []byte
}

// WriteBuffer reassembles variable-size source chunks into exact
// write-unit-sized segments. Yielded offsets tile the written range from 0
// with no gaps or overlaps; only the final remainder may be shorter than
// one unit.
type WriteBuffer struct {
	unit    int
	pending []byte
	offset  int64
}

// NewWriteBuffer returns a buffer slicing at the given write unit.
func NewWriteBuffer(unit int) (*WriteBuffer, error) {
	if unit <= 0 {
		return nil, fmt.Errorf("%w: write unit must be positive, got %d", ErrInvalidConfig, unit)
	}
	return &WriteBuffer{unit: unit}, nil
}

// Accept appends chunk and returns every full write unit now available, in
// order. Returned segments own their data; the caller may retain them.
func (b *WriteBuffer) Accept(chunk []byte) []Segment {
	b.pending = append(b.pending, chunk...)

	var segs []Segment
	for len(b.pending) >= b.unit {
		data := make([]byte, b.unit)
		copy(data, b.pending[:b.unit])
		segs = append(segs, Segment{Offset: b.offset, Data: data})
		b.offset += int64(b.unit)
		b.pending = b.pending[:copy(b.pending, b.pending[b.unit:])]
	}
	return segs
}

// FlushRemainder hands back whatever is buffered below one write unit.
// Call it once at end-of-stream; the buffer is empty afterwards.
func (b *WriteBuffer) FlushRemainder() (Segment, bool) {
	if len(b.pending) == 0 {
		return Segment{}, false
	}
	data := make([]byte, len(b.pending))
	copy(data, b.pending)
	seg := Segment{Offset: b.offset, Data: data}
	b.offset += int64(len(data))
	b.pending = b.pending[:0]
	return seg, true
}

// Pending reports how many bytes are buffered but not yet yielded.
func (b *WriteBuffer) Pending() int { return len(b.pending) }
