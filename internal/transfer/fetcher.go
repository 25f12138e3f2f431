package transfer

import (
	"context"
	"errors"
	"fmt"
)

// RangeFetcher pulls contiguous, non-overlapping byte ranges of one object
// in increasing order until the declared size is covered or the source
// reports end-of-data early. A fetcher covers exactly one transfer attempt
// and cannot be restarted.
type RangeFetcher struct {
	src    Source
	bucket string
	key    string
	total  int64
	window int
	offset int64
	done   bool
}

// NewRangeFetcher builds a fetcher over [0, total) of the object, reading
// window bytes per request.
func NewRangeFetcher(src Source, bucket, key string, total int64, window int) (*RangeFetcher, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: declared size must not be negative, got %d", ErrInvalidConfig, total)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: fetch window must be positive, got %d", ErrInvalidConfig, window)
	}
	return &RangeFetcher{src: src, bucket: bucket, key: key, total: total, window: window}, nil
}

// Next returns the next chunk, or (nil, nil) once the sequence is
// exhausted. A zero-byte read from the source ends the sequence; the
// caller decides whether the resulting short transfer is worth reporting.
func (f *RangeFetcher) Next(ctx context.Context) ([]byte, error) {
	if f.done || f.offset >= f.total {
		f.done = true
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	end := f.offset + int64(f.window) - 1
	if last := f.total - 1; end > last {
		end = last
	}

	chunk, err := f.src.RangeRead(ctx, f.bucket, f.key, f.offset, end)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		if errors.Is(err, ErrSourceRead) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAccessDenied) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: range %d-%d: %v", ErrSourceRead, f.offset, end, err)
	}
	if len(chunk) == 0 {
		f.done = true
		return nil, nil
	}

	f.offset += int64(len(chunk))
	return chunk, nil
}

// BytesFetched reports cumulative bytes pulled so far.
func (f *RangeFetcher) BytesFetched() int64 { return f.offset }
