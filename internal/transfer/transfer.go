// Package transfer implements the chunked transfer engine: it bridges a
// range-addressable source to a session-bound sink through a bounded
// reassembly buffer, writing the destination in exact write-unit-sized
// pieces at strictly increasing offsets.
package transfer

import (
	"context"
	"io"
)

// Source is the range-addressable pull side of a transfer.
type Source interface {
	// HeadSize returns the declared total size of the object in bytes.
	HeadSize(ctx context.Context, bucket, key string) (int64, error)

	// RangeRead returns the bytes of the inclusive range [start, end].
	// A short or empty result means the source ended early; that is
	// end-of-data, not an error.
	RangeRead(ctx context.Context, bucket, key string, start, end int64) ([]byte, error)
}

// Sink is the session-bound push side of a transfer.
type Sink interface {
	// MaxWriteUnit is the largest single write the session accepts.
	MaxWriteUnit() int

	// Open creates the destination file, truncating existing content.
	Open(name string) (SinkFile, error)
}

// SinkFile is one open destination file handle. Writes land at explicit
// offsets; the engine never writes the same offset twice.
type SinkFile interface {
	io.WriterAt
	io.Closer
}

// Request describes one transfer. It is built once from resolved
// configuration and never mutated.
type Request struct {
	Bucket      string
	Key         string
	Destination string

	// WriteSize is the requested write unit in bytes. The effective unit
	// is this clamped to the sink's maximum.
	WriteSize int

	// FetchWindow is the source-side read size in bytes. Zero means fetch
	// in ranges of the effective write unit.
	FetchWindow int
}

// Cursor is the running account of one transfer attempt. At every point
// BytesWritten <= BytesFetched <= the declared total size.
type Cursor struct {
	BytesFetched    int64
	BytesWritten    int64
	WriteOperations int64
}
